package messages

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	hwebsocket "github.com/aukilabs/hagall-common/websocket"
)

const (
	ErrTypeInvalidMessage = "invalid_message"
)

var (
	ErrTypeSessionNotJoined = hwebsocket.ErrTypeSessionNotJoined
	ErrTypeMsgSkip          = hwebsocket.ErrTypeMsgSkip

	// ErrModuleMsgSkip is returned by modules that don't handle a message.
	ErrModuleMsgSkip = errors.New("message skipped by module").WithType(ErrTypeMsgSkip)
)

// ErrorCode tells a client why a request failed.
type ErrorCode string

const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeSessionAlreadyJoined   ErrorCode = "session_already_joined"
	ErrorCodeInvalidStateTransition ErrorCode = "invalid_state_transition"
	ErrorCodeBoundingBoxMissing     ErrorCode = "bounding_box_missing"
	ErrorCodeInternalServerError    ErrorCode = "internal_server_error"
)

// ErrorResponse is sent when a request fails.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

// RespondError sends an error response to the given request.
func RespondError(respond ResponseSender, requestID uint32, code ErrorCode, err error) {
	res := ErrorResponse{Code: code}
	if err != nil {
		res.Message = err.Error()
	}
	respond.Send(MsgTypeErrorResponse, requestID, res)
}
