package messages

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// MsgType is the type of a message exchanged with a client.
type MsgType string

const (
	MsgTypePingRequest         MsgType = "ping"
	MsgTypeSessionJoinRequest  MsgType = "session_join_request"
	MsgTypeScanStateRequest    MsgType = "scan_state_request"
	MsgTypeScanDiscardRequest  MsgType = "scan_discard_request"
	MsgTypeBoxPlaceRequest     MsgType = "box_place_request"
	MsgTypeFrame               MsgType = "frame"
	MsgTypeGesture             MsgType = "gesture"
	MsgTypeOriginRequest       MsgType = "origin_request"
	MsgTypeBoxQueryRequest     MsgType = "box_query_request"
	MsgTypeDetectionResult     MsgType = "detection_result"
	MsgTypeTestRunRequest      MsgType = "test_run_request"
	MsgTypeSnapshotRequest     MsgType = "scan_snapshot_request"
	MsgTypePingResponse        MsgType = "ping_response"
	MsgTypeSessionJoinResponse MsgType = "session_join_response"
	MsgTypeErrorResponse       MsgType = "error_response"
	MsgTypeSyncClock           MsgType = "sync_clock"

	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"

	MsgTypeScanStateChanged      MsgType = "scan_state_changed"
	MsgTypeBoxPlaced             MsgType = "box_placed"
	MsgTypeBoxRemoved            MsgType = "box_removed"
	MsgTypeExtentChanged         MsgType = "extent_changed"
	MsgTypePositionChanged       MsgType = "position_changed"
	MsgTypeScanPercentageChanged MsgType = "scan_percentage_changed"
	MsgTypeHapticFeedback        MsgType = "haptic_feedback"
	MsgTypeBoxQueryResponse      MsgType = "box_query_response"
	MsgTypeGestureResponse       MsgType = "gesture_response"
	MsgTypeScanSnapshot          MsgType = "scan_snapshot"
	MsgTypeTestRunStatistics     MsgType = "test_run_statistics"
	MsgTypeTestRunNoDetection    MsgType = "test_run_no_detection"
)

// Msg is the envelope of every message exchanged with a client.
type Msg struct {
	Type      MsgType         `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMsg creates a message that carries the JSON encoding of data.
func NewMsg(t MsgType, requestID uint32, data any) (Msg, error) {
	msg := Msg{
		Type:      t,
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	if data == nil {
		return msg, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithType(ErrTypeInvalidMessage).
			WithTag("msg_type", t).
			Wrap(err)
	}
	msg.Data = b
	return msg, nil
}

// TypeString returns the message type as a string.
func (m Msg) TypeString() string {
	return string(m.Type)
}

// DataTo decodes the message data into v. A message without data leaves v
// untouched.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeInvalidMessage).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// Receiver is a function that receives a message and returns its size in
// bytes.
type Receiver func() (Msg, int, error)

// Sender is a function that sends a message and returns its size in bytes.
type Sender func(Msg) (int, error)

// ResponseSender is the interface to send messages to a client.
type ResponseSender interface {
	// Sends the given data in a message of the given type. Request id is 0
	// for messages that don't answer a request.
	Send(t MsgType, requestID uint32, data any)

	// Sends a ready to go message.
	SendMsg(Msg)
}

// Receive reads a message from a WebSocket connection.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var b []byte
	if err := websocket.Message.Receive(conn, &b); err != nil {
		return Msg{}, 0, err
	}

	var msg Msg
	if err := json.Unmarshal(b, &msg); err != nil {
		return Msg{}, len(b), errors.New("decoding message failed").
			WithType(ErrTypeInvalidMessage).
			Wrap(err)
	}

	if msg.Type == "" {
		return Msg{}, len(b), errors.New("message without type").
			WithType(ErrTypeInvalidMessage)
	}
	return msg, len(b), nil
}

// Send writes a message to a WebSocket connection as a text frame.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return 0, errors.New("encoding message failed").
			WithType(ErrTypeInvalidMessage).
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}

	if err := websocket.Message.Send(conn, string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}
