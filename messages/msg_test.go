package messages

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aukilabs/boxscan/scan"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestMsgData(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		msg, err := NewMsg(MsgTypeScanStateRequest, 42, ScanStateRequest{State: scan.StateScanning})
		require.NoError(t, err)
		require.Equal(t, MsgTypeScanStateRequest, msg.Type)
		require.Equal(t, uint32(42), msg.RequestID)
		require.Equal(t, "scan_state_request", msg.TypeString())
		require.JSONEq(t, `{"state":"scanning"}`, string(msg.Data))

		var req ScanStateRequest
		require.NoError(t, msg.DataTo(&req))
		require.Equal(t, scan.StateScanning, req.State)
	})

	t.Run("without data", func(t *testing.T) {
		msg, err := NewMsg(MsgTypePingRequest, 1, nil)
		require.NoError(t, err)
		require.Empty(t, msg.Data)

		req := ScanStateRequest{State: scan.StateAdjustingOrigin}
		require.NoError(t, msg.DataTo(&req))
		require.Equal(t, scan.StateAdjustingOrigin, req.State)
	})

	t.Run("invalid data", func(t *testing.T) {
		msg := Msg{
			Type: MsgTypeScanStateRequest,
			Data: []byte(`{"state":"flying"}`),
		}

		var req ScanStateRequest
		err := msg.DataTo(&req)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidMessage, errors.Type(err))
	})
}

func TestSendReceive(t *testing.T) {
	server := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()

		for {
			msg, _, err := Receive(conn)
			if err != nil {
				errMsg, _ := NewMsg(MsgTypeErrorResponse, 0, ErrorResponse{
					Code:    ErrorCodeBadRequest,
					Message: err.Error(),
				})
				Send(conn, errMsg)
				return
			}

			msg.Type = MsgTypePingResponse
			if _, err := Send(conn, msg); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	conn, err := websocket.Dial(strings.ReplaceAll(server.URL, "http://", "ws://"), "", "http://localhost")
	require.NoError(t, err)
	defer conn.Close()

	t.Run("echo", func(t *testing.T) {
		msg, err := NewMsg(MsgTypePingRequest, 7, nil)
		require.NoError(t, err)

		n, err := Send(conn, msg)
		require.NoError(t, err)
		require.NotZero(t, n)

		res, n, err := Receive(conn)
		require.NoError(t, err)
		require.NotZero(t, n)
		require.Equal(t, MsgTypePingResponse, res.Type)
		require.Equal(t, uint32(7), res.RequestID)
	})

	t.Run("message without type", func(t *testing.T) {
		require.NoError(t, websocket.Message.Send(conn, `{"request_id":3}`))

		res, _, err := Receive(conn)
		require.NoError(t, err)
		require.Equal(t, MsgTypeErrorResponse, res.Type)

		var errRes ErrorResponse
		require.NoError(t, res.DataTo(&errRes))
		require.Equal(t, ErrorCodeBadRequest, errRes.Code)
	})
}
