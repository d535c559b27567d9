package websocket

import (
	"testing"
	"time"

	"github.com/aukilabs/boxscan/featureflag"
	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/boxscan/modules"
	"github.com/aukilabs/boxscan/modules/boxscan"
	"github.com/aukilabs/boxscan/modules/testrun"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newBoxScanModule() modules.Module {
	return &boxscan.Module{
		FeatureFlags: featureflag.New([]string{string(featureflag.FlagDisableScanSnapshot)}),
	}
}

func newTestRunModule() modules.Module {
	return &testrun.Module{NoDetectionTimeout: time.Minute}
}

func joinSession(t *testing.T, conn *websocket.Conn, requestID uint32, sessionID string) messages.SessionJoinResponse {
	SendTestMsg(t, conn, messages.MsgTypeSessionJoinRequest, requestID, messages.SessionJoinRequest{
		SessionID: sessionID,
	})

	var res messages.SessionJoinResponse
	msg := ReceiveTestMsg(t, conn, messages.MsgTypeSessionJoinResponse)
	require.Equal(t, requestID, msg.RequestID)
	require.NoError(t, msg.DataTo(&res))
	return res
}

func receiveError(t *testing.T, conn *websocket.Conn) messages.ErrorResponse {
	var res messages.ErrorResponse
	msg := ReceiveTestMsg(t, conn, messages.MsgTypeErrorResponse)
	require.NoError(t, msg.DataTo(&res))
	return res
}

func receiveResponse(t *testing.T, conn *websocket.Conn, msgType messages.MsgType, requestID uint32) messages.Msg {
	for {
		msg := ReceiveTestMsg(t, conn, msgType)
		if msg.RequestID == requestID {
			return msg
		}
	}
}

func TestRealtimeHandlerSyncClock(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	clientA, _, close := NewTestingEnv(t, newTestHandler(sessions, nil))
	defer close()

	msg := ReceiveTestMsg(t, clientA, messages.MsgTypeSyncClock)
	require.False(t, msg.Timestamp.IsZero())
}

func TestRealtimeHandlerPing(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	clientA, _, close := NewTestingEnv(t, newTestHandler(sessions, nil, newBoxScanModule))
	defer close()

	t.Run("before joining a session", func(t *testing.T) {
		SendTestMsg(t, clientA, messages.MsgTypePingRequest, 7, nil)
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypePingResponse)
		require.Equal(t, uint32(7), msg.RequestID)
	})

	t.Run("after joining a session", func(t *testing.T) {
		joinSession(t, clientA, 8, "")

		SendTestMsg(t, clientA, messages.MsgTypePingRequest, 9, nil)
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypePingResponse)
		require.Equal(t, uint32(9), msg.RequestID)
	})
}

func TestRealtimeHandlerSessionJoin(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(sessions, nil, newBoxScanModule))
	defer close()

	var sessionID string

	t.Run("create a session", func(t *testing.T) {
		res := joinSession(t, clientA, 1, "")
		require.NotEmpty(t, res.SessionID)
		require.NotEmpty(t, res.SessionUUID)
		require.Equal(t, uint32(1), res.ParticipantID)
		require.Equal(t, 1, sessions.Count())
		sessionID = res.SessionID

		var snapshot messages.ScanSnapshot
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypeScanSnapshot)
		require.NoError(t, msg.DataTo(&snapshot))
		require.Equal(t, scan.StateReady, snapshot.State)
		require.Nil(t, snapshot.Box)
	})

	t.Run("join an existing session", func(t *testing.T) {
		res := joinSession(t, clientB, 2, sessionID)
		require.Equal(t, sessionID, res.SessionID)
		require.Equal(t, uint32(2), res.ParticipantID)
		require.Equal(t, 1, sessions.Count())

		var broadcast messages.ParticipantBroadcast
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypeParticipantJoinBroadcast)
		require.NoError(t, msg.DataTo(&broadcast))
		require.Equal(t, uint32(2), broadcast.ParticipantID)
	})

	t.Run("join an already joined session", func(t *testing.T) {
		SendTestMsg(t, clientB, messages.MsgTypeSessionJoinRequest, 3, messages.SessionJoinRequest{
			SessionID: sessionID,
		})

		res := receiveError(t, clientB)
		require.Equal(t, messages.ErrorCodeSessionAlreadyJoined, res.Code)
	})

	t.Run("join a session that does not exist", func(t *testing.T) {
		SendTestMsg(t, clientB, messages.MsgTypeSessionJoinRequest, 4, messages.SessionJoinRequest{
			SessionID: "tedx42",
		})

		res := receiveError(t, clientB)
		require.Equal(t, messages.ErrorCodeNotFound, res.Code)

		var broadcast messages.ParticipantBroadcast
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypeParticipantLeaveBroadcast)
		require.NoError(t, msg.DataTo(&broadcast))
		require.Equal(t, uint32(2), broadcast.ParticipantID)
	})

	t.Run("join with an invalid payload", func(t *testing.T) {
		SendTestMsg(t, clientB, messages.MsgTypeSessionJoinRequest, 5, "tedx1")

		res := receiveError(t, clientB)
		require.Equal(t, messages.ErrorCodeBadRequest, res.Code)
	})
}

func TestRealtimeHandlerBroadcastFlags(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	flags := []string{
		string(featureflag.FlagDisableParticipantJoinBroadcast),
	}
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(sessions, flags))
	defer close()

	res := joinSession(t, clientA, 1, "")
	joinSession(t, clientB, 1, res.SessionID)

	// The leave broadcast is still sent and is the first participant message
	// clientA receives.
	clientB.Close()

	deadline := time.Now().Add(time.Second * 5)
	clientA.SetReadDeadline(deadline)
	for {
		msg, _, err := messages.Receive(clientA)
		require.NoError(t, err)
		require.NotEqual(t, messages.MsgTypeParticipantJoinBroadcast, msg.Type)

		if msg.Type == messages.MsgTypeParticipantLeaveBroadcast {
			break
		}
	}
}

func TestRealtimeHandlerModules(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(sessions, nil, newBoxScanModule, newTestRunModule))
	defer close()

	res := joinSession(t, clientA, 1, "")
	joinSession(t, clientB, 1, res.SessionID)

	t.Run("box placement is broadcasted", func(t *testing.T) {
		SendTestMsg(t, clientA, messages.MsgTypeBoxPlaceRequest, 2, messages.BoxPlaceRequest{
			Pose: messages.Pose{
				Position:    mgl64.Vec3{0, 0, -1},
				Orientation: [4]float64{0, 0, 0, 1},
			},
		})

		for _, conn := range []*websocket.Conn{clientA, clientB} {
			var placed messages.BoxPlaced
			msg := ReceiveTestMsg(t, conn, messages.MsgTypeBoxPlaced)
			require.NoError(t, msg.DataTo(&placed))
			require.InDelta(t, -1, placed.Pose.Position[2], 1e-9)
		}
	})

	t.Run("snapshot request", func(t *testing.T) {
		SendTestMsg(t, clientB, messages.MsgTypeSnapshotRequest, 3, nil)

		var snapshot messages.ScanSnapshot
		msg := receiveResponse(t, clientB, messages.MsgTypeScanSnapshot, 3)
		require.NoError(t, msg.DataTo(&snapshot))
		require.NotNil(t, snapshot.Box)
		require.Len(t, snapshot.Box.Sides, 6)
	})

	t.Run("test run is routed to the test run module", func(t *testing.T) {
		SendTestMsg(t, clientA, messages.MsgTypeTestRunRequest, 4, messages.TestRunRequest{
			Action: messages.TestRunStart,
		})

		var stats messages.TestRunStatistics
		msg := ReceiveTestMsg(t, clientA, messages.MsgTypeTestRunStatistics)
		require.NoError(t, msg.DataTo(&stats))
		require.Equal(t, uint32(4), msg.RequestID)
		require.Zero(t, stats.Detections)
	})

	t.Run("invalid payload keeps the connection open", func(t *testing.T) {
		SendTestMsg(t, clientA, messages.MsgTypeGesture, 5, "drag")

		res := receiveError(t, clientA)
		require.Equal(t, messages.ErrorCodeBadRequest, res.Code)

		SendTestMsg(t, clientA, messages.MsgTypePingRequest, 6, nil)
		ReceiveTestMsg(t, clientA, messages.MsgTypePingResponse)
	})
}

func TestRealtimeHandlerDisconnect(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	newHandler := newTestHandler(sessions, nil, newBoxScanModule)

	clientA, clientB, close := NewTestingEnv(t, newHandler)
	defer close()

	res := joinSession(t, clientA, 1, "")
	joinSession(t, clientB, 1, res.SessionID)
	require.Equal(t, 1, sessions.Count())

	clientA.Close()
	clientB.Close()

	require.Eventually(t, func() bool {
		return sessions.Count() == 0
	}, time.Second*5, time.Millisecond*10)

	clientC, _, closeC := NewTestingEnv(t, newHandler)
	defer closeC()

	SendTestMsg(t, clientC, messages.MsgTypeSessionJoinRequest, 1, messages.SessionJoinRequest{
		SessionID: res.SessionID,
	})
	errRes := receiveError(t, clientC)
	require.Equal(t, messages.ErrorCodeNotFound, errRes.Code)
}
