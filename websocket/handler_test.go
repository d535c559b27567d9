package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aukilabs/boxscan/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func requireDisconnected(t *testing.T, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(time.Second * 5))

	for {
		var b []byte
		if err := websocket.Message.Receive(conn, &b); err != nil {
			require.NotContains(t, err.Error(), "timeout")
			return
		}
	}
}

func TestHandleIdleTimeout(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	newHandler := func() Handler {
		return &RealtimeHandler{
			ClientSyncClockInterval: time.Hour,
			ClientIdleTimeout:       time.Millisecond * 50,
			FrameDuration:           time.Millisecond * 50,
			Sessions:                sessions,
		}
	}

	clientA, _, close := NewTestingEnv(t, newHandler)
	defer close()

	joinSession(t, clientA, 1, "")
	requireDisconnected(t, clientA)

	require.Eventually(t, func() bool {
		return sessions.Count() == 0
	}, time.Second*5, time.Millisecond*10)
}

func TestHandleMalformedMessage(t *testing.T) {
	tests := []struct {
		scenario string
		payload  string
	}{
		{
			scenario: "not json",
			payload:  "hello",
		},
		{
			scenario: "message without type",
			payload:  `{"request_id":1}`,
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			sessions := &models.SessionStore{ServerID: "ted"}
			clientA, _, close := NewTestingEnv(t, newTestHandler(sessions, nil))
			defer close()

			err := websocket.Message.Send(clientA, test.payload)
			require.NoError(t, err)
			requireDisconnected(t, clientA)
		})
	}
}

func TestHandleContextCanceled(t *testing.T) {
	sessions := &models.SessionStore{ServerID: "ted"}
	handler := &RealtimeHandler{
		ClientSyncClockInterval: time.Hour,
		ClientIdleTimeout:       time.Hour,
		FrameDuration:           time.Millisecond * 50,
		Sessions:                sessions,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	server := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		Handle(ctx, conn, handler)
		close(done)
	}))
	defer server.Close()

	conn, err := websocket.Dial(strings.ReplaceAll(server.URL, "http://", "ws://"), "", "http://localhost")
	require.NoError(t, err)
	defer conn.Close()

	joinSession(t, conn, 1, "")
	require.Equal(t, 1, sessions.Count())

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("handler did not return")
	}
	require.Nil(t, handler.CurrentParticipant())
	require.Zero(t, sessions.Count())
}
