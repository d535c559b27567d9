package models

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/stretchr/testify/require"
)

func TestSessionNewParticipantID(t *testing.T) {
	session := NewSession(42, time.Second)
	require.NotZero(t, session.NewParticipantID())
}

func TestSessionAddParticipant(t *testing.T) {
	participant := &Participant{ID: 777}
	session := NewSession(42, time.Second)

	session.AddParticipant(participant)
	require.Len(t, session.participants, 1)
	require.Equal(t, participant, session.participants[777])
	require.Equal(t, 1, session.ParticipantCount())
}

func TestSessionRemoveParticipant(t *testing.T) {
	session := NewSession(42, time.Second)
	participant := &Participant{ID: session.NewParticipantID()}

	session.AddParticipant(participant)
	require.Len(t, session.participants, 1)

	session.RemoveParticipant(participant)
	require.Empty(t, session.participants)
	require.Equal(t, participant.ID, session.NewParticipantID())

	t.Run("removing twice is a no-op", func(t *testing.T) {
		session.RemoveParticipant(participant)
		require.Zero(t, session.ParticipantCount())
	})
}

func TestSessionParticipants(t *testing.T) {
	participant := &Participant{ID: 777}
	session := NewSession(42, time.Second)
	session.AddParticipant(participant)

	t.Run("get participants", func(t *testing.T) {
		participants := session.GetParticipants()
		require.Len(t, participants, 1)
		require.Equal(t, participant, participants[0])
	})

	t.Run("participant by id", func(t *testing.T) {
		p, ok := session.ParticipantByID(777)
		require.True(t, ok)
		require.Equal(t, participant, p)

		p, ok = session.ParticipantByID(1)
		require.False(t, ok)
		require.Nil(t, p)
	})
}

func TestSessionModuleState(t *testing.T) {
	t.Run("module state is found", func(t *testing.T) {
		s := NewSession(42, time.Second)

		stateA := 42
		s.SetModuleState("testModule", stateA)

		stateB, ok := s.ModuleState("testModule")
		require.True(t, ok)
		require.Equal(t, stateA, stateB)
	})

	t.Run("module state is not found", func(t *testing.T) {
		s := NewSession(42, time.Second)

		state, ok := s.ModuleState("testModule")
		require.False(t, ok)
		require.Nil(t, state)
	})

	t.Run("module state is created once", func(t *testing.T) {
		s := NewSession(42, time.Second)

		var calls int
		newState := func() any {
			calls++
			return calls
		}

		require.Equal(t, 1, s.LoadOrStoreModuleState("testModule", newState))
		require.Equal(t, 1, s.LoadOrStoreModuleState("testModule", newState))
		require.Equal(t, 1, calls)
	})
}

func TestSessionBroadcast(t *testing.T) {
	var mutex sync.Mutex
	received := make(map[uint32][]messages.Msg)

	newParticipant := func(id uint32) *Participant {
		return &Participant{
			ID: id,
			Responder: testResponseSender{
				sendMsg: func(msg messages.Msg) {
					mutex.Lock()
					defer mutex.Unlock()
					received[id] = append(received[id], msg)
				},
			},
		}
	}

	participantA := newParticipant(1)
	participantB := newParticipant(2)

	session := NewSession(42, time.Second)
	session.AddParticipant(participantA)
	session.AddParticipant(participantB)

	t.Run("msg from participant A is broadcasted to participant B", func(t *testing.T) {
		session.Broadcast(participantA, messages.MsgTypeParticipantJoinBroadcast, participantA.Broadcast())
		require.Empty(t, received[1])
		require.Len(t, received[2], 1)

		var data messages.ParticipantBroadcast
		require.NoError(t, received[2][0].DataTo(&data))
		require.Equal(t, uint32(1), data.ParticipantID)
	})

	t.Run("msg without sender is broadcasted to everyone", func(t *testing.T) {
		session.Broadcast(nil, messages.MsgTypeScanPercentageChanged, messages.ScanPercentageChanged{Percentage: 20})
		require.Len(t, received[1], 1)
		require.Len(t, received[2], 2)
		require.Equal(t, messages.MsgTypeScanPercentageChanged, received[1][0].Type)
	})

	t.Run("unencodable msg is dropped", func(t *testing.T) {
		session.Broadcast(nil, messages.MsgTypeScanSnapshot, func() {})
		require.Len(t, received[1], 1)
		require.Len(t, received[2], 2)
	})
}

func TestSessionStoreNewID(t *testing.T) {
	sessions := SessionStore{}
	require.NotZero(t, sessions.NewID())
}

func TestSessionStoreAdd(t *testing.T) {
	t.Run("session is successfully added", func(t *testing.T) {
		var sessions SessionStore

		session := NewSession(42, time.Second)

		err := sessions.Add(context.Background(), session)
		require.NoError(t, err)
		require.Equal(t, session, sessions.sessions[sessions.GlobalSessionID(session.ID)])
		require.Equal(t, 1, sessions.Count())
	})
}

func TestSessionStoreRemove(t *testing.T) {
	t.Run("session is successfully removed", func(t *testing.T) {
		var sessions SessionStore

		ctx := context.Background()

		session := NewSession(42, time.Second)
		err := sessions.Add(ctx, session)
		require.NoError(t, err)
		require.Len(t, sessions.sessions, 1)

		sessions.Remove(ctx, session)
		require.Empty(t, sessions.sessions)

		sessions.Remove(ctx, session)
		require.Zero(t, sessions.Count())
	})

	t.Run("session id is reused", func(t *testing.T) {
		var sessions SessionStore

		ctx := context.Background()

		sessionID := sessions.NewID()
		session := NewSession(sessionID, time.Second)
		err := sessions.Add(ctx, session)
		require.NoError(t, err)
		require.Len(t, sessions.sessions, 1)

		sessions.Remove(ctx, session)
		require.Empty(t, sessions.sessions)

		nextSessionID := sessions.NewID()
		require.Equal(t, sessionID, nextSessionID)
	})
}

func TestSessionStoreGetByGlobalID(t *testing.T) {
	var sessions SessionStore
	ctx := context.Background()

	t.Run("session is retrieved", func(t *testing.T) {
		session := NewSession(42, time.Second)
		err := sessions.Add(ctx, session)
		require.NoError(t, err)

		res, ok := sessions.GetByGlobalID(sessions.GlobalSessionID(session.ID))
		require.True(t, ok)
		require.Equal(t, session, res)
	})

	t.Run("session is not retrieved", func(t *testing.T) {
		session := &Session{ID: 84}
		res, ok := sessions.GetByGlobalID(sessions.GlobalSessionID(session.ID))
		require.False(t, ok)
		require.Nil(t, res)
	})
}

func TestSessionStoreGlobalSessionID(t *testing.T) {
	t.Run("default server id", func(t *testing.T) {
		var sessions SessionStore
		require.Equal(t, "boxscanx2a", sessions.GlobalSessionID(42))
	})

	t.Run("custom server id", func(t *testing.T) {
		sessions := SessionStore{ServerID: "ted"}
		require.Equal(t, "tedx1", sessions.GlobalSessionID(1))
	})
}

func TestSessionHandleFrame(t *testing.T) {
	session := NewSession(42, time.Millisecond*5)

	cancel := session.HandleFrame(func() {})
	require.Len(t, session.frameHandlers, 1)
	defer cancel()

	cancel()
	require.Empty(t, session.frameHandlers)
}

func TestSessionStartDispatchFrame(t *testing.T) {
	session := NewSession(42, time.Millisecond*5)
	defer session.Close()

	var once sync.Once
	dispatched := make(chan struct{})

	go session.StartDispatchFrames()

	session.HandleFrame(func() {
		once.Do(func() {
			close(dispatched)
		})
	})

	select {
	case <-dispatched:
	case <-time.After(time.Second):
		t.Fatal("frame was not dispatched")
	}
}

type testResponseSender struct {
	send    func(messages.MsgType, uint32, any)
	sendMsg func(messages.Msg)
}

func (r testResponseSender) Send(t messages.MsgType, requestID uint32, data any) {
	if r.send != nil {
		r.send(t, requestID, data)
	}
}

func (r testResponseSender) SendMsg(msg messages.Msg) {
	if r.sendMsg != nil {
		r.sendMsg(msg)
	}
}
