package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/hagall-common/logs"
	"github.com/google/uuid"
)

// Session represents a scan session that participants join to drive and watch
// the same object scan.
type Session struct {
	ID          uint32
	SessionUUID string

	AppKey string

	participantIDs   SequentialIDGenerator
	participantMutex sync.RWMutex
	participants     map[uint32]*Participant

	moduleStates map[string]any
	moduleMutex  sync.RWMutex

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs SequentialIDGenerator
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
}

func NewSession(id uint32, frameDuration time.Duration) *Session {
	return &Session{
		ID:             id,
		SessionUUID:    uuid.New().String(),
		closeFrameChan: make(chan struct{}, 1),
		frameTicker:    time.NewTicker(frameDuration),
		participants:   make(map[uint32]*Participant),
		moduleStates:   make(map[string]any),
		frameHandlers:  make(map[uint32]func()),
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.frameTicker.Stop()
		s.closeFrameChan <- struct{}{}
	})
}

func (s *Session) NewParticipantID() uint32 {
	return s.participantIDs.New()
}

func (s *Session) AddParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	if _, ok := s.participants[p.ID]; !ok {
		instrumentParticipantCount(1)
	}
	s.participants[p.ID] = p
}

func (s *Session) RemoveParticipant(p *Participant) {
	s.participantMutex.Lock()
	defer s.participantMutex.Unlock()

	if _, ok := s.participants[p.ID]; !ok {
		return
	}

	delete(s.participants, p.ID)
	s.participantIDs.Reuse(p.ID)
	instrumentParticipantCount(-1)
}

func (s *Session) GetParticipants() []*Participant {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	participants := make([]*Participant, 0, len(s.participants))
	for _, p := range s.participants {
		participants = append(participants, p)
	}
	return participants
}

func (s *Session) ParticipantByID(id uint32) (*Participant, bool) {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	p, ok := s.participants[id]
	return p, ok
}

func (s *Session) ParticipantCount() int {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	return len(s.participants)
}

// Broadcast sends a message to every participant but the sender. A nil sender
// sends the message to all the participants.
func (s *Session) Broadcast(sender *Participant, t messages.MsgType, data any) {
	msg, err := messages.NewMsg(t, 0, data)
	if err != nil {
		logs.WithTag("session_uuid", s.SessionUUID).
			WithTag("msg_type", t).
			Debug(err)
		return
	}
	s.BroadcastMsg(sender, msg)
}

// BroadcastMsg sends a ready to go message to every participant but the
// sender.
func (s *Session) BroadcastMsg(sender *Participant, msg messages.Msg) {
	s.participantMutex.RLock()
	defer s.participantMutex.RUnlock()

	for _, p := range s.participants {
		if p == sender {
			continue
		}
		p.Responder.SendMsg(msg)
	}
}

func (s *Session) SetModuleState(moduleName string, state any) {
	s.moduleMutex.Lock()
	defer s.moduleMutex.Unlock()

	s.moduleStates[moduleName] = state
}

func (s *Session) ModuleState(moduleName string) (any, bool) {
	s.moduleMutex.RLock()
	defer s.moduleMutex.RUnlock()

	state, ok := s.moduleStates[moduleName]
	return state, ok
}

// LoadOrStoreModuleState returns the state of the given module, creating it
// with newState when the module has none yet.
func (s *Session) LoadOrStoreModuleState(moduleName string, newState func() any) any {
	s.moduleMutex.Lock()
	defer s.moduleMutex.Unlock()

	if state, ok := s.moduleStates[moduleName]; ok {
		return state
	}

	state := newState()
	s.moduleStates[moduleName] = state
	return state
}

// HandleFrame registers a function called on every session frame.
func (s *Session) HandleFrame(h func()) (cancel func()) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	id := s.frameHandlerIDs.New()
	s.frameHandlers[id] = h

	return func() {
		s.frameMutex.Lock()
		defer s.frameMutex.Unlock()

		delete(s.frameHandlers, id)
		s.frameHandlerIDs.Reuse(id)
	}
}

// StartDispatchFrames calls the frame handlers at each frame until the session
// is closed. Only the first call dispatches frames.
func (s *Session) StartDispatchFrames() {
	s.startFrameOnce.Do(func() {
		for {
			select {
			case <-s.closeFrameChan:
				return

			case <-s.frameTicker.C:
				s.frameMutex.RLock()
				for _, h := range s.frameHandlers {
					h()
				}
				s.frameMutex.RUnlock()
			}
		}
	})
}

// The server id used when a session store doesn't have one.
const DefaultServerID = "boxscan"

// SessionStore holds the sessions that are running on the server.
type SessionStore struct {
	// The id of the server, prefixed to the global session ids.
	ServerID string

	initOnce sync.Once
	mutex    sync.RWMutex
	sessions map[string]*Session
	ids      SequentialIDGenerator
}

func (s *SessionStore) init() {
	s.sessions = map[string]*Session{}

	if s.ServerID == "" {
		s.ServerID = DefaultServerID
	}
}

func (s *SessionStore) NewID() uint32 {
	return s.ids.New()
}

func (s *SessionStore) Add(ctx context.Context, session *Session) error {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[s.GlobalSessionID(session.ID)] = session

	instrumentIncreaseSessionGauge(session.AppKey)
	instrumentCountSession(session.AppKey)
	return nil
}

func (s *SessionStore) Remove(ctx context.Context, session *Session) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.GlobalSessionID(session.ID)
	if _, ok := s.sessions[id]; !ok {
		return
	}

	delete(s.sessions, id)
	session.Close()

	s.ids.Reuse(session.ID)

	instrumentDecreaseSessionGauge(session.AppKey)
}

func (s *SessionStore) GetByGlobalID(v string) (*Session, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[v]
	return session, ok
}

// Count returns the number of sessions.
func (s *SessionStore) Count() int {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.sessions)
}

// GlobalSessionID returns the id that clients use to join a session.
func (s *SessionStore) GlobalSessionID(sessionID uint32) string {
	s.initOnce.Do(s.init)
	return fmt.Sprintf("%sx%x", s.ServerID, sessionID)
}
