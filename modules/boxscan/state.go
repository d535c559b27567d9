package boxscan

import (
	"sync"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/models"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
)

// State is the scan shared by the participants of a session. Every change of
// the scan is broadcast to the whole session.
type State struct {
	mutex   sync.Mutex
	scan    *scan.Scan
	session *models.Session

	dirty            bool
	snapshotDisabled bool

	// Notifications raised while the mutex is held. They are broadcast once
	// it is released, in order, by one goroutine at a time.
	pending        []notification
	broadcastMutex sync.Mutex

	cancelBoxObservers func()
	cancelFrame        func()
}

type notification struct {
	msgType messages.MsgType
	data    any
}

func newState(session *models.Session, c scan.Config, snapshotDisabled bool) *State {
	s := &State{
		session:          session,
		snapshotDisabled: snapshotDisabled,
	}

	s.scan = scan.New(c, scan.HapticFunc(func(reason scan.HapticReason) {
		s.notify(messages.MsgTypeHapticFeedback, messages.HapticFeedback{
			Reason: reason,
		})
	}))

	s.scan.OnStateChanged(func(state scan.State) {
		s.notify(messages.MsgTypeScanStateChanged, messages.ScanStateChanged{
			State: state,
		})
	})
	s.scan.OnBoundingBoxPlaced(s.handleBoxPlaced)
	s.scan.OnBoundingBoxRemoved(s.handleBoxRemoved)

	if !snapshotDisabled {
		s.cancelFrame = session.HandleFrame(s.flushSnapshot)
	}
	return s
}

func (s *State) handleBoxPlaced(box *scan.BoundingBox) {
	if s.cancelBoxObservers != nil {
		s.cancelBoxObservers()
	}

	cancels := []func(){
		box.OnExtentChanged(func(v mgl64.Vec3) {
			s.notify(messages.MsgTypeExtentChanged, messages.ExtentChanged{
				Extent: v,
			})
		}),
		box.OnPositionChanged(func(v mgl64.Vec3) {
			s.notify(messages.MsgTypePositionChanged, messages.PositionChanged{
				Position: v,
			})
		}),
		box.OnScanPercentageChanged(func(v int) {
			s.notify(messages.MsgTypeScanPercentageChanged, messages.ScanPercentageChanged{
				Percentage: v,
			})
		}),
	}
	s.cancelBoxObservers = func() {
		for _, cancel := range cancels {
			cancel()
		}
	}

	s.notify(messages.MsgTypeBoxPlaced, messages.BoxPlaced{
		Pose:   messages.PoseFrom(box.Pose()),
		Extent: box.Extent(),
	})
}

func (s *State) handleBoxRemoved() {
	if s.cancelBoxObservers != nil {
		s.cancelBoxObservers()
		s.cancelBoxObservers = nil
	}
	s.notify(messages.MsgTypeBoxRemoved, nil)
}

// Do runs fn with exclusive access to the scan and marks the scan as changed.
// The changes raised by fn are broadcast after the scan is released.
func (s *State) Do(fn func(*scan.Scan)) {
	s.mutex.Lock()
	fn(s.scan)
	s.dirty = true
	s.mutex.Unlock()

	s.broadcastPending()
}

// View runs fn with exclusive access to the scan without marking it as
// changed.
func (s *State) View(fn func(*scan.Scan)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	fn(s.scan)
}

// Snapshot returns the current state of the scan.
func (s *State) Snapshot() messages.ScanSnapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return snapshot(s.scan)
}

// notify queues a broadcast. The mutex must be held.
func (s *State) notify(msgType messages.MsgType, data any) {
	s.pending = append(s.pending, notification{
		msgType: msgType,
		data:    data,
	})
}

// broadcastPending sends the queued notifications to the session. When
// another goroutine is already sending, it returns right away and the queued
// notifications are sent by that goroutine.
func (s *State) broadcastPending() {
	for s.broadcastMutex.TryLock() {
		for {
			s.mutex.Lock()
			pending := s.pending
			s.pending = nil
			s.mutex.Unlock()

			if len(pending) == 0 {
				break
			}

			for _, n := range pending {
				s.session.Broadcast(nil, n.msgType, n.data)
			}
		}
		s.broadcastMutex.Unlock()

		// Notifications queued between the last check and the unlock.
		s.mutex.Lock()
		empty := len(s.pending) == 0
		s.mutex.Unlock()

		if empty {
			return
		}
	}
}

// flushSnapshot broadcasts a snapshot when the scan changed since the last
// one.
func (s *State) flushSnapshot() {
	s.mutex.Lock()
	if !s.dirty {
		s.mutex.Unlock()
		return
	}
	s.dirty = false
	s.notify(messages.MsgTypeScanSnapshot, snapshot(s.scan))
	s.mutex.Unlock()

	s.broadcastPending()
}

// Close stops broadcasting snapshots.
func (s *State) Close() {
	if s.cancelFrame != nil {
		s.cancelFrame()
	}
}
