package scan

import (
	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Scan drives the scanning of an object: it owns the lifecycle state, the
// bounding box, the scanned point cloud and the object origin, and feeds them
// with the frames reported by the tracking session.
//
// A Scan is not safe for concurrent use.
type Scan struct {
	config  Config
	haptics HapticFeedback

	state       State
	boundingBox *BoundingBox
	origin      *ObjectOrigin
	pointCloud  ScannedPointCloud
	lastFrame   Frame

	stateChanged       observers[State]
	boundingBoxPlaced  observers[*BoundingBox]
	boundingBoxRemoved observers[struct{}]
}

// New creates a scan in the ready state.
func New(c Config, h HapticFeedback) *Scan {
	return &Scan{
		config:  c.normalized(),
		haptics: h,
		state:   StateReady,
	}
}

// Config returns the scan configuration.
func (s *Scan) Config() Config {
	return s.config
}

// State returns the current state.
func (s *Scan) State() State {
	return s.state
}

// SetState moves the scan to the given state. Setting the current state is a
// no-op.
func (s *Scan) SetState(state State) error {
	if state == s.state {
		return nil
	}

	if !canTransition(s.state, state) {
		return errors.New("invalid scan state transition").
			WithType(ErrTypeInvalidStateTransition).
			WithTag("from", s.state).
			WithTag("to", state)
	}

	if state == StateDefineBoundingBox && s.boundingBox == nil {
		return errors.New("defining a bounding box requires a placed bounding box").
			WithType(ErrTypeBoundingBoxMissing).
			WithTag("from", s.state)
	}

	previous := s.state
	s.state = state

	if s.boundingBox != nil {
		s.boundingBox.SetState(state)
	}
	s.pointCloud.SetState(state)

	instrumentStateTransition(previous, state)
	logs.WithTag("from", previous).
		WithTag("to", state).
		Debug("scan state changed")

	s.stateChanged.notify(state)
	return nil
}

// OnStateChanged registers a function called each time the state changes.
func (s *Scan) OnStateChanged(fn func(State)) (cancel func()) {
	return s.stateChanged.add(fn)
}

// OnBoundingBoxPlaced registers a function called each time a new bounding box
// is placed.
func (s *Scan) OnBoundingBoxPlaced(fn func(*BoundingBox)) (cancel func()) {
	return s.boundingBoxPlaced.add(fn)
}

// OnBoundingBoxRemoved registers a function called when the bounding box is
// discarded.
func (s *Scan) OnBoundingBoxRemoved(fn func()) (cancel func()) {
	return s.boundingBoxRemoved.add(func(struct{}) { fn() })
}

// PlaceBoundingBox replaces the bounding box with a new one at the given pose.
func (s *Scan) PlaceBoundingBox(pose geometry.Pose) *BoundingBox {
	box := NewBoundingBox(pose, s.config, s.haptics)
	box.SetState(s.state)

	s.boundingBox = box
	s.origin = NewObjectOrigin(box, s.config, s.haptics)
	s.pointCloud.Reset()

	logs.WithTag("position", pose.Position).Debug("bounding box placed")
	s.boundingBoxPlaced.notify(box)
	return box
}

// BoundingBox returns the current bounding box, nil when none is placed.
func (s *Scan) BoundingBox() *BoundingBox {
	return s.boundingBox
}

// Origin returns the object origin, nil when no box is placed.
func (s *Scan) Origin() *ObjectOrigin {
	return s.origin
}

// PointCloud returns the scanned point cloud.
func (s *Scan) PointCloud() *ScannedPointCloud {
	return &s.pointCloud
}

// Camera returns the camera of the last frame.
func (s *Scan) Camera() *geometry.Camera {
	return s.lastFrame.Camera
}

// LastFrame returns the last frame given to UpdateOnEveryFrame.
func (s *Scan) LastFrame() Frame {
	return s.lastFrame
}

// Discard drops the bounding box, the origin and the scanned points and goes
// back to the ready state.
func (s *Scan) Discard() {
	hadBox := s.boundingBox != nil

	s.boundingBox = nil
	s.origin = nil
	s.pointCloud.Reset()

	if s.state != StateReady {
		// Every state can go back to ready.
		_ = s.SetState(StateReady)
	}

	if hadBox {
		logs.WithTag("state", s.state).Debug("scan discarded")
		s.boundingBoxRemoved.notify(struct{}{})
	}
}

// UpdateOnEveryFrame feeds a frame to the bounding box and the scanned point
// cloud.
func (s *Scan) UpdateOnEveryFrame(frame Frame) {
	s.lastFrame = frame

	box := s.boundingBox
	if box == nil {
		return
	}

	switch s.state {
	case StateReady, StateDefineBoundingBox:
		if !box.HasBeenAdjustedByUser && len(frame.PointCloud) != 0 {
			box.FitOverPointCloud(geometry.FromR3Points(frame.PointCloud), frame.FocusPoint)
		}

	case StateScanning:
		// Tiles resized since the last frame are hit tested at their new
		// layout.
		box.updateTilesIfNeeded()

		if !s.config.DisableTileHighlight {
			box.HighlightCurrentTile(frame.Camera)
		}
		box.UpdateCapturingProgress(frame.Camera)
	}

	box.UpdateOnEveryFrame(frame.Anchors)

	if frame.ReferencePoints != nil {
		s.pointCloud.Update(geometry.FromR3Points(frame.ReferencePoints), box)
	}
	s.pointCloud.UpdateOnEveryFrame(box)
}

func (s *Scan) camera() (geometry.Camera, bool) {
	if s.boundingBox == nil || s.lastFrame.Camera == nil {
		return geometry.Camera{}, false
	}
	return *s.lastFrame.Camera, true
}

// StartDrag starts a drag of the given kind at a screen point, using the
// camera of the last frame. It returns whether the drag started.
func (s *Scan) StartDrag(kind DragKind, p geometry.ScreenPoint) bool {
	camera, ok := s.camera()
	if !ok {
		return false
	}

	switch kind {
	case SideDrag:
		return s.boundingBox.StartSideDrag(camera, p)
	case SidePlaneDrag:
		return s.boundingBox.StartSidePlaneDrag(camera, p)
	case GroundPlaneDrag:
		s.boundingBox.StartGroundPlaneDrag(camera, p)
		return true
	default:
		return false
	}
}

// UpdateDrag updates the drag of the given kind.
func (s *Scan) UpdateDrag(kind DragKind, p geometry.ScreenPoint) {
	camera, ok := s.camera()
	if !ok {
		return
	}

	switch kind {
	case SideDrag:
		s.boundingBox.UpdateSideDrag(camera, p)
	case SidePlaneDrag:
		s.boundingBox.UpdateSidePlaneDrag(camera, p, s.lastFrame.Anchors)
	case GroundPlaneDrag:
		s.boundingBox.UpdateGroundPlaneDrag(camera, p, s.lastFrame.Anchors)
	}
}

// EndDrag ends the drag of the given kind.
func (s *Scan) EndDrag(kind DragKind) {
	if s.boundingBox == nil {
		return
	}

	switch kind {
	case SideDrag:
		s.boundingBox.EndSideDrag()
	case SidePlaneDrag:
		s.boundingBox.EndSidePlaneDrag()
	case GroundPlaneDrag:
		s.boundingBox.EndGroundPlaneDrag()
	}
}

// IsHit reports whether a screen point is over the bounding box.
func (s *Scan) IsHit(p geometry.ScreenPoint) bool {
	camera, ok := s.camera()
	if !ok {
		return false
	}
	return s.boundingBox.IsHit(camera, p)
}
