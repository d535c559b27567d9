package messages

import (
	"time"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Pose is the wire form of a position and an orientation quaternion given as
// x, y, z, w.
type Pose struct {
	Position    mgl64.Vec3 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
}

// PoseFrom converts a geometry pose to its wire form.
func PoseFrom(p geometry.Pose) Pose {
	q := p.Orientation
	return Pose{
		Position:    p.Position,
		Orientation: [4]float64{q.X(), q.Y(), q.Z(), q.W},
	}
}

// ToGeometry converts the pose. A zero orientation is read as no rotation.
func (p Pose) ToGeometry() geometry.Pose {
	o := p.Orientation
	q := mgl64.Quat{W: o[3], V: mgl64.Vec3{o[0], o[1], o[2]}}
	if q.Len() == 0 {
		return geometry.PoseAt(p.Position)
	}
	return geometry.NewPose(p.Position, q.Normalize())
}

type Camera struct {
	Pose   Pose    `json:"pose"`
	FovY   float64 `json:"fov_y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

func (c Camera) ToGeometry() geometry.Camera {
	return geometry.Camera{
		Pose:   c.Pose.ToGeometry(),
		FovY:   c.FovY,
		Width:  c.Width,
		Height: c.Height,
	}
}

type PlaneAnchor struct {
	ID        string     `json:"id"`
	Pose      Pose       `json:"pose"`
	Center    mgl64.Vec3 `json:"center"`
	Extent    mgl64.Vec3 `json:"extent"`
	Alignment string     `json:"alignment"`
}

const (
	PlaneAlignmentHorizontal = "horizontal"
	PlaneAlignmentVertical   = "vertical"
)

func (a PlaneAnchor) ToScan() scan.PlaneAnchor {
	alignment := scan.PlaneHorizontal
	if a.Alignment == PlaneAlignmentVertical {
		alignment = scan.PlaneVertical
	}

	return scan.PlaneAnchor{
		ID:        a.ID,
		Transform: a.Pose.ToGeometry(),
		Center:    a.Center,
		Extent:    a.Extent,
		Alignment: alignment,
	}
}

// Frame is the tracking data of a camera frame.
type Frame struct {
	Camera          *Camera       `json:"camera,omitempty"`
	PointCloud      []r3.Vector   `json:"point_cloud,omitempty"`
	FocusPoint      *mgl64.Vec3   `json:"focus_point,omitempty"`
	Anchors         []PlaneAnchor `json:"anchors,omitempty"`
	ReferencePoints []r3.Vector   `json:"reference_points,omitempty"`
}

// ToScan converts the frame into the engine input.
func (f Frame) ToScan() scan.Frame {
	frame := scan.Frame{
		PointCloud:      f.PointCloud,
		FocusPoint:      f.FocusPoint,
		ReferencePoints: f.ReferencePoints,
	}

	if f.Camera != nil {
		c := f.Camera.ToGeometry()
		frame.Camera = &c
	}

	if len(f.Anchors) != 0 {
		frame.Anchors = make([]scan.PlaneAnchor, len(f.Anchors))
		for i, a := range f.Anchors {
			frame.Anchors[i] = a.ToScan()
		}
	}
	return frame
}

type SessionJoinRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type SessionJoinResponse struct {
	SessionID     string `json:"session_id"`
	SessionUUID   string `json:"session_uuid"`
	ParticipantID uint32 `json:"participant_id"`
}

type ParticipantBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

type ScanStateRequest struct {
	State scan.State `json:"state"`
}

type ScanStateChanged struct {
	State scan.State `json:"state"`
}

type BoxPlaceRequest struct {
	Pose Pose `json:"pose"`
}

type BoxPlaced struct {
	Pose   Pose       `json:"pose"`
	Extent mgl64.Vec3 `json:"extent"`
}

// GesturePhase is the step of a drag gesture.
type GesturePhase string

const (
	GestureBegin GesturePhase = "begin"
	GestureMove  GesturePhase = "move"
	GestureEnd   GesturePhase = "end"
)

type Gesture struct {
	Kind  scan.DragKind        `json:"kind"`
	Phase GesturePhase         `json:"phase"`
	Point geometry.ScreenPoint `json:"point"`
}

type GestureResponse struct {
	Started bool `json:"started"`
}

// OriginAction is an operation on the object origin.
type OriginAction string

const (
	OriginMove       OriginAction = "move"
	OriginSnapSide   OriginAction = "snap_side"
	OriginSnapCenter OriginAction = "snap_center"
	OriginRotate     OriginAction = "rotate"
)

type OriginRequest struct {
	Action   OriginAction `json:"action"`
	Position mgl64.Vec3   `json:"position"`
	Angle    float64      `json:"angle,omitempty"`
}

type BoxQueryRequest struct {
	Point  *mgl64.Vec3           `json:"point,omitempty"`
	Screen *geometry.ScreenPoint `json:"screen,omitempty"`
}

type BoxQueryResponse struct {
	Contains bool   `json:"contains"`
	IsHit    bool   `json:"is_hit"`
	Side     string `json:"side,omitempty"`
}

type ExtentChanged struct {
	Extent mgl64.Vec3 `json:"extent"`
}

type PositionChanged struct {
	Position mgl64.Vec3 `json:"position"`
}

type ScanPercentageChanged struct {
	Percentage int `json:"percentage"`
}

type HapticFeedback struct {
	Reason scan.HapticReason `json:"reason"`
}

type TileSnapshot struct {
	Captured    bool    `json:"captured"`
	Highlighted bool    `json:"highlighted"`
	Opacity     float64 `json:"opacity"`
}

type SideSnapshot struct {
	Position   scan.SidePosition `json:"position"`
	Hidden     bool              `json:"hidden"`
	Hints      scan.AxisHints    `json:"hints"`
	Completion float64           `json:"completion"`
	Tiles      []TileSnapshot    `json:"tiles"`
}

type BoxSnapshot struct {
	Pose           Pose            `json:"pose"`
	Extent         mgl64.Vec3      `json:"extent"`
	Progress       int             `json:"progress"`
	AdjustedByUser bool            `json:"adjusted_by_user"`
	SnappedToPlane bool            `json:"snapped_to_plane"`
	Sides          []SideSnapshot  `json:"sides"`
	Edges          [][2]mgl64.Vec3 `json:"edges"`
}

type OriginSnapshot struct {
	Pose                Pose    `json:"pose"`
	Yaw                 float64 `json:"yaw"`
	SnappedToSide       bool    `json:"snapped_to_side"`
	SnappedToCenter     bool    `json:"snapped_to_center"`
	SnappedToRightAngle bool    `json:"snapped_to_right_angle"`
}

// ScanSnapshot is the complete state of a scan, sent to clients that need
// to render it.
type ScanSnapshot struct {
	State      scan.State      `json:"state"`
	Box        *BoxSnapshot    `json:"box,omitempty"`
	Origin     *OriginSnapshot `json:"origin,omitempty"`
	PointCount int             `json:"point_count"`
}

// TestRunAction starts or stops a detection test run.
type TestRunAction string

const (
	TestRunStart TestRunAction = "start"
	TestRunStop  TestRunAction = "stop"
)

type TestRunRequest struct {
	Action TestRunAction `json:"action"`

	// Milliseconds without detection before a no detection message is sent.
	NoDetectionTimeout int64 `json:"no_detection_timeout,omitempty"`
}

type TestRunStatistics struct {
	Detections            int    `json:"detections"`
	LastDetectionDelay    int64  `json:"last_detection_delay_ms"`
	AverageDetectionDelay int64  `json:"average_detection_delay_ms"`
	ResultDisplayDuration int64  `json:"result_display_duration_ms"`
	Summary               string `json:"summary"`
}

// TestRunStatisticsFrom converts test run statistics to their wire form.
func TestRunStatisticsFrom(s scan.TestRunStatistics) TestRunStatistics {
	return TestRunStatistics{
		Detections:            s.Detections,
		LastDetectionDelay:    s.LastDetectionDelay.Milliseconds(),
		AverageDetectionDelay: s.AverageDetectionDelay.Milliseconds(),
		ResultDisplayDuration: s.ResultDisplayDuration.Milliseconds(),
		Summary:               s.String(),
	}
}

// Milliseconds converts a millisecond count to a duration.
func Milliseconds(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
