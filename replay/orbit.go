package replay

import (
	"math"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
)

// Additive recurrence steps of a 3D low discrepancy sequence. They spread the
// camera aim over the box volume.
var aimSequence = mgl64.Vec3{0.8191725134, 0.6710436067, 0.5497004779}

// Orbit describes a synthetic session where a camera circles a bounding box
// at several elevations while sweeping its aim over the box.
type Orbit struct {
	// The box center and size.
	Center mgl64.Vec3
	Extent mgl64.Vec3

	// The distance between the camera and the box center.
	Radius float64

	// The camera elevations above the horizon, in radians. There is a full
	// circle per elevation.
	Elevations []float64

	FramesPerRing int

	// Camera intrinsics.
	FovY   float64
	Width  int
	Height int
}

// DefaultOrbit returns an orbit around a 50 cm cube standing on the ground.
func DefaultOrbit() Orbit {
	return Orbit{
		Center:        mgl64.Vec3{0, 0.25, 0},
		Extent:        mgl64.Vec3{0.5, 0.5, 0.5},
		Radius:        1.2,
		Elevations:    []float64{0.2, 0.6, 1.1},
		FramesPerRing: 1200,
		FovY:          math.Pi / 3,
		Width:         1170,
		Height:        2532,
	}
}

// ScanConfig returns the given configuration with the orbited box size as
// initial extent.
func (o Orbit) ScanConfig(c scan.Config) scan.Config {
	c.InitialExtent = o.Extent
	return c
}

// FrameCount returns the number of frames of the orbit.
func (o Orbit) FrameCount() int {
	return len(o.Elevations) * o.FramesPerRing
}

// Camera returns the camera of the given frame.
func (o Orbit) Camera(frame int) geometry.Camera {
	framesPerRing := max(o.FramesPerRing, 1)
	ring := min(frame/framesPerRing, len(o.Elevations)-1)

	var elevation float64
	if ring >= 0 {
		elevation = o.Elevations[ring]
	}

	azimuth := 2 * math.Pi * float64(frame%framesPerRing) / float64(framesPerRing)
	position := o.Center.Add(mgl64.Vec3{
		o.Radius * math.Cos(elevation) * math.Sin(azimuth),
		o.Radius * math.Sin(elevation),
		o.Radius * math.Cos(elevation) * math.Cos(azimuth),
	})

	var aim mgl64.Vec3
	for i := range aim {
		_, frac := math.Modf(float64(frame+1) * aimSequence[i])
		aim[i] = (frac - 0.5) * 0.9 * o.Extent[i]
	}

	return geometry.Camera{
		Pose:   geometry.LookAt(position, o.Center.Add(aim), mgl64.Vec3{0, 1, 0}),
		FovY:   o.FovY,
		Width:  o.Width,
		Height: o.Height,
	}
}

// Messages returns the recorded session of the orbit: the box placement, the
// transitions to the scanning state and a frame per camera position.
func (o Orbit) Messages() ([]messages.Msg, error) {
	msgs := make([]messages.Msg, 0, o.FrameCount()+3)

	add := func(t messages.MsgType, requestID uint32, data any) error {
		msg, err := messages.NewMsg(t, requestID, data)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		return nil
	}

	if err := add(messages.MsgTypeBoxPlaceRequest, 1, messages.BoxPlaceRequest{
		Pose: messages.PoseFrom(geometry.NewPose(o.Center, mgl64.QuatIdent())),
	}); err != nil {
		return nil, err
	}

	for i, state := range []scan.State{scan.StateDefineBoundingBox, scan.StateScanning} {
		if err := add(messages.MsgTypeScanStateRequest, uint32(i+2), messages.ScanStateRequest{
			State: state,
		}); err != nil {
			return nil, err
		}
	}

	for i := 0; i < o.FrameCount(); i++ {
		c := o.Camera(i)
		if err := add(messages.MsgTypeFrame, 0, messages.Frame{
			Camera: &messages.Camera{
				Pose:   messages.PoseFrom(c.Pose),
				FovY:   c.FovY,
				Width:  c.Width,
				Height: c.Height,
			},
		}); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}
