package scan

import (
	"github.com/aukilabs/boxscan/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Frame is what the tracking session reports for a rendered frame.
type Frame struct {
	// The camera, nil when the tracking session has no pose for this frame.
	Camera *geometry.Camera

	// Raw feature points in world coordinates.
	PointCloud []r3.Vector

	// The feature hit under the screen center, if any.
	FocusPoint *mgl64.Vec3

	// The planes currently tracked.
	Anchors []PlaneAnchor

	// Points of the preliminary reference object, in box coordinates.
	ReferencePoints []r3.Vector
}
