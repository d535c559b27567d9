package scan

import (
	"math"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// ObjectOrigin is the origin of the scanned object expressed in bounding box
// coordinates. It can be snapped to the box sides, to the bottom center and to
// right-angle rotations around the vertical axis.
type ObjectOrigin struct {
	IsSnappedToSide             bool
	IsSnappedToBottomCenter     bool
	IsSnappedTo90DegreeRotation bool

	config  Config
	haptics HapticFeedback
	box     *BoundingBox

	position mgl64.Vec3
	yaw      float64

	totalRotationSinceLastSnap float64
}

// NewObjectOrigin creates an origin at the bottom center of the given box.
func NewObjectOrigin(box *BoundingBox, c Config, h HapticFeedback) *ObjectOrigin {
	return &ObjectOrigin{
		config:   c.normalized(),
		haptics:  h,
		box:      box,
		position: mgl64.Vec3{0, -box.Extent().Y() / 2, 0},
	}
}

// Position returns the origin position in box coordinates.
func (o *ObjectOrigin) Position() mgl64.Vec3 {
	return o.position
}

// SetPosition moves the origin in box coordinates.
func (o *ObjectOrigin) SetPosition(v mgl64.Vec3) {
	o.position = v
}

// Yaw returns the rotation of the origin around the box Y axis.
func (o *ObjectOrigin) Yaw() float64 {
	return o.yaw
}

// Pose returns the origin pose in world coordinates.
func (o *ObjectOrigin) Pose() geometry.Pose {
	boxPose := o.box.Pose()
	rotation := mgl64.QuatRotate(o.yaw, mgl64.Vec3{0, 1, 0})

	return geometry.NewPose(
		boxPose.ToWorld(o.position),
		boxPose.Orientation.Mul(rotation).Normalize(),
	)
}

// SnapToBoundingBoxSide snaps each coordinate of the origin to the nearest
// box side closer than the snap threshold.
func (o *ObjectOrigin) SnapToBoundingBoxSide() {
	extent := o.box.Extent()
	threshold := o.config.OriginSnapThreshold
	var isWithinSnapThreshold bool

	for i := 0; i < 3; i++ {
		half := extent[i] / 2

		switch {
		case math.Abs(half-o.position[i]) < threshold:
			o.position[i] = half
			isWithinSnapThreshold = true

		case math.Abs(-half-o.position[i]) < threshold:
			o.position[i] = -half
			isWithinSnapThreshold = true
		}
	}

	if isWithinSnapThreshold && !o.IsSnappedToSide {
		o.IsSnappedToSide = true
		playHapticFeedback(o.haptics, o.config, HapticSnapToSide)
	} else if !isWithinSnapThreshold {
		o.IsSnappedToSide = false
	}
}

// SnapToBoundingBoxCenter snaps the origin to the vertical axis going through
// the box center when it is closer than the snap threshold.
func (o *ObjectOrigin) SnapToBoundingBoxCenter() {
	threshold := o.config.OriginSnapThreshold
	var isWithinSnapThreshold bool

	if math.Abs(o.position.X()) < threshold && math.Abs(o.position.Z()) < threshold {
		o.position = mgl64.Vec3{0, o.position.Y(), 0}
		isWithinSnapThreshold = true
	}

	if isWithinSnapThreshold && !o.IsSnappedToBottomCenter {
		o.IsSnappedToBottomCenter = true
		playHapticFeedback(o.haptics, o.config, HapticSnapToCenter)
	} else if !isWithinSnapThreshold {
		o.IsSnappedToBottomCenter = false
	}
}

// RotateWithSnappingOnYAxis rotates the origin around the vertical axis. The
// rotation sticks to multiples of the snap interval until the rotation
// accumulated since the snap exceeds the snap threshold.
func (o *ObjectOrigin) RotateWithSnappingOnYAxis(angle float64) {
	interval := o.config.RotationSnapInterval
	threshold := o.config.RotationSnapThreshold

	if o.IsSnappedTo90DegreeRotation {
		o.totalRotationSinceLastSnap += angle

		if math.Abs(o.totalRotationSinceLastSnap) > threshold {
			o.yaw += o.totalRotationSinceLastSnap
			o.IsSnappedTo90DegreeRotation = false
		}
		return
	}

	yaw := o.yaw + angle
	snapAngle := math.Round(yaw/interval) * interval

	if math.Abs(snapAngle-yaw) < threshold {
		o.yaw = snapAngle
		o.IsSnappedTo90DegreeRotation = true
		o.totalRotationSinceLastSnap = 0
		playHapticFeedback(o.haptics, o.config, HapticSnapToRotation)
		return
	}
	o.yaw = yaw
}
