package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Box is an oriented box described by the pose of its center and its full
// extent along each local axis.
type Box struct {
	Pose   Pose
	Extent mgl64.Vec3
}

// HalfExtent returns half of the box extent.
func (b Box) HalfExtent() mgl64.Vec3 {
	return b.Extent.Mul(0.5)
}

// Contains reports whether a world point lies in the box, faces included.
func (b Box) Contains(world mgl64.Vec3) bool {
	local := b.Pose.ToLocal(world)
	half := b.HalfExtent()

	for i := 0; i < 3; i++ {
		if local[i] < -half[i] || local[i] > half[i] {
			return false
		}
	}
	return true
}

// ContainsHalfOpen reports whether a world point lies in the box using half
// open ranges: the lower faces belong to the box, the upper ones don't.
func (b Box) ContainsHalfOpen(world mgl64.Vec3) bool {
	local := b.Pose.ToLocal(world)
	half := b.HalfExtent()

	for i := 0; i < 3; i++ {
		if !InHalfOpenRange(local[i], -half[i], half[i]) {
			return false
		}
	}
	return true
}

// Quad is a rectangle centered on Center and spanning ±HalfWidth along U and
// ±HalfHeight along V. U and V are expected to be unit and orthogonal.
type Quad struct {
	Center     mgl64.Vec3
	U          mgl64.Vec3
	V          mgl64.Vec3
	HalfWidth  float64
	HalfHeight float64
}

// Normal returns the unit normal of the quad plane.
func (q Quad) Normal() mgl64.Vec3 {
	return Normalized(q.U.Cross(q.V))
}

// Corners returns the quad corners in winding order.
func (q Quad) Corners() [4]mgl64.Vec3 {
	u := q.U.Mul(q.HalfWidth)
	v := q.V.Mul(q.HalfHeight)

	return [4]mgl64.Vec3{
		q.Center.Sub(u).Sub(v),
		q.Center.Add(u).Sub(v),
		q.Center.Add(u).Add(v),
		q.Center.Sub(u).Add(v),
	}
}

// Intersect returns the position along the segment, in [0, 1], at which the
// segment crosses the quad. With halfOpen set, the upper U and V edges don't
// belong to the quad.
func (q Quad) Intersect(segment Ray, halfOpen bool) (float64, bool) {
	normal := q.Normal()
	denominator := normal.Dot(segment.Direction)
	if denominator == 0 {
		return 0, false
	}

	t := normal.Dot(q.Center.Sub(segment.Origin)) / denominator
	if t < 0 || t > 1 {
		return 0, false
	}

	offset := segment.At(t).Sub(q.Center)
	u := offset.Dot(q.U)
	v := offset.Dot(q.V)

	if halfOpen {
		if !InHalfOpenRange(u, -q.HalfWidth, q.HalfWidth) ||
			!InHalfOpenRange(v, -q.HalfHeight, q.HalfHeight) {
			return 0, false
		}
		return t, true
	}

	epsilon := 0.0001
	if !InRangeWithEpsilon(u, -q.HalfWidth, q.HalfWidth, epsilon) ||
		!InRangeWithEpsilon(v, -q.HalfHeight, q.HalfHeight, epsilon) {
		return 0, false
	}
	return t, true
}
