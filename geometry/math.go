package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Epsilon is the tolerance used to reject degenerate directions and parallel
// plane intersections.
const Epsilon = 1e-9

func InRangeWithEpsilon(value, min, max, epsilon float64) bool {
	return value+epsilon >= min && value-epsilon <= max
}

// InHalfOpenRange reports whether value lies in [min, max[.
func InHalfOpenRange(value, min, max float64) bool {
	return value >= min && value < max
}

// Ray is a segment that starts at Origin and ends at Origin + Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
	}
}

// ForwardRay returns a ray of the given length along the forward vector of a
// pose.
func ForwardRay(p Pose, length float64) Ray {
	return NewRay(p.Position, p.Forward().Mul(length))
}

func (r Ray) EndPoint() mgl64.Vec3 {
	return r.Origin.Add(r.Direction)
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Normalized returns v scaled to unit length, or the zero vector when v is
// degenerate.
func Normalized(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// MinVec returns the component-wise minimum of a and b.
func MinVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

// MaxVec returns the component-wise maximum of a and b.
func MaxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

func FromR3(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func ToR3(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// FromR3Points converts raw tracker points into mgl64 vectors.
func FromR3Points(points []r3.Vector) []mgl64.Vec3 {
	res := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		res[i] = FromR3(p)
	}
	return res
}

// Pose is a rigid transform made of a world position and an orientation.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

func NewPose(position mgl64.Vec3, orientation mgl64.Quat) Pose {
	return Pose{
		Position:    position,
		Orientation: orientation,
	}
}

// PoseAt returns an unrotated pose at the given position.
func PoseAt(position mgl64.Vec3) Pose {
	return NewPose(position, mgl64.QuatIdent())
}

// LookAt returns a pose at eye whose forward vector (-Z) points at target.
func LookAt(eye, target, up mgl64.Vec3) Pose {
	view := mgl64.LookAtV(eye, target, up)
	return NewPose(eye, mgl64.Mat4ToQuat(view.Inv()).Normalize())
}

func (p Pose) orientation() mgl64.Quat {
	if p.Orientation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return p.Orientation
}

// Forward returns the unit -Z axis of the pose in world space.
func (p Pose) Forward() mgl64.Vec3 {
	return Normalized(p.orientation().Rotate(mgl64.Vec3{0, 0, -1}))
}

// Right returns the unit +X axis of the pose in world space.
func (p Pose) Right() mgl64.Vec3 {
	return Normalized(p.orientation().Rotate(mgl64.Vec3{1, 0, 0}))
}

// Up returns the unit +Y axis of the pose in world space.
func (p Pose) Up() mgl64.Vec3 {
	return Normalized(p.orientation().Rotate(mgl64.Vec3{0, 1, 0}))
}

// Transform returns the local-to-world matrix of the pose.
func (p Pose) Transform() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(p.orientation().Mat4())
}

// ToLocal converts a world-space point into the pose's local coordinates.
func (p Pose) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return p.orientation().Inverse().Rotate(world.Sub(p.Position))
}

// ToWorld converts a local point into world coordinates.
func (p Pose) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.orientation().Rotate(local))
}

// VectorToWorld rotates a local direction into world space.
func (p Pose) VectorToWorld(v mgl64.Vec3) mgl64.Vec3 {
	return p.orientation().Rotate(v)
}

// VectorToLocal rotates a world direction into local space.
func (p Pose) VectorToLocal(v mgl64.Vec3) mgl64.Vec3 {
	return p.orientation().Inverse().Rotate(v)
}

// TransformPosition returns the translation column of a transform.
func TransformPosition(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// ToTransformLocal converts a world point into the local coordinates of the
// given transform.
func ToTransformLocal(m mgl64.Mat4, world mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(world, m.Inv())
}

func fromBasis(x, y, z, origin mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), origin.Vec4(1))
}

// anyPerpendicular returns a unit vector orthogonal to v.
func anyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{0, 1, 0}
	if math.Abs(Normalized(v).Dot(axis)) > 0.9 {
		axis = mgl64.Vec3{1, 0, 0}
	}
	return Normalized(v.Cross(axis))
}

// DragPlaneTransform builds the plane used to drag something along dragRay.
//
// The X axis is the drag direction, so a touch unprojected onto the plane and
// converted into plane-local coordinates gives the signed displacement along
// the ray as its X value. The Z axis is orthogonal to both the drag direction
// and the camera-to-origin vector, which keeps the plane facing the camera as
// much as possible when the drag axis points towards it.
func DragPlaneTransform(dragRay Ray, cameraPos mgl64.Vec3) mgl64.Mat4 {
	x := Normalized(dragRay.Direction)
	camToRayOrigin := Normalized(dragRay.Origin.Sub(cameraPos))

	z := Normalized(x.Cross(camToRayOrigin))
	if z == (mgl64.Vec3{}) {
		z = anyPerpendicular(x)
	}
	y := Normalized(z.Cross(x))

	return fromBasis(x, y, z, dragRay.Origin)
}

// DragPlaneTransformForPlaneNormal builds a plane whose Y axis is the given
// normal, used to slide something freely within that plane. X and Z are derived
// from the camera's right vector.
func DragPlaneTransformForPlaneNormal(normalRay Ray, cameraRight mgl64.Vec3) mgl64.Mat4 {
	y := Normalized(normalRay.Direction)

	x := Normalized(y.Cross(cameraRight))
	if x == (mgl64.Vec3{}) {
		x = anyPerpendicular(y)
	}
	z := Normalized(x.Cross(y))

	return fromBasis(x, y, z, normalRay.Origin)
}

// UnprojectOntoPlane intersects a screen ray with the XZ plane of the given
// transform. It returns false when the ray is parallel to the plane or the
// plane lies behind the ray origin.
func UnprojectOntoPlane(screenRay Ray, planeTransform mgl64.Mat4) (mgl64.Vec3, bool) {
	normal := planeTransform.Col(1).Vec3()
	origin := TransformPosition(planeTransform)

	denominator := normal.Dot(screenRay.Direction)
	if math.Abs(denominator) < Epsilon {
		return mgl64.Vec3{}, false
	}

	t := normal.Dot(origin.Sub(screenRay.Origin)) / denominator
	if t < 0 || math.IsInf(t, 0) || math.IsNaN(t) {
		return mgl64.Vec3{}, false
	}
	return screenRay.At(t), true
}

// UnprojectOntoPlaneLocal is UnprojectOntoPlane with the result expressed in
// the plane's local coordinates.
func UnprojectOntoPlaneLocal(screenRay Ray, planeTransform mgl64.Mat4) (mgl64.Vec3, bool) {
	hit, ok := UnprojectOntoPlane(screenRay, planeTransform)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return ToTransformLocal(planeTransform, hit), true
}
