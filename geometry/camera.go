package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	nearPlane = 0.01
	farPlane  = 1000
)

// ScreenPoint is a position in pixels with its origin at the top left corner
// of the viewport.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Camera is a pinhole camera looking down its -Z axis.
type Camera struct {
	Pose Pose

	// Vertical field of view, in radians.
	FovY float64

	// Viewport size in pixels.
	Width  int
	Height int
}

func (c Camera) Position() mgl64.Vec3 {
	return c.Pose.Position
}

func (c Camera) Forward() mgl64.Vec3 {
	return c.Pose.Forward()
}

func (c Camera) Right() mgl64.Vec3 {
	return c.Pose.Right()
}

func (c Camera) valid() bool {
	return c.Width > 0 && c.Height > 0 && c.FovY > 0
}

func (c Camera) matrices() (view, projection mgl64.Mat4) {
	projection = mgl64.Perspective(c.FovY, float64(c.Width)/float64(c.Height), nearPlane, farPlane)
	view = c.Pose.Transform().Inv()
	return view, projection
}

// ScreenRay returns the unit-direction ray that starts at the camera and goes
// through the given screen point.
func (c Camera) ScreenRay(p ScreenPoint) (Ray, bool) {
	if !c.valid() {
		return Ray{}, false
	}

	view, projection := c.matrices()
	winY := float64(c.Height) - p.Y

	near, err := mgl64.UnProject(mgl64.Vec3{p.X, winY, 0}, view, projection, 0, 0, c.Width, c.Height)
	if err != nil {
		return Ray{}, false
	}
	far, err := mgl64.UnProject(mgl64.Vec3{p.X, winY, 1}, view, projection, 0, 0, c.Width, c.Height)
	if err != nil {
		return Ray{}, false
	}

	direction := Normalized(far.Sub(near))
	if direction == (mgl64.Vec3{}) {
		return Ray{}, false
	}
	return NewRay(c.Pose.Position, direction), true
}

// Project returns the screen position of a world point. It returns false when
// the point is behind the camera.
func (c Camera) Project(world mgl64.Vec3) (ScreenPoint, bool) {
	if !c.valid() {
		return ScreenPoint{}, false
	}
	if c.Pose.ToLocal(world).Z() >= 0 {
		return ScreenPoint{}, false
	}

	view, projection := c.matrices()
	win := mgl64.Project(world, view, projection, 0, 0, c.Width, c.Height)

	return ScreenPoint{
		X: win.X(),
		Y: float64(c.Height) - win.Y(),
	}, true
}
