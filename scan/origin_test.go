package scan

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestObjectOrigin(t *testing.T) {
	t.Run("starts at the bottom center", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)
		box.SetPosition(mgl64.Vec3{1, 0, 0})

		origin := NewObjectOrigin(box, newTestConfig(), nil)
		require.Equal(t, mgl64.Vec3{0, -0.5, 0}, origin.Position())
		require.Zero(t, origin.Yaw())
		requireVecInDelta(t, mgl64.Vec3{1, -0.5, 0}, origin.Pose().Position, 1e-9)
	})

	t.Run("pose follows box and yaw", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)
		box.SetPosition(mgl64.Vec3{1, 0, 0})

		origin := NewObjectOrigin(box, newTestConfig(), nil)
		origin.RotateWithSnappingOnYAxis(math.Pi / 2)

		pose := origin.Pose()
		requireVecInDelta(t, mgl64.Vec3{0, 0, -1}, pose.Orientation.Rotate(mgl64.Vec3{1, 0, 0}), 1e-9)
	})
}

func TestObjectOriginSnapToBoundingBoxSide(t *testing.T) {
	haptics := &hapticRecorder{}
	box := newTestBox(t, newTestConfig(), nil)
	origin := NewObjectOrigin(box, newTestConfig(), haptics)

	origin.SetPosition(mgl64.Vec3{0.495, -0.3, 0})
	origin.SnapToBoundingBoxSide()
	require.Equal(t, mgl64.Vec3{0.5, -0.3, 0}, origin.Position())
	require.True(t, origin.IsSnappedToSide)

	origin.SetPosition(mgl64.Vec3{0.5, -0.495, 0})
	origin.SnapToBoundingBoxSide()
	require.Equal(t, mgl64.Vec3{0.5, -0.5, 0}, origin.Position())
	require.Equal(t, []HapticReason{HapticSnapToSide}, haptics.reasons)

	origin.SetPosition(mgl64.Vec3{0.2, -0.3, 0.1})
	origin.SnapToBoundingBoxSide()
	require.Equal(t, mgl64.Vec3{0.2, -0.3, 0.1}, origin.Position())
	require.False(t, origin.IsSnappedToSide)

	origin.SetPosition(mgl64.Vec3{0.2, -0.3, -0.497})
	origin.SnapToBoundingBoxSide()
	require.Equal(t, mgl64.Vec3{0.2, -0.3, -0.5}, origin.Position())
	require.Equal(t, []HapticReason{HapticSnapToSide, HapticSnapToSide}, haptics.reasons)
}

func TestObjectOriginSnapToBoundingBoxCenter(t *testing.T) {
	haptics := &hapticRecorder{}
	box := newTestBox(t, newTestConfig(), nil)
	origin := NewObjectOrigin(box, newTestConfig(), haptics)

	origin.SetPosition(mgl64.Vec3{0.005, -0.5, -0.005})
	origin.SnapToBoundingBoxCenter()
	require.Equal(t, mgl64.Vec3{0, -0.5, 0}, origin.Position())
	require.True(t, origin.IsSnappedToBottomCenter)

	origin.SnapToBoundingBoxCenter()
	require.Equal(t, []HapticReason{HapticSnapToCenter}, haptics.reasons)

	origin.SetPosition(mgl64.Vec3{0.005, -0.5, 0.02})
	origin.SnapToBoundingBoxCenter()
	require.Equal(t, mgl64.Vec3{0.005, -0.5, 0.02}, origin.Position())
	require.False(t, origin.IsSnappedToBottomCenter)
}

func TestObjectOriginRotateWithSnappingOnYAxis(t *testing.T) {
	haptics := &hapticRecorder{}
	box := newTestBox(t, newTestConfig(), nil)
	origin := NewObjectOrigin(box, newTestConfig(), haptics)

	origin.RotateWithSnappingOnYAxis(0.5)
	require.InDelta(t, 0.5, origin.Yaw(), 1e-9)
	require.False(t, origin.IsSnappedTo90DegreeRotation)

	origin.RotateWithSnappingOnYAxis(1)
	require.InDelta(t, math.Pi/2, origin.Yaw(), 1e-9)
	require.True(t, origin.IsSnappedTo90DegreeRotation)
	require.Equal(t, []HapticReason{HapticSnapToRotation}, haptics.reasons)

	// Small rotations are absorbed by the snap.
	origin.RotateWithSnappingOnYAxis(0.05)
	require.InDelta(t, math.Pi/2, origin.Yaw(), 1e-9)
	require.True(t, origin.IsSnappedTo90DegreeRotation)

	origin.RotateWithSnappingOnYAxis(0.06)
	require.InDelta(t, math.Pi/2+0.11, origin.Yaw(), 1e-9)
	require.False(t, origin.IsSnappedTo90DegreeRotation)

	origin.RotateWithSnappingOnYAxis(-2)
	require.InDelta(t, math.Pi/2-1.89, origin.Yaw(), 1e-9)
	require.False(t, origin.IsSnappedTo90DegreeRotation)

	origin.RotateWithSnappingOnYAxis(0.25)
	require.InDelta(t, 0, origin.Yaw(), 1e-9)
	require.True(t, origin.IsSnappedTo90DegreeRotation)
	require.Len(t, haptics.reasons, 2)
}
