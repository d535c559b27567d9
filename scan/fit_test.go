package scan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

var testPointCloud = []mgl64.Vec3{
	{0.6, 0, 0},
	{0.61, 0, 0},
	{0.6, 0.01, 0},
	{0.6, 0, 0.01},
	{0.645, 0, 0},
	{0.9, 0, 0},
}

func TestFilterPointCloud(t *testing.T) {
	focus := mgl64.Vec3{0.6, 0, 0}

	t.Run("around focus point", func(t *testing.T) {
		filtered := FilterPointCloud(testPointCloud, &focus, DefaultConfig())
		require.Equal(t, testPointCloud[:4], filtered)
	})

	t.Run("without focus point", func(t *testing.T) {
		filtered := FilterPointCloud(testPointCloud, nil, DefaultConfig())
		require.Equal(t, testPointCloud[:4], filtered)
	})

	t.Run("not enough neighbors", func(t *testing.T) {
		filtered := FilterPointCloud(testPointCloud[:3], &focus, DefaultConfig())
		require.Empty(t, filtered)
	})

	t.Run("neighbors outside the focus radius count", func(t *testing.T) {
		focus := mgl64.Vec3{}
		points := []mgl64.Vec3{
			{0.04, 0, 0},
			{0.055, 0, 0},
			{0.06, 0, 0},
			{0.058, 0.005, 0},
		}

		filtered := FilterPointCloud(points, &focus, DefaultConfig())
		require.Equal(t, points[:1], filtered)
	})

	t.Run("two neighbors are not enough", func(t *testing.T) {
		focus := mgl64.Vec3{}
		points := []mgl64.Vec3{
			{0, 0, 0},
			{0.01, 0, 0},
			{0, 0.01, 0},
			{0.03, 0, 0},
		}

		// The origin has two neighbors, the point at 0.03 is not one.
		filtered := FilterPointCloud(points, &focus, DefaultConfig())
		require.Equal(t, []mgl64.Vec3{{0.01, 0, 0}}, filtered)
	})

	t.Run("empty cloud", func(t *testing.T) {
		require.Empty(t, FilterPointCloud(nil, &focus, DefaultConfig()))
	})
}

func TestBoundingBoxFitOverPointCloud(t *testing.T) {
	focus := mgl64.Vec3{0.6, 0, 0}

	t.Run("box grows toward points", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)

		box.FitOverPointCloud(testPointCloud, &focus)
		requireVecInDelta(t, mgl64.Vec3{0.055, 0, 0}, box.Position(), 1e-9)
		requireVecInDelta(t, mgl64.Vec3{1.11, 1, 1}, box.Extent(), 1e-9)
	})

	t.Run("box never shrinks", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)
		inside := mgl64.Vec3{0.1, 0, 0}
		points := []mgl64.Vec3{
			{0.1, 0, 0},
			{0.11, 0, 0},
			{0.1, 0.01, 0},
			{0.1, 0, 0.01},
		}

		box.FitOverPointCloud(points, &inside)
		require.Equal(t, mgl64.Vec3{}, box.Position())
		require.Equal(t, mgl64.Vec3{1, 1, 1}, box.Extent())
	})

	t.Run("rotated box", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)
		box.pose.Orientation = mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 1, 0})

		box.FitOverPointCloud(testPointCloud, &focus)
		requireVecInDelta(t, mgl64.Vec3{0.055, 0, 0}, box.Position(), 1e-9)
		requireVecInDelta(t, mgl64.Vec3{1, 1, 1.11}, box.Extent(), 1e-9)
	})

	t.Run("no points", func(t *testing.T) {
		box := newTestBox(t, newTestConfig(), nil)

		box.FitOverPointCloud(nil, &focus)
		require.Equal(t, mgl64.Vec3{1, 1, 1}, box.Extent())
	})

	t.Run("disabled", func(t *testing.T) {
		c := newTestConfig()
		c.DisablePointCloudFit = true
		box := newTestBox(t, c, nil)

		box.FitOverPointCloud(testPointCloud, &focus)
		require.Equal(t, mgl64.Vec3{1, 1, 1}, box.Extent())
	})
}
