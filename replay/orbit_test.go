package replay

import (
	"testing"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestOrbitCamera(t *testing.T) {
	orbit := DefaultOrbit()
	box := scan.NewBoundingBox(
		geometry.NewPose(orbit.Center, mgl64.QuatIdent()),
		orbit.ScanConfig(scan.DefaultConfig()),
		nil,
	)

	for _, frame := range []int{0, 1, 299, 1200, 2500, orbit.FrameCount() - 1} {
		c := orbit.Camera(frame)
		require.InDelta(t, orbit.Radius, c.Position().Sub(orbit.Center).Len(), 1e-9)
		require.False(t, box.Contains(c.Position()))

		toCenter := orbit.Center.Sub(c.Position()).Normalize()
		require.Greater(t, c.Forward().Dot(toCenter), 0.9)
	}

	t.Run("elevation per ring", func(t *testing.T) {
		low := orbit.Camera(0).Position().Y()
		high := orbit.Camera(orbit.FramesPerRing * 2).Position().Y()
		require.Greater(t, high, low)
	})
}

func TestOrbitMessages(t *testing.T) {
	orbit := DefaultOrbit()
	orbit.Elevations = []float64{0.3}
	orbit.FramesPerRing = 10

	msgs, err := orbit.Messages()
	require.NoError(t, err)
	require.Len(t, msgs, 13)
	require.Equal(t, messages.MsgTypeBoxPlaceRequest, msgs[0].Type)
	require.Equal(t, messages.MsgTypeScanStateRequest, msgs[1].Type)
	require.Equal(t, messages.MsgTypeScanStateRequest, msgs[2].Type)

	var place messages.BoxPlaceRequest
	require.NoError(t, msgs[0].DataTo(&place))
	require.Equal(t, orbit.Center, place.Pose.Position)

	for _, msg := range msgs[3:] {
		require.Equal(t, messages.MsgTypeFrame, msg.Type)

		var frame messages.Frame
		require.NoError(t, msg.DataTo(&frame))
		require.NotNil(t, frame.Camera)
	}
}

func TestOrbitScanConfig(t *testing.T) {
	orbit := DefaultOrbit()
	orbit.Extent = mgl64.Vec3{0.2, 0.3, 0.4}

	c := orbit.ScanConfig(scan.DefaultConfig())
	require.Equal(t, orbit.Extent, c.InitialExtent)
	require.Equal(t, scan.DefaultConfig().TilesPerSide, c.TilesPerSide)
}
