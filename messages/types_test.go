package messages

import (
	"math"
	"testing"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/boxscan/scan"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestPose(t *testing.T) {
	t.Run("zero orientation", func(t *testing.T) {
		p := Pose{Position: mgl64.Vec3{1, 2, 3}}.ToGeometry()
		require.Equal(t, mgl64.Vec3{1, 2, 3}, p.Position)
		require.Equal(t, mgl64.QuatIdent(), p.Orientation)
	})

	t.Run("round trip", func(t *testing.T) {
		q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
		pose := PoseFrom(geometry.NewPose(mgl64.Vec3{1, 0, 0}, q))
		require.InDelta(t, q.W, pose.Orientation[3], 1e-12)
		require.InDelta(t, q.Y(), pose.Orientation[1], 1e-12)

		p := pose.ToGeometry()
		require.True(t, q.ApproxEqual(p.Orientation))
	})

	t.Run("json", func(t *testing.T) {
		var pose Pose
		require.NoError(t, json.Unmarshal([]byte(`{"position":[1,2,3],"orientation":[0,0,0,1]}`), &pose))
		require.Equal(t, mgl64.Vec3{1, 2, 3}, pose.Position)
		require.Equal(t, [4]float64{0, 0, 0, 1}, pose.Orientation)
	})
}

func TestFrameToScan(t *testing.T) {
	focus := mgl64.Vec3{0, 0, 1}
	f := Frame{
		Camera: &Camera{
			Pose:   Pose{Position: mgl64.Vec3{0, 0, 5}},
			FovY:   1,
			Width:  640,
			Height: 480,
		},
		PointCloud: []r3.Vector{{X: 1}},
		FocusPoint: &focus,
		Anchors: []PlaneAnchor{
			{ID: "floor", Alignment: PlaneAlignmentHorizontal},
			{ID: "wall", Alignment: PlaneAlignmentVertical},
		},
	}

	frame := f.ToScan()
	require.NotNil(t, frame.Camera)
	require.Equal(t, mgl64.Vec3{0, 0, 5}, frame.Camera.Position())
	require.Equal(t, 640, frame.Camera.Width)
	require.Equal(t, []r3.Vector{{X: 1}}, frame.PointCloud)
	require.Equal(t, &focus, frame.FocusPoint)
	require.Len(t, frame.Anchors, 2)
	require.Equal(t, scan.PlaneHorizontal, frame.Anchors[0].Alignment)
	require.Equal(t, scan.PlaneVertical, frame.Anchors[1].Alignment)
	require.Nil(t, frame.ReferencePoints)

	require.Nil(t, Frame{}.ToScan().Camera)
}

func TestFrameJSON(t *testing.T) {
	var f Frame
	err := json.Unmarshal([]byte(`{
		"camera": {"pose": {"position": [0, 1, 2], "orientation": [0, 0, 0, 1]}, "fov_y": 1.2, "width": 1920, "height": 1080},
		"point_cloud": [{"x": 1, "y": 2, "z": 3}],
		"anchors": [{"id": "floor", "pose": {"position": [0, -1, 0]}, "extent": [2, 0, 2], "alignment": "horizontal"}]
	}`), &f)
	require.NoError(t, err)
	require.Equal(t, 1920, f.Camera.Width)
	require.Equal(t, r3.Vector{X: 1, Y: 2, Z: 3}, f.PointCloud[0])
	require.Equal(t, mgl64.Vec3{2, 0, 2}, f.Anchors[0].Extent)
}

func TestTestRunStatisticsFrom(t *testing.T) {
	stats := TestRunStatisticsFrom(scan.TestRunStatistics{
		Detections:            2,
		LastDetectionDelay:    Milliseconds(300),
		AverageDetectionDelay: Milliseconds(200),
		ResultDisplayDuration: Milliseconds(400),
	})

	require.Equal(t, TestRunStatistics{
		Detections:            2,
		LastDetectionDelay:    300,
		AverageDetectionDelay: 200,
		ResultDisplayDuration: 400,
		Summary:               "Detected after: 300 ms. Avg: 200 ms",
	}, stats)
}
