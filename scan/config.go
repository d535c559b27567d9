package scan

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the thresholds used by the scanning engine. Distances are in
// meters and angles in radians.
type Config struct {
	// The extent given to a newly placed bounding box.
	InitialExtent mgl64.Vec3

	// The minimum size of the bounding box on each axis.
	MinSize float64

	// The number of tile rows and columns on each side.
	TilesPerSide int

	// Points farther than this from the focus point are ignored when fitting
	// the box over a point cloud.
	FocusRadius float64

	// A point is an outlier unless it has OutlierNeighbors other points closer
	// than OutlierRadius.
	OutlierRadius    float64
	OutlierNeighbors int

	// The number of frames between two camera ray samples.
	SampleInterval int

	// The number of frames between two captured tiles recomputations.
	RecomputeInterval int

	// Sampled hits closer than this to a previous hit are discarded.
	HitDeduplicationDistance float64

	// The length of the camera rays used for highlighting and sampling.
	RayLength float64

	// The inflation applied to plane extents when looking for the plane
	// under the box.
	PlaneTolerance float64

	// Plane alignment does nothing when the box bottom is closer than this to
	// the nearest plane.
	AlignmentDeadZone float64

	// The distance under which the box bottom snaps to a horizontal plane.
	PlaneSnapThreshold float64

	// The distance under which the object origin snaps to a box side or to
	// the bottom center.
	OriginSnapThreshold float64

	RotationSnapInterval  float64
	RotationSnapThreshold float64

	DisablePlaneAlignment      bool
	DisableHorizontalPlaneSnap bool
	DisableTileHighlight       bool
	DisableHapticFeedback      bool
	DisablePointCloudFit       bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		InitialExtent:            mgl64.Vec3{0.1, 0.1, 0.1},
		MinSize:                  0.01,
		TilesPerSide:             5,
		FocusRadius:              0.05,
		OutlierRadius:            0.03,
		OutlierNeighbors:         3,
		SampleInterval:           20,
		RecomputeInterval:        10,
		HitDeduplicationDistance: 0.03,
		RayLength:                5,
		PlaneTolerance:           0.1,
		AlignmentDeadZone:        0.001,
		PlaneSnapThreshold:       0.01,
		OriginSnapThreshold:      0.01,
		RotationSnapInterval:     math.Pi / 2,
		RotationSnapThreshold:    0.1,
	}
}

// normalized replaces unusable values with their defaults.
func (c Config) normalized() Config {
	d := DefaultConfig()

	if c.InitialExtent == (mgl64.Vec3{}) {
		c.InitialExtent = d.InitialExtent
	}
	if c.MinSize <= 0 {
		c.MinSize = d.MinSize
	}
	if c.TilesPerSide <= 0 {
		c.TilesPerSide = d.TilesPerSide
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.RecomputeInterval <= 0 {
		c.RecomputeInterval = d.RecomputeInterval
	}
	if c.RayLength <= 0 {
		c.RayLength = d.RayLength
	}
	if c.OutlierNeighbors < 0 {
		c.OutlierNeighbors = d.OutlierNeighbors
	}
	if c.RotationSnapInterval <= 0 {
		c.RotationSnapInterval = d.RotationSnapInterval
	}
	return c
}
