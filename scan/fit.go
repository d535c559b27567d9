package scan

import (
	"github.com/aukilabs/boxscan/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// FitOverPointCloud moves and grows the box so it wraps the points of a
// feature point cloud around the focus point. Points farther than the focus
// radius and outliers are ignored. The box never shrinks.
func (b *BoundingBox) FitOverPointCloud(points []mgl64.Vec3, focusPoint *mgl64.Vec3) {
	if b.config.DisablePointCloudFit {
		return
	}

	filtered := FilterPointCloud(points, focusPoint, b.config)
	if len(filtered) == 0 {
		return
	}

	localMin := b.extent.Mul(-0.5)
	localMax := b.extent.Mul(0.5)

	for _, p := range filtered {
		local := b.pose.ToLocal(p)
		localMin = geometry.MinVec(localMin, local)
		localMax = geometry.MaxVec(localMax, local)
	}

	center := localMax.Add(localMin).Mul(0.5)
	b.SetPosition(b.pose.ToWorld(center))
	b.SetExtent(localMax.Sub(localMin))
}

// FilterPointCloud returns the points close to the focus point that are not
// outliers. A point is kept when at least the configured number of other
// points of the whole cloud lie within the outlier radius.
func FilterPointCloud(points []mgl64.Vec3, focusPoint *mgl64.Vec3, c Config) []mgl64.Vec3 {
	if len(points) == 0 {
		return nil
	}

	var filtered []mgl64.Vec3
	index := newPointIndex(points)

	for _, p := range points {
		if focusPoint != nil && p.Sub(*focusPoint).Len() > c.FocusRadius {
			continue
		}

		if index.countNeighbors(p, c.OutlierRadius) >= c.OutlierNeighbors {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
