package scan

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ScannedPointCloud holds the points of the preliminary reference object and
// keeps the ones that are still inside the bounding box.
type ScannedPointCloud struct {
	IsHidden bool

	referenceObjectPoints []mgl64.Vec3
	renderedPoints        []mgl64.Vec3
}

// Update replaces the reference object points. Points are given in box
// coordinates and stored in world coordinates.
func (c *ScannedPointCloud) Update(points []mgl64.Vec3, box *BoundingBox) {
	pointsInWorld := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		pointsInWorld[i] = box.pose.ToWorld(p)
	}
	c.referenceObjectPoints = pointsInWorld
}

// UpdateOnEveryFrame keeps the reference object points that are inside the
// given box. Points on the upper faces are left out.
func (c *ScannedPointCloud) UpdateOnEveryFrame(box *BoundingBox) {
	if c.IsHidden {
		return
	}

	if len(c.referenceObjectPoints) == 0 || box == nil {
		c.renderedPoints = nil
		return
	}

	if box.extent.X() <= 0 {
		return
	}

	bounds := box.Box()
	rendered := make([]mgl64.Vec3, 0, len(c.referenceObjectPoints))
	for _, p := range c.referenceObjectPoints {
		if bounds.ContainsHalfOpen(p) {
			rendered = append(rendered, p)
		}
	}
	c.renderedPoints = rendered
}

// SetState hides the point cloud while the origin is adjusted.
func (c *ScannedPointCloud) SetState(s State) {
	c.IsHidden = s == StateAdjustingOrigin
}

// Points returns the rendered points in world coordinates.
func (c *ScannedPointCloud) Points() []mgl64.Vec3 {
	return c.renderedPoints
}

// Count returns the number of rendered points.
func (c *ScannedPointCloud) Count() int {
	return len(c.renderedPoints)
}

// Reset drops every point.
func (c *ScannedPointCloud) Reset() {
	c.referenceObjectPoints = nil
	c.renderedPoints = nil
}
