package scan

import (
	"math"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// PlaneAlignment tells whether a detected plane is horizontal or vertical.
type PlaneAlignment int

const (
	PlaneHorizontal PlaneAlignment = iota
	PlaneVertical
)

// PlaneAnchor is a plane detected by the tracking session.
type PlaneAnchor struct {
	ID string

	// The anchor pose in world space. The plane is its local XZ plane.
	Transform geometry.Pose

	// Center and size of the detected plane in anchor coordinates. Only X
	// and Z are used.
	Center mgl64.Vec3
	Extent mgl64.Vec3

	Alignment PlaneAlignment
}

// TryToAlignWithPlanes grows the box down to the horizontal plane right
// under it. It only runs while defining a box the user has not adjusted yet.
func (b *BoundingBox) TryToAlignWithPlanes(anchors []PlaneAnchor) {
	if b.HasBeenAdjustedByUser || b.state != StateDefineBoundingBox || b.config.DisablePlaneAlignment {
		return
	}

	bottomCenter := b.pose.Position.Sub(mgl64.Vec3{0, b.extent.Y() / 2, 0})

	distanceToNearestPlane := math.MaxFloat64
	var offsetToNearestPlaneOnY float64
	var planeFound bool

	for _, a := range anchors {
		if a.Alignment != PlaneHorizontal {
			continue
		}

		p := a.Transform.ToLocal(bottomCenter)
		tolerance := b.config.PlaneTolerance

		minX := a.Center.X() - a.Extent.X()/2 - a.Extent.X()*tolerance
		maxX := a.Center.X() + a.Extent.X()/2 + a.Extent.X()*tolerance
		minZ := a.Center.Z() - a.Extent.Z()/2 - a.Extent.Z()*tolerance
		maxZ := a.Center.Z() + a.Extent.Z()/2 + a.Extent.Z()*tolerance

		if p.X() < minX || p.X() > maxX || p.Z() < minZ || p.Z() > maxZ {
			continue
		}

		offsetToPlaneOnY := p.Y()
		distanceToPlane := math.Abs(offsetToPlaneOnY)

		if distanceToPlane < distanceToNearestPlane {
			distanceToNearestPlane = distanceToPlane
			offsetToNearestPlaneOnY = offsetToPlaneOnY
			planeFound = true
		}
	}

	if !planeFound || distanceToNearestPlane <= b.config.AlignmentDeadZone {
		return
	}

	maxDistance := b.extent.Y() / 2
	if distanceToNearestPlane >= maxDistance || offsetToNearestPlaneOnY <= 0 {
		return
	}

	position := b.pose.Position
	position[1] -= offsetToNearestPlaneOnY / 2
	extent := b.extent
	extent[1] += offsetToNearestPlaneOnY

	b.SetPosition(position)
	b.SetExtent(extent)

	instrumentPlaneAlignment()
	logs.WithTag("offset", offsetToNearestPlaneOnY).Debug("bounding box aligned with plane")
}

// SnapToHorizontalPlane moves the box so its bottom touches a horizontal
// plane closer than the snap threshold. A haptic pulse is played when the
// snap engages.
func (b *BoundingBox) SnapToHorizontalPlane(anchors []PlaneAnchor) {
	if b.config.DisableHorizontalPlaneSnap {
		return
	}

	var isWithinSnapThreshold bool
	bottomY := b.pose.Position.Y() - b.extent.Y()/2

	for _, a := range anchors {
		if a.Alignment != PlaneHorizontal {
			continue
		}

		planeY := a.Transform.Position.Y()
		if math.Abs(bottomY-planeY) >= b.config.PlaneSnapThreshold {
			continue
		}

		isWithinSnapThreshold = true
		position := b.pose.Position
		position[1] = planeY + b.extent.Y()/2
		b.SetPosition(position)

		if !b.IsSnappedToHorizontalPlane {
			b.IsSnappedToHorizontalPlane = true
			playHapticFeedback(b.haptics, b.config, HapticSnapToPlane)
			logs.WithTag("plane_id", a.ID).Debug("bounding box snapped to plane")
		}
	}

	if !isWithinSnapThreshold {
		b.IsSnappedToHorizontalPlane = false
	}
}
