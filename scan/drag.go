package scan

import (
	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// DragKind is a kind of box manipulation gesture.
type DragKind string

const (
	SideDrag        DragKind = "side_drag"
	SidePlaneDrag   DragKind = "side_plane_drag"
	GroundPlaneDrag DragKind = "ground_plane_drag"
)

type sideDrag struct {
	side           *Side
	planeTransform mgl64.Mat4
	beginWorldPos  mgl64.Vec3
	beginExtent    mgl64.Vec3
}

type planeDrag struct {
	planeTransform mgl64.Mat4
	offset         mgl64.Vec3
}

// StartSideDrag starts pushing or pulling the side under the given screen
// point. It returns false when no side is under the point.
func (b *BoundingBox) StartSideDrag(camera geometry.Camera, screenPos geometry.ScreenPoint) bool {
	hits := b.HitTest(camera, screenPos)
	if len(hits) == 0 {
		return false
	}

	hit := hits[0]
	side := b.Side(hit.Node.Side)
	side.ShowZAxisExtensions()

	normal := geometry.Normalized(b.pose.VectorToWorld(side.Normal()))
	transform := geometry.DragPlaneTransform(
		geometry.NewRay(hit.Location, normal),
		camera.Position(),
	)

	b.currentSideDrag = &sideDrag{
		side:           side,
		planeTransform: transform,
		beginWorldPos:  b.pose.Position,
		beginExtent:    b.extent,
	}
	b.HasBeenAdjustedByUser = true

	instrumentDrag(SideDrag)
	logs.WithTag("side", side.Position).Debug("side drag started")
	return true
}

// UpdateSideDrag moves the dragged side to follow the given screen point. The
// opposite side stays in place. Updates that would make the box smaller than
// the minimum size are ignored.
func (b *BoundingBox) UpdateSideDrag(camera geometry.Camera, screenPos geometry.ScreenPoint) {
	drag := b.currentSideDrag
	if drag == nil {
		return
	}

	ray, ok := camera.ScreenRay(screenPos)
	if !ok {
		return
	}

	hitPos, ok := geometry.UnprojectOntoPlaneLocal(ray, drag.planeTransform)
	if !ok {
		return
	}

	movementAlongRay := hitPos.X()
	originOffset := drag.planeTransform.Col(0).Vec3().Mul(movementAlongRay / 2)
	extentOffset := drag.side.DragAxis().Normal().Mul(movementAlongRay)

	newExtent := drag.beginExtent.Add(extentOffset)
	for _, v := range newExtent {
		if v < b.config.MinSize {
			logs.WithTag("extent", newExtent).Debug("side drag update rejected")
			return
		}
	}

	b.SetPosition(drag.beginWorldPos.Add(originOffset))
	b.SetExtent(newExtent)
}

// EndSideDrag ends the current side drag, if any.
func (b *BoundingBox) EndSideDrag() {
	drag := b.currentSideDrag
	if drag == nil {
		return
	}

	drag.side.HideZAxisExtensions()
	b.currentSideDrag = nil
}

// StartSidePlaneDrag starts sliding the box within the plane of the side under
// the given screen point. It returns false when no side is under the point.
func (b *BoundingBox) StartSidePlaneDrag(camera geometry.Camera, screenPos geometry.ScreenPoint) bool {
	hits := b.HitTest(camera, screenPos)
	if len(hits) == 0 {
		return false
	}

	hit := hits[0]
	side := b.Side(hit.Node.Side)
	side.ShowXAxisExtensions()
	side.ShowYAxisExtensions()

	normal := geometry.Normalized(b.pose.VectorToWorld(side.DragAxis().Normal()))
	transform := geometry.DragPlaneTransformForPlaneNormal(
		geometry.NewRay(hit.Location, normal),
		camera.Right(),
	)

	b.currentSidePlaneDrag = &planeDrag{
		planeTransform: transform,
		offset:         b.dragOffset(camera, screenPos, transform),
	}
	b.HasBeenAdjustedByUser = true

	instrumentDrag(SidePlaneDrag)
	logs.WithTag("side", side.Position).Debug("side plane drag started")
	return true
}

// UpdateSidePlaneDrag moves the box to follow the given screen point and snaps
// its bottom to a nearby horizontal plane.
func (b *BoundingBox) UpdateSidePlaneDrag(camera geometry.Camera, screenPos geometry.ScreenPoint, anchors []PlaneAnchor) {
	if b.followPlaneDrag(b.currentSidePlaneDrag, camera, screenPos) {
		b.SnapToHorizontalPlane(anchors)
	}
}

// EndSidePlaneDrag ends the current side plane drag.
func (b *BoundingBox) EndSidePlaneDrag() {
	b.currentSidePlaneDrag = nil
	b.HideExtensionsOnAllAxes()
	b.IsSnappedToHorizontalPlane = false
}

// StartGroundPlaneDrag starts moving the box along its own horizontal plane.
func (b *BoundingBox) StartGroundPlaneDrag(camera geometry.Camera, screenPos geometry.ScreenPoint) {
	transform := b.Transform()

	b.currentGroundPlaneDrag = &planeDrag{
		planeTransform: transform,
		offset:         b.dragOffset(camera, screenPos, transform),
	}
	b.HasBeenAdjustedByUser = true

	instrumentDrag(GroundPlaneDrag)
	logs.WithTag("position", b.pose.Position).Debug("ground plane drag started")
}

// UpdateGroundPlaneDrag moves the box to follow the given screen point and
// snaps its bottom to a nearby horizontal plane.
func (b *BoundingBox) UpdateGroundPlaneDrag(camera geometry.Camera, screenPos geometry.ScreenPoint, anchors []PlaneAnchor) {
	if bottom := b.Side(SideBottom); bottom != nil {
		bottom.ShowXAxisExtensions()
		bottom.ShowYAxisExtensions()
	}

	if b.followPlaneDrag(b.currentGroundPlaneDrag, camera, screenPos) {
		b.SnapToHorizontalPlane(anchors)
	}
}

// EndGroundPlaneDrag ends the current ground plane drag.
func (b *BoundingBox) EndGroundPlaneDrag() {
	b.currentGroundPlaneDrag = nil

	if bottom := b.Side(SideBottom); bottom != nil {
		bottom.HideXAxisExtensions()
		bottom.HideYAxisExtensions()
	}
}

// HideExtensionsOnAllAxes hides the axis hints of every side.
func (b *BoundingBox) HideExtensionsOnAllAxes() {
	for _, s := range b.sides {
		s.HideXAxisExtensions()
		s.HideYAxisExtensions()
		s.HideZAxisExtensions()
	}
}

func (b *BoundingBox) dragOffset(camera geometry.Camera, screenPos geometry.ScreenPoint, planeTransform mgl64.Mat4) mgl64.Vec3 {
	ray, ok := camera.ScreenRay(screenPos)
	if !ok {
		return mgl64.Vec3{}
	}

	hitPos, ok := geometry.UnprojectOntoPlane(ray, planeTransform)
	if !ok {
		return mgl64.Vec3{}
	}
	return b.pose.Position.Sub(hitPos)
}

func (b *BoundingBox) followPlaneDrag(drag *planeDrag, camera geometry.Camera, screenPos geometry.ScreenPoint) bool {
	if drag == nil {
		return false
	}

	ray, ok := camera.ScreenRay(screenPos)
	if !ok {
		return false
	}

	hitPos, ok := geometry.UnprojectOntoPlane(ray, drag.planeTransform)
	if !ok {
		return false
	}

	b.SetPosition(hitPos.Add(drag.offset))
	return true
}
