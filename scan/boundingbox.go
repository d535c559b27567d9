package scan

import (
	"sort"

	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

// The length of the segments used to hit test screen points.
const screenHitTestDistance = 1000

// BoundingBox is an oriented box placed around the scanned object. It owns six
// tiled sides and a wireframe, and tracks which tiles have been seen by the
// camera.
type BoundingBox struct {
	HasBeenAdjustedByUser      bool
	IsSnappedToHorizontalPlane bool

	config  Config
	haptics HapticFeedback

	pose   geometry.Pose
	extent mgl64.Vec3
	state  State

	nodes     *NodeTable
	sides     []*Side
	wireframe *Wireframe

	currentSideDrag        *sideDrag
	currentSidePlaneDrag   *planeDrag
	currentGroundPlaneDrag *planeDrag

	cameraRaysAndHitLocations   []rayHit
	frameCounter                int
	progressPercentage          int
	isUpdatingCapturingProgress bool

	extentChanged         observers[mgl64.Vec3]
	positionChanged       observers[mgl64.Vec3]
	scanPercentageChanged observers[int]
}

// NewBoundingBox creates a bounding box at the given pose with the configured
// initial extent.
func NewBoundingBox(pose geometry.Pose, c Config, h HapticFeedback) *BoundingBox {
	c = c.normalized()
	if pose.Orientation == (mgl64.Quat{}) {
		pose.Orientation = mgl64.QuatIdent()
	}

	b := &BoundingBox{
		config:  c,
		haptics: h,
		pose:    pose,
		extent:  clampExtent(c.InitialExtent, c.MinSize),
		nodes:   newNodeTable(),
	}

	for _, p := range SidePositions {
		b.sides = append(b.sides, newSide(p, b.extent, c.TilesPerSide, b.nodes))
	}
	b.wireframe = newWireframe(b.extent)
	return b
}

func clampExtent(extent mgl64.Vec3, minSize float64) mgl64.Vec3 {
	for i := range extent {
		if extent[i] < minSize {
			extent[i] = minSize
		}
	}
	return extent
}

// Position returns the world position of the box center.
func (b *BoundingBox) Position() mgl64.Vec3 {
	return b.pose.Position
}

// SetPosition moves the box center. Observers are notified when the position
// actually changes.
func (b *BoundingBox) SetPosition(v mgl64.Vec3) {
	if v == b.pose.Position {
		return
	}

	b.pose.Position = v
	b.positionChanged.notify(v)
}

// Extent returns the size of the box along its local axes.
func (b *BoundingBox) Extent() mgl64.Vec3 {
	return b.extent
}

// SetExtent resizes the box. Every component is clamped to the minimum size.
// The sides are relaid and observers notified.
func (b *BoundingBox) SetExtent(v mgl64.Vec3) {
	b.extent = clampExtent(v, b.config.MinSize)
	b.updateVisualization()
	b.extentChanged.notify(b.extent)
}

// Pose returns the pose of the box center.
func (b *BoundingBox) Pose() geometry.Pose {
	return b.pose
}

// Orientation returns the box orientation in world space.
func (b *BoundingBox) Orientation() mgl64.Quat {
	return b.pose.Orientation
}

// Transform returns the box local-to-world matrix.
func (b *BoundingBox) Transform() mgl64.Mat4 {
	return b.pose.Transform()
}

// Box returns the oriented box geometry.
func (b *BoundingBox) Box() geometry.Box {
	return geometry.Box{
		Pose:   b.pose,
		Extent: b.extent,
	}
}

// ProgressPercentage returns the last computed scan percentage.
func (b *BoundingBox) ProgressPercentage() int {
	return b.progressPercentage
}

// Side returns the side at the given position.
func (b *BoundingBox) Side(p SidePosition) *Side {
	for _, s := range b.sides {
		if s.Position == p {
			return s
		}
	}
	return nil
}

// Sides returns the six sides of the box.
func (b *BoundingBox) Sides() []*Side {
	return b.sides
}

// Wireframe returns the box edges.
func (b *BoundingBox) Wireframe() *Wireframe {
	return b.wireframe
}

// Nodes returns the table resolving hit-tested node ids.
func (b *BoundingBox) Nodes() *NodeTable {
	return b.nodes
}

// OnExtentChanged registers a function called with the new extent each time
// it is set.
func (b *BoundingBox) OnExtentChanged(fn func(mgl64.Vec3)) (cancel func()) {
	return b.extentChanged.add(fn)
}

// OnPositionChanged registers a function called with the new position each
// time the box moves.
func (b *BoundingBox) OnPositionChanged(fn func(mgl64.Vec3)) (cancel func()) {
	return b.positionChanged.add(fn)
}

// OnScanPercentageChanged registers a function called with the new scan
// percentage each time it changes.
func (b *BoundingBox) OnScanPercentageChanged(fn func(int)) (cancel func()) {
	return b.scanPercentageChanged.add(fn)
}

// Contains reports whether a world point is inside the box, faces included.
func (b *BoundingBox) Contains(world mgl64.Vec3) bool {
	return b.Box().Contains(world)
}

// SetState applies the side effects of a scan state change.
func (b *BoundingBox) SetState(s State) {
	b.state = s

	switch s {
	case StateReady, StateDefineBoundingBox:
		b.ResetCapturingProgress()
		b.setSidesHidden(false)
	case StateScanning:
		b.setSidesHidden(false)
	case StateAdjustingOrigin:
		b.setSidesHidden(true)
	}

	logs.WithTag("state", s).Debug("bounding box state changed")
}

// State returns the scan state last applied to the box.
func (b *BoundingBox) State() State {
	return b.state
}

func (b *BoundingBox) setSidesHidden(v bool) {
	for _, s := range b.sides {
		s.IsHidden = v
	}
}

func (b *BoundingBox) updateVisualization() {
	for _, s := range b.sides {
		s.update(b.extent)
	}
	b.wireframe.update(b.extent)
}

// UpdateOnEveryFrame aligns the box with the given planes when allowed and
// applies pending tile relayouts.
func (b *BoundingBox) UpdateOnEveryFrame(anchors []PlaneAnchor) {
	b.TryToAlignWithPlanes(anchors)
	b.updateTilesIfNeeded()
}

// updateTilesIfNeeded applies the pending tile relayouts of every side.
func (b *BoundingBox) updateTilesIfNeeded() {
	for _, s := range b.sides {
		s.UpdateVisualizationIfNeeded()
	}
}

// Hit is the intersection of a segment with a node of the box.
type Hit struct {
	Node Node

	// The position of the hit along the segment, in [0, 1].
	Distance float64

	// The world position of the hit.
	Location mgl64.Vec3
}

// hitTest returns the nodes of the given kind crossed by a world segment,
// nearest first. Hidden nodes are tested too.
func (b *BoundingBox) hitTest(segment geometry.Ray, kind NodeKind) []Hit {
	local := geometry.NewRay(
		b.pose.ToLocal(segment.Origin),
		b.pose.VectorToLocal(segment.Direction),
	)

	var hits []Hit
	add := func(n Node, q geometry.Quad, halfOpen bool) {
		t, ok := q.Intersect(local, halfOpen)
		if !ok {
			return
		}
		hits = append(hits, Hit{
			Node:     n,
			Distance: t,
			Location: segment.At(t),
		})
	}

	for _, s := range b.sides {
		switch kind {
		case NodeSide:
			n, _ := b.nodes.Lookup(s.ID)
			add(n, s.quad(b.extent), false)

		case NodeTile:
			for i, t := range s.Tiles {
				n, _ := b.nodes.Lookup(t.ID)
				add(n, s.tileQuad(i), true)
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func screenSegment(camera geometry.Camera, screenPos geometry.ScreenPoint) (geometry.Ray, bool) {
	ray, ok := camera.ScreenRay(screenPos)
	if !ok {
		return geometry.Ray{}, false
	}
	return geometry.NewRay(ray.Origin, ray.Direction.Mul(screenHitTestDistance)), true
}

// HitTest returns the sides under a screen point, nearest first.
func (b *BoundingBox) HitTest(camera geometry.Camera, screenPos geometry.ScreenPoint) []Hit {
	segment, ok := screenSegment(camera, screenPos)
	if !ok {
		return nil
	}
	return b.hitTest(segment, NodeSide)
}

// IsHit reports whether a screen point is over one of the box sides.
func (b *BoundingBox) IsHit(camera geometry.Camera, screenPos geometry.ScreenPoint) bool {
	return len(b.HitTest(camera, screenPos)) != 0
}

// tileHitBy returns the first tile crossed by a world segment. Tiles of sides
// busy updating their layout are skipped.
func (b *BoundingBox) tileHitBy(segment geometry.Ray) (*Tile, mgl64.Vec3, bool) {
	for _, h := range b.hitTest(segment, NodeTile) {
		side := b.Side(h.Node.Side)
		if side.IsBusyUpdatingTiles() {
			continue
		}
		return side.Tiles[h.Node.Tile], h.Location, true
	}
	return nil, mgl64.Vec3{}, false
}

// Tiles returns every tile of the box.
func (b *BoundingBox) Tiles() []*Tile {
	tiles := make([]*Tile, 0, len(b.sides)*b.config.TilesPerSide*b.config.TilesPerSide)
	for _, s := range b.sides {
		tiles = append(tiles, s.Tiles...)
	}
	return tiles
}
