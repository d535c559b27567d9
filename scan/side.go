package scan

import (
	"github.com/aukilabs/boxscan/geometry"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// Axis is one of the box local axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Normal returns the unit vector of the axis.
func (a Axis) Normal() mgl64.Vec3 {
	var v mgl64.Vec3
	v[a] = 1
	return v
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// SidePosition identifies a face of the bounding box.
type SidePosition int

const (
	SideFront SidePosition = iota
	SideBack
	SideLeft
	SideRight
	SideTop
	SideBottom
)

// SidePositions lists every side position.
var SidePositions = []SidePosition{
	SideFront,
	SideBack,
	SideLeft,
	SideRight,
	SideTop,
	SideBottom,
}

func (p SidePosition) String() string {
	switch p {
	case SideFront:
		return "front"
	case SideBack:
		return "back"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	default:
		return "bottom"
	}
}

func (p SidePosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *SidePosition) UnmarshalText(b []byte) error {
	for _, v := range SidePositions {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return errors.New("unknown side position").WithTag("value", string(b))
}

// DragAxis returns the axis along which the side is pushed and pulled.
func (p SidePosition) DragAxis() Axis {
	switch p {
	case SideLeft, SideRight:
		return AxisX
	case SideTop, SideBottom:
		return AxisY
	default:
		return AxisZ
	}
}

// Normal returns the outward unit normal of the side in box coordinates.
func (p SidePosition) Normal() mgl64.Vec3 {
	n := p.DragAxis().Normal()
	switch p {
	case SideBack, SideLeft, SideBottom:
		return n.Mul(-1)
	default:
		return n
	}
}

// faceAxes returns the axes spanned by the side face.
func (p SidePosition) faceAxes() (u, v Axis) {
	switch p.DragAxis() {
	case AxisX:
		return AxisZ, AxisY
	case AxisY:
		return AxisX, AxisZ
	default:
		return AxisX, AxisY
	}
}

// AxisHints tells which axis extension hints a side displays.
type AxisHints struct {
	X bool `json:"x"`
	Y bool `json:"y"`
	Z bool `json:"z"`
}

// Side is a face of the bounding box subdivided into a grid of tiles.
type Side struct {
	ID       NodeID
	Position SidePosition
	Tiles    []*Tile
	Hints    AxisHints
	IsHidden bool

	gridSize int

	// The box extent the tiles are laid out for.
	extent mgl64.Vec3

	pendingExtent       *mgl64.Vec3
	isBusyUpdatingTiles bool
}

func newSide(p SidePosition, boxExtent mgl64.Vec3, gridSize int, nodes *NodeTable) *Side {
	s := &Side{
		Position: p,
		gridSize: gridSize,
		Tiles:    make([]*Tile, gridSize*gridSize),
	}

	s.ID = nodes.register(NodeSide, p, -1)
	for i := range s.Tiles {
		s.Tiles[i] = &Tile{
			ID: nodes.register(NodeTile, p, i),
		}
	}

	s.layoutTiles(boxExtent)
	return s
}

// Completion returns the fraction of captured tiles.
func (s *Side) Completion() float64 {
	if len(s.Tiles) == 0 {
		return 0
	}

	var captured int
	for _, t := range s.Tiles {
		if t.IsCaptured {
			captured++
		}
	}
	return float64(captured) / float64(len(s.Tiles))
}

// IsBusyUpdatingTiles reports whether the tiles wait for a relayout. Tiles
// of a busy side are ignored by hit tests.
func (s *Side) IsBusyUpdatingTiles() bool {
	return s.isBusyUpdatingTiles
}

// Normal returns the outward normal of the side in box coordinates.
func (s *Side) Normal() mgl64.Vec3 {
	return s.Position.Normal()
}

// DragAxis returns the axis along which the side is dragged.
func (s *Side) DragAxis() Axis {
	return s.Position.DragAxis()
}

func (s *Side) ShowXAxisExtensions() { s.Hints.X = true }
func (s *Side) ShowYAxisExtensions() { s.Hints.Y = true }
func (s *Side) ShowZAxisExtensions() { s.Hints.Z = true }
func (s *Side) HideXAxisExtensions() { s.Hints.X = false }
func (s *Side) HideYAxisExtensions() { s.Hints.Y = false }
func (s *Side) HideZAxisExtensions() { s.Hints.Z = false }

// update schedules a tile relayout for a new box extent. Tiles keep their
// flags.
func (s *Side) update(boxExtent mgl64.Vec3) {
	s.pendingExtent = &boxExtent
	s.isBusyUpdatingTiles = true
}

// UpdateVisualizationIfNeeded applies a pending tile relayout.
func (s *Side) UpdateVisualizationIfNeeded() {
	if s.pendingExtent == nil {
		return
	}

	s.layoutTiles(*s.pendingExtent)
	s.pendingExtent = nil
	s.isBusyUpdatingTiles = false
}

func (s *Side) layoutTiles(boxExtent mgl64.Vec3) {
	s.extent = boxExtent

	u, v := s.Position.faceAxes()
	width := boxExtent[u]
	height := boxExtent[v]
	tileWidth := width / float64(s.gridSize)
	tileHeight := height / float64(s.gridSize)

	for row := 0; row < s.gridSize; row++ {
		for col := 0; col < s.gridSize; col++ {
			t := s.Tiles[row*s.gridSize+col]
			t.Offset = mgl64.Vec2{
				-width/2 + (float64(col)+0.5)*tileWidth,
				-height/2 + (float64(row)+0.5)*tileHeight,
			}
			t.Size = mgl64.Vec2{tileWidth, tileHeight}
		}
	}
}

// quad returns the face of the side, in box coordinates, for the given box
// extent.
func (s *Side) quad(boxExtent mgl64.Vec3) geometry.Quad {
	u, v := s.Position.faceAxes()
	axis := s.DragAxis()

	return geometry.Quad{
		Center:     s.Normal().Mul(boxExtent[axis] / 2),
		U:          u.Normal(),
		V:          v.Normal(),
		HalfWidth:  boxExtent[u] / 2,
		HalfHeight: boxExtent[v] / 2,
	}
}

// tileQuad returns the face of a tile in box coordinates using the current
// tile layout.
func (s *Side) tileQuad(i int) geometry.Quad {
	face := s.quad(s.extent)
	t := s.Tiles[i]

	return geometry.Quad{
		Center:     face.Center.Add(face.U.Mul(t.Offset[0])).Add(face.V.Mul(t.Offset[1])),
		U:          face.U,
		V:          face.V,
		HalfWidth:  t.Size[0] / 2,
		HalfHeight: t.Size[1] / 2,
	}
}

func (s *Side) resetTiles() {
	for _, t := range s.Tiles {
		t.reset()
	}
}

func (s *Side) updateTilesVisualization() {
	for _, t := range s.Tiles {
		t.UpdateVisualization()
	}
}
