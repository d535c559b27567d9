package scan

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	capturedOpacity    = 0.5
	highlightedOpacity = 0.35
)

// Tile is the smallest capture unit of a side.
type Tile struct {
	ID NodeID

	IsCaptured    bool
	IsHighlighted bool

	// Center and size of the tile in the side's face coordinates (u, v).
	Offset mgl64.Vec2
	Size   mgl64.Vec2

	opacity float64
}

// UpdateVisualization recomputes the tile opacity from its flags.
func (t *Tile) UpdateVisualization() {
	var opacity float64
	if t.IsCaptured {
		opacity += capturedOpacity
	}
	if t.IsHighlighted {
		opacity += highlightedOpacity
	}
	t.opacity = opacity
}

// Opacity returns the opacity computed during the last UpdateVisualization.
func (t *Tile) Opacity() float64 {
	return t.opacity
}

func (t *Tile) reset() {
	t.IsCaptured = false
	t.IsHighlighted = false
	t.UpdateVisualization()
}
