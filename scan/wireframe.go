package scan

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Edge is a segment of the wireframe in box coordinates.
type Edge struct {
	From mgl64.Vec3
	To   mgl64.Vec3
}

// Wireframe holds the 12 edges of the bounding box.
type Wireframe struct {
	Edges [12]Edge
}

func newWireframe(extent mgl64.Vec3) *Wireframe {
	w := &Wireframe{}
	w.update(extent)
	return w
}

func (w *Wireframe) update(extent mgl64.Vec3) {
	h := extent.Mul(0.5)
	corner := func(x, y, z float64) mgl64.Vec3 {
		return mgl64.Vec3{x * h[0], y * h[1], z * h[2]}
	}

	i := 0
	for _, a := range []float64{-1, 1} {
		for _, b := range []float64{-1, 1} {
			w.Edges[i] = Edge{From: corner(-1, a, b), To: corner(1, a, b)}
			w.Edges[i+1] = Edge{From: corner(a, -1, b), To: corner(a, 1, b)}
			w.Edges[i+2] = Edge{From: corner(a, b, -1), To: corner(a, b, 1)}
			i += 3
		}
	}
}
