package scan

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// pointIndex answers radius queries over a point cloud.
type pointIndex struct {
	tree *kdtree.Tree
}

func newPointIndex(points []mgl64.Vec3) pointIndex {
	kdPoints := make(kdtree.Points, len(points))
	for i, p := range points {
		kdPoints[i] = kdtree.Point{p.X(), p.Y(), p.Z()}
	}
	return pointIndex{tree: kdtree.New(kdPoints, false)}
}

// countNeighbors counts the indexed points closer than radius to p, p
// excluded. p must belong to the index.
func (idx pointIndex) countNeighbors(p mgl64.Vec3, radius float64) int {
	squaredRadius := radius * radius

	keep := kdtree.NewDistKeeper(squaredRadius)
	idx.tree.NearestSet(keep, kdtree.Point{p.X(), p.Y(), p.Z()})

	// Distances are squared and the keeper is inclusive.
	var count int
	for _, n := range keep.Heap {
		if n.Comparable != nil && n.Dist < squaredRadius {
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return count - 1
}
