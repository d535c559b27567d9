package scan

import (
	"sort"
)

// NodeID identifies a hit-testable node of a bounding box.
type NodeID uint32

// NodeKind tells what a node is.
type NodeKind int

const (
	NodeOther NodeKind = iota
	NodeSide
	NodeTile
)

func (k NodeKind) String() string {
	switch k {
	case NodeSide:
		return "side"
	case NodeTile:
		return "tile"
	default:
		return "other"
	}
}

// Node describes a registered node. Tile is the index of the tile in its side
// and is only meaningful for NodeTile.
type Node struct {
	ID   NodeID
	Kind NodeKind
	Side SidePosition
	Tile int
}

// NodeTable maps node ids to the bounding box parts they represent.
type NodeTable struct {
	lastID NodeID
	nodes  map[NodeID]Node
}

func newNodeTable() *NodeTable {
	return &NodeTable{
		nodes: make(map[NodeID]Node),
	}
}

func (t *NodeTable) register(kind NodeKind, side SidePosition, tile int) NodeID {
	t.lastID++
	id := t.lastID
	t.nodes[id] = Node{
		ID:   id,
		Kind: kind,
		Side: side,
		Tile: tile,
	}
	return id
}

// Lookup returns the node registered under the given id.
func (t *NodeTable) Lookup(id NodeID) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Kind returns the kind of the given node. Unknown ids are NodeOther.
func (t *NodeTable) Kind(id NodeID) NodeKind {
	n, ok := t.Lookup(id)
	if !ok {
		return NodeOther
	}
	return n.Kind
}

// Nodes returns the registered nodes ordered by id.
func (t *NodeTable) Nodes() []Node {
	nodes := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		nodes = append(nodes, n)
	}

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

func (t *NodeTable) Len() int {
	return len(t.nodes)
}
