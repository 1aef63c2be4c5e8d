// Package floorplan implements the floor-plan pipeline (C5): populating a
// cell graph from a quadtree, triangulating it, labeling interior
// triangles by raytracing the sensor path, flood-filling rooms, and
// simplifying the resulting wall graph.
package floorplan

import (
	"sort"

	"github.com/dqcore/reconstruct/internal/unionfind"
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/quadtree"
)

// Cell is a single grid-cell sample in the floor-plan wall graph: an
// averaged 2D position, an outward normal, the poses that observed it, a
// height range, its C3 vertex id once triangulated, its edge neighbors,
// an accumulated quadric-error matrix, its union-find membership, and
// the set of rooms touching it.
type Cell struct {
	ID       int
	Pos      geom.Point2
	Normal   geom.Point2
	Poses    []int
	MinZ     float64
	MaxZ     float64
	VertexID int // 0 until triangulated (0 also happens to be the ghost id, but cells never reference it before Triangulate runs)
	Edges    map[int]bool
	QEM      [6]float64 // symmetric 2x2-over-affine error matrix: xx, xy, xz, yy, yz, zz (z holds the constant term)
	Rooms    map[int]bool

	unionID int
}

// Graph is the cell graph (the floor-plan's working wall/room topology).
type Graph struct {
	cells  map[int]*Cell
	nextID int
	uf     *unionfind.UnionFind[int]
}

// NewGraph returns an empty cell graph.
func NewGraph() *Graph {
	return &Graph{
		cells: make(map[int]*Cell),
		uf:    unionfind.New[int](),
	}
}

// PopulateFromQuadtree creates one cell per populated quadtree leaf,
// copying its aggregated position, normal, and pose set.
func (g *Graph) PopulateFromQuadtree(tr *quadtree.Tree) {
	for _, d := range tr.All() {
		g.addCell(d)
	}
}

func (g *Graph) addCell(d *quadtree.Data) *Cell {
	g.nextID++
	id := g.nextID
	c := &Cell{
		ID:     id,
		Pos:    d.Average,
		Normal: d.Norm,
		Poses:  d.PoseList(),
		Edges:  make(map[int]bool),
		Rooms:  make(map[int]bool),
	}
	g.cells[id] = c
	g.uf.Union(id, id)
	return c
}

// Cell returns the cell with id, or nil.
func (g *Graph) Cell(id int) *Cell { return g.cells[id] }

// Cells returns every cell id in ascending order.
func (g *Graph) Cells() []int {
	ids := make([]int, 0, len(g.cells))
	for id := range g.cells {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AddEdge links a and b bidirectionally.
func (g *Graph) AddEdge(a, b int) {
	g.cells[a].Edges[b] = true
	g.cells[b].Edges[a] = true
}

// RemoveEdge unlinks a and b bidirectionally.
func (g *Graph) RemoveEdge(a, b int) {
	delete(g.cells[a].Edges, b)
	delete(g.cells[b].Edges, a)
}

// RemoveCell deletes a cell and every edge referencing it.
func (g *Graph) RemoveCell(id int) {
	c := g.cells[id]
	if c == nil {
		return
	}
	for n := range c.Edges {
		delete(g.cells[n].Edges, id)
	}
	delete(g.cells, id)
}

// IsOrdinary reports whether a cell has exactly two edge-neighbors, the
// precondition for sharps/straightens simplification.
func (c *Cell) IsOrdinary() bool { return len(c.Edges) == 2 }

// neighborPair returns a cell's two neighbors in map-iteration-stable
// (sorted) order; only meaningful when IsOrdinary is true.
func (c *Cell) neighborPair() (a, b int) {
	var ns []int
	for n := range c.Edges {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	return ns[0], ns[1]
}
