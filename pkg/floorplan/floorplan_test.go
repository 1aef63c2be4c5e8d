package floorplan

import (
	"testing"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/trirep"
)

// gridGraph builds a w x h cell graph on integer positions, with no
// quadtree involved, for pipeline tests that only need the
// triangulate/label/room stages.
func gridGraph(w, h int) *Graph {
	g := NewGraph()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.nextID++
			id := g.nextID
			g.cells[id] = &Cell{
				ID:    id,
				Pos:   geom.Point2{X: float64(x), Y: float64(y)},
				Edges: make(map[int]bool),
				Rooms: make(map[int]bool),
				MinZ:  0,
				MaxZ:  2.5,
			}
		}
	}
	return g
}

// fullCoveragePoses treats every cell as observed by a single pose at
// the grid's centroid, and its sequence is just that one pose, so every
// pose->cell trace sweeps the whole grid.
type fullCoveragePoses struct {
	origin geom.Point2
	cells  []int
	graph  *Graph
}

func (p *fullCoveragePoses) PosePosition(pose int) (geom.Point2, float64) { return p.origin, 1.0 }
func (p *fullCoveragePoses) PoseSequence() []int                         { return []int{0} }
func (p *fullCoveragePoses) HeightBand() (float64, float64)              { return 0, 2 }

func newFullCoveragePoses(g *Graph, origin geom.Point2) *fullCoveragePoses {
	for _, id := range g.Cells() {
		g.cells[id].Poses = []int{0}
	}
	return &fullCoveragePoses{origin: origin, graph: g}
}

func TestPipelineGridFloodsToSingleRoom(t *testing.T) {
	g := gridGraph(10, 10)
	poses := newFullCoveragePoses(g, geom.Point2{X: 4.5, Y: 4.5})

	store, err := g.Triangulate(7)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g.LabelInterior(store, poses)
	rooms := g.BuildRooms(store)

	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
}

func TestPipelineDropsUnvisitedRooms(t *testing.T) {
	g := gridGraph(6, 6)
	store, err := g.Triangulate(3)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	// No poses, nothing ever traced: every triangle starts unvisited.
	rooms := g.BuildRooms(store)
	if len(rooms) != 0 {
		t.Errorf("expected 0 rooms when nothing was visited, got %d", len(rooms))
	}
}

func TestRoomHeightsIsMedianOfMembers(t *testing.T) {
	g := gridGraph(4, 4)
	poses := newFullCoveragePoses(g, geom.Point2{X: 1.5, Y: 1.5})
	for i, id := range g.Cells() {
		g.cells[id].MinZ = float64(i%3) * 0.1
		g.cells[id].MaxZ = 2.0 + float64(i%3)*0.1
	}

	store, err := g.Triangulate(11)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g.LabelInterior(store, poses)
	rooms := g.BuildRooms(store)
	heights := g.RoomHeights(rooms)

	if len(heights) != 1 {
		t.Fatalf("expected 1 room's height band, got %d", len(heights))
	}
	for _, h := range heights {
		if h.MaxZ <= h.MinZ {
			t.Errorf("expected MaxZ > MinZ, got min=%f max=%f", h.MinZ, h.MaxZ)
		}
	}
}

func TestBuildRoomIndexQuery(t *testing.T) {
	g := gridGraph(8, 8)
	poses := newFullCoveragePoses(g, geom.Point2{X: 3.5, Y: 3.5})
	store, err := g.Triangulate(9)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	g.LabelInterior(store, poses)
	rooms := g.BuildRooms(store)
	heights := g.RoomHeights(rooms)

	idx := BuildRoomIndex(store, rooms, heights)
	if idx.Count() != 1 {
		t.Fatalf("expected 1 indexed room, got %d", idx.Count())
	}
	hits := idx.At(geom.Point2{X: 3, Y: 3})
	if len(hits) != 1 {
		t.Errorf("expected the center point to hit the single room, got %d hits", len(hits))
	}
	miss := idx.Query(100, 100, 101, 101)
	if len(miss) != 0 {
		t.Errorf("expected no hits far outside the grid, got %d", len(miss))
	}
}

// collinearLoop builds a square loop of n cells per side (4*(n-1) cells
// total), each sharing an edge with its two loop-neighbors, simulating a
// simplification-ready ring of ordinary wall cells.
func collinearLoop(side int) *Graph {
	g := NewGraph()
	var ring []geom.Point2
	for x := 0; x < side; x++ {
		ring = append(ring, geom.Point2{X: float64(x), Y: 0})
	}
	for y := 1; y < side; y++ {
		ring = append(ring, geom.Point2{X: float64(side - 1), Y: float64(y)})
	}
	for x := side - 2; x >= 0; x-- {
		ring = append(ring, geom.Point2{X: float64(x), Y: float64(side - 1)})
	}
	for y := side - 2; y > 0; y-- {
		ring = append(ring, geom.Point2{X: 0, Y: float64(y)})
	}

	ids := make([]int, len(ring))
	for i, p := range ring {
		g.nextID++
		id := g.nextID
		g.cells[id] = &Cell{ID: id, Pos: p, Edges: make(map[int]bool), Rooms: map[int]bool{1: true, 2: true}}
		ids[i] = id
	}
	for i := range ids {
		g.AddEdge(ids[i], ids[(i+1)%len(ids)])
	}
	return g
}

func TestCollapseStraightensReducesCollinearLoopToCorners(t *testing.T) {
	g := collinearLoop(6) // 20 cells around the perimeter of a 6x6 square
	if len(g.cells) != 20 {
		t.Fatalf("expected 20 perimeter cells, got %d", len(g.cells))
	}

	g.collapseStraightens(5 * 0.0174533) // ~5 degrees

	corners := 0
	for _, id := range g.Cells() {
		c := g.cells[id]
		if len(c.Edges) != 2 {
			continue
		}
		a, b := c.neighborPair()
		angle := wallAngle(g.cells[a].Pos, c.Pos, g.cells[b].Pos)
		if angle < 3.0 { // not a straight run: a genuine corner
			corners++
		}
	}
	if len(g.cells) != 4 {
		t.Errorf("expected straightening to collapse the loop to 4 corner cells, got %d cells remaining", len(g.cells))
	}
	if corners != 4 {
		t.Errorf("expected 4 surviving corner cells, got %d", corners)
	}
}

func TestSwallowInterroomColumnsMergesSmallSharedComponent(t *testing.T) {
	g := NewGraph()
	// A short two-cell wall segment shared by rooms 1 and 2, well under
	// the minimum room perimeter.
	g.nextID = 2
	g.cells[1] = &Cell{ID: 1, Pos: geom.Point2{X: 0, Y: 0}, Edges: map[int]bool{2: true}, Rooms: map[int]bool{1: true}}
	g.cells[2] = &Cell{ID: 2, Pos: geom.Point2{X: 0.1, Y: 0}, Edges: map[int]bool{1: true}, Rooms: map[int]bool{2: true, 1: true}}

	g.swallowInterroomColumns(DefaultSimplifyParams.MinRoomPerimeter)

	for _, id := range g.Cells() {
		if len(g.cells[id].Rooms) != 1 {
			t.Errorf("cell %d: expected exactly one dominant room after swallowing, got %v", id, g.cells[id].Rooms)
		}
	}
}

func TestAddBoundaryEdgesMarksHullAsBoundary(t *testing.T) {
	g := gridGraph(5, 5)
	store, err := g.Triangulate(2)
	if err != nil {
		t.Fatalf("Triangulate: %v", err)
	}
	rooms := map[trirep.TriKey][]trirep.TriKey{}
	for _, k := range store.SortedKeys() {
		rooms[k] = []trirep.TriKey{k} // every triangle its own room: forces every internal edge to disagree
	}
	g.AddBoundaryEdges(store, rooms)

	total := 0
	for _, id := range g.Cells() {
		total += len(g.cells[id].Edges)
	}
	if total == 0 {
		t.Error("expected at least some boundary edges to be added")
	}
}
