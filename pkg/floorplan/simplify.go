package floorplan

import (
	"container/heap"
	"math"

	"github.com/dqcore/reconstruct/internal/unionfind"
	"github.com/dqcore/reconstruct/pkg/geom"
)

// SimplifyParams controls the wall-graph simplification pass (§4.5 step
// 6): sharp-angle threshold (radians), QEM error threshold (negative
// disables), antiparallel threshold (radians), and the minimum room
// perimeter below which a bordering-two-rooms component is swallowed
// into an interroom column.
type SimplifyParams struct {
	SharpAngleThreshold float64
	QEMThreshold        float64
	ParallelThreshold   float64
	MinRoomPerimeter    float64
}

// DefaultSimplifyParams mirrors the CLI defaults: a 0.05m QEM threshold,
// and sharp/straighten angle thresholds tight enough to only catch
// genuinely redundant ordinary cells.
var DefaultSimplifyParams = SimplifyParams{
	SharpAngleThreshold: 10 * math.Pi / 180,
	QEMThreshold:        0.05,
	ParallelThreshold:   5 * math.Pi / 180,
	MinRoomPerimeter:    4 * 1.524, // ADA_PASSING_SPACE * 4
}

// Simplify runs sharps, QEM collapse, straightens, and interroom-column
// swallowing against the wall graph's current edges, in that order,
// mutating g in place.
func (g *Graph) Simplify(p SimplifyParams) {
	g.collapseSharps(p.SharpAngleThreshold)
	g.collapseQEM(p.QEMThreshold)
	g.collapseStraightens(p.ParallelThreshold)
	g.swallowInterroomColumns(p.MinRoomPerimeter)
}

// collapseSharps removes any ordinary cell whose two wall edges meet at
// an angle below threshold, unless its surviving neighbor is itself a
// sharp that should be kept — approximated here by refusing to collapse
// a cell into a neighbor that is not itself ordinary, which keeps a
// genuine corner pair from collapsing into each other in one pass.
func (g *Graph) collapseSharps(threshold float64) {
	for _, id := range g.Cells() {
		c := g.cells[id]
		if c == nil || !c.IsOrdinary() {
			continue
		}
		a, b := c.neighborPair()
		angle := wallAngle(g.cells[a].Pos, c.Pos, g.cells[b].Pos)
		if angle >= threshold {
			continue
		}
		if na := g.cells[a]; na == nil || !na.IsOrdinary() {
			continue
		}
		g.collapseCellInto(id, a)
	}
}

// collapseStraightens removes any ordinary cell whose two edges are
// antiparallel to within threshold of exactly pi (a straight run of
// wall cells that adds no shape information).
func (g *Graph) collapseStraightens(threshold float64) {
	for _, id := range g.Cells() {
		c := g.cells[id]
		if c == nil || !c.IsOrdinary() {
			continue
		}
		a, b := c.neighborPair()
		angle := wallAngle(g.cells[a].Pos, c.Pos, g.cells[b].Pos)
		if math.Abs(angle-math.Pi) >= threshold {
			continue
		}
		g.collapseCellInto(id, a)
	}
}

// wallAngle returns the interior angle at mid formed by the segments
// from->mid and mid->to, in [0, pi].
func wallAngle(from, mid, to geom.Point2) float64 {
	ux, uy := mid.X-from.X, mid.Y-from.Y
	vx, vy := to.X-mid.X, to.Y-mid.Y
	ul := math.Hypot(ux, uy)
	vl := math.Hypot(vx, vy)
	if ul == 0 || vl == 0 {
		return math.Pi
	}
	cos := (ux*vx + uy*vy) / (ul * vl)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Pi - math.Acos(cos)
}

// collapseCellInto removes cell src, rewiring its remaining edge
// neighbor directly to dst and merging src's rooms and height band into
// dst. This is the cell-graph-level analog of C4's collapse_edge,
// operating on the wall graph's cells rather than triangulation
// vertices directly.
func (g *Graph) collapseCellInto(src, dst int) {
	c := g.cells[src]
	if c == nil {
		return
	}
	d := g.cells[dst]
	for n := range c.Edges {
		if n == dst {
			continue
		}
		g.AddEdge(dst, n)
	}
	for r := range c.Rooms {
		d.Rooms[r] = true
	}
	d.MinZ = math.Min(d.MinZ, c.MinZ)
	d.MaxZ = math.Max(d.MaxZ, c.MaxZ)
	for i := range c.QEM {
		d.QEM[i] += c.QEM[i]
	}
	g.RemoveCell(src)
}

// qemEdge is a candidate wall-graph edge collapse, ordered by the
// quadratic-error cost of collapsing it.
type qemEdge struct {
	a, b int
	cost float64
}

type qemHeap []qemEdge

func (h qemHeap) Len() int            { return len(h) }
func (h qemHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h qemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *qemHeap) Push(x interface{}) { *h = append(*h, x.(qemEdge)) }
func (h *qemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// collapseQEM pops wall-graph edges in increasing quadratic-error-cost
// order, collapsing each below threshold into its lower-id endpoint
// (threshold < 0 disables the pass entirely).
func (g *Graph) collapseQEM(threshold float64) {
	if threshold < 0 {
		return
	}

	h := &qemHeap{}
	heap.Init(h)
	for _, id := range g.Cells() {
		c := g.cells[id]
		for n := range c.Edges {
			if n <= id {
				continue
			}
			heap.Push(h, qemEdge{a: id, b: n, cost: qemCost(c, g.cells[n])})
		}
	}

	for h.Len() > 0 {
		e := heap.Pop(h).(qemEdge)
		ca, cb := g.cells[e.a], g.cells[e.b]
		if ca == nil || cb == nil {
			continue
		}
		if !ca.Edges[e.b] {
			continue // stale entry from an already-collapsed edge
		}
		if e.cost >= threshold {
			continue
		}
		g.collapseCellInto(e.b, e.a)

		for n := range ca.Edges {
			if nc := g.cells[n]; nc != nil {
				heap.Push(h, qemEdge{a: e.a, b: n, cost: qemCost(ca, nc)})
			}
		}
	}
}

// qemCost evaluates a's accumulated error matrix at b's position (the
// minimum of the two endpoints' matrix evaluations, per §4.5).
func qemCost(a, b *Cell) float64 {
	return math.Min(evalQEM(a.QEM, b.Pos), evalQEM(b.QEM, a.Pos))
}

// evalQEM evaluates the accumulated symmetric error matrix [xx,xy,xz,yy,yz,zz]
// (affine form over homogeneous (x,y,1)) at point p.
func evalQEM(q [6]float64, p geom.Point2) float64 {
	x, y := p.X, p.Y
	return q[0]*x*x + 2*q[1]*x*y + 2*q[2]*x + q[3]*y*y + 2*q[4]*y + q[5]
}

// swallowInterroomColumns finds connected components of wall-graph edges
// whose total perimeter is below minPerimeter and which border at least
// two distinct rooms, then merges their cells into the dominant
// (largest-membership) bordering room via union-find, matching spec.md's
// "find connected components ... fill them ... assigned to the dominant
// room".
func (g *Graph) swallowInterroomColumns(minPerimeter float64) {
	uf := unionfind.New[int]()
	for _, id := range g.Cells() {
		uf.Union(id, id)
		for n := range g.cells[id].Edges {
			uf.Union(id, n)
		}
	}

	groups := uf.Groups()
	for _, members := range groups {
		perimeter := 0.0
		rooms := make(map[int]int) // room id -> member count
		for _, id := range members {
			c := g.cells[id]
			for n := range c.Edges {
				if n > id {
					perimeter += c.Pos.Dist(g.cells[n].Pos)
				}
			}
			for r := range c.Rooms {
				rooms[r]++
			}
		}
		if perimeter >= minPerimeter || len(rooms) < 2 {
			continue
		}

		dominant, best := -1, -1
		var roomIDs []int
		for r := range rooms {
			roomIDs = append(roomIDs, r)
		}
		sortInts(roomIDs)
		for _, r := range roomIDs {
			if rooms[r] > best {
				dominant, best = r, rooms[r]
			}
		}
		for _, id := range members {
			g.cells[id].Rooms = map[int]bool{dominant: true}
		}
	}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
