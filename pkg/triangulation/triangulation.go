// Package triangulation implements the link-ring-based incremental
// Delaunay triangulation (C3): a Bowyer-Watson insertion scheme in which
// the link-ring of each vertex is the sole topology store, following the
// Blandford-Blelloch-Cardoze-Kadow star representation spec.md §2
// describes.
package triangulation

import (
	"errors"
	"fmt"

	"github.com/dqcore/reconstruct/pkg/geom"
)

// GhostVertex is the reserved id (0) representing the point at infinity,
// used to close the convex hull so every hull edge bounds exactly two
// triangles.
const GhostVertex = 0

// Vertex holds a 2D position, an opaque back-reference to caller data
// (used only by exporters), and a ZOrder slot. BRIO reordering computes
// its z-order keys internally and does not store them here, so
// BuildFromPoints and InsertVertex leave ZOrder zero.
type Vertex struct {
	Pos    geom.Point2
	Ref    any
	ZOrder uint64
}

var (
	// ErrNotStarted is returned by operations that require
	// BeginTriangulation to have run first.
	ErrNotStarted = errors.New("triangulation: not started")
	// ErrAlreadyStarted is returned by BeginTriangulation if called twice.
	ErrAlreadyStarted = errors.New("triangulation: already started")
	// ErrCavityTooSmall is returned when a cavity has fewer than 3 edges.
	ErrCavityTooSmall = errors.New("triangulation: cavity has fewer than 3 edges")
	// ErrLocateLooping is returned when point location exceeds its step
	// budget. This resolves spec.md §9's open question about tri_locate's
	// "LOOPING!" bug: rather than silently returning a wrong triangle, a
	// bounded walk reports a clean error.
	ErrLocateLooping = errors.New("triangulation: point location did not converge")
)

// Triangulation is an incremental 2D Delaunay triangulation. Vertex id 0
// is always the ghost vertex; all other ids are 1-based in insertion
// order.
type Triangulation struct {
	verts     []Vertex // verts[0] is an unused placeholder for the ghost
	rings     [][]int  // rings[v] is the link-ring of vertex v
	started   bool
	walkStart [3]int // (v, ring[0], ring[1]) of the most recently touched triangle
}

// New returns an empty triangulation. Call BeginTriangulation before
// inserting further vertices.
func New() *Triangulation {
	t := &Triangulation{
		verts: make([]Vertex, 1),
		rings: make([][]int, 1),
	}
	return t
}

// NumVertices returns the number of real (non-ghost) vertices.
func (t *Triangulation) NumVertices() int { return len(t.verts) - 1 }

// Vertex returns the stored vertex record for id (id must be >= 1).
func (t *Triangulation) Vertex(id int) Vertex { return t.verts[id] }

// Pos returns the position of vertex id.
func (t *Triangulation) Pos(id int) geom.Point2 { return t.pos(id) }

// Ring returns the link-ring of vertex id (copy-free view; callers must
// not mutate it).
func (t *Triangulation) Ring(id int) []int { return t.rings[id] }

// SetRing replaces vertex v's link-ring wholesale. Intended for the
// topology mutations pkg/trirep performs (edge collapse, boundary-vertex
// removal); callers are responsible for keeping cyclic order and mutual
// references across every affected ring consistent.
func (t *Triangulation) SetRing(v int, ring []int) {
	t.rings[v] = ring
}

// DeleteVertex tombstones v by clearing its ring. The vertex id itself
// stays reserved (ids never get reused) so other callers holding it see
// a vertex with no ring rather than a silently repurposed slot.
func (t *Triangulation) DeleteVertex(v int) {
	t.rings[v] = nil
}

// Apex returns the vertex w such that (p, q, w) is a CCW triangle, or
// false if p and q are not currently linked.
func (t *Triangulation) Apex(p, q int) (int, bool) { return t.apex(p, q) }

// Triangles returns every interior triangle (neither vertex the ghost) as
// a canonicalized CCW triple (a, b, c) with a = min(a, b, c), each
// appearing exactly once.
func (t *Triangulation) Triangles() [][3]int {
	return t.enumerateTriangles(true)
}

// AllTriangles is Triangles but also includes the ghost-incident
// triangles that close the convex hull.
func (t *Triangulation) AllTriangles() [][3]int {
	return t.enumerateTriangles(false)
}

func (t *Triangulation) enumerateTriangles(excludeGhost bool) [][3]int {
	seen := make(map[[3]int]bool)
	var out [][3]int
	for v := range t.rings {
		ring := t.rings[v]
		if ring == nil {
			continue
		}
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b, c := v, ring[i], ring[(i+1)%n]
			if excludeGhost && (a == GhostVertex || b == GhostVertex || c == GhostVertex) {
				continue
			}
			key := CanonicalTriangle(a, b, c)
			if !seen[key] {
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	return out
}

// CanonicalTriangle rotates (a, b, c) so its smallest id leads, without
// disturbing the CCW cyclic order.
func CanonicalTriangle(a, b, c int) [3]int {
	for a > b || a > c {
		a, b, c = b, c, a
	}
	return [3]int{a, b, c}
}

// BeginTriangulation seeds the triangulation with its first two vertices,
// producing the hull triangle and its anti-hull twin through the ghost
// (spec.md §4 invariant: "two vertices plus the ghost form exactly two
// triangles").
func (t *Triangulation) BeginTriangulation(p1, p2 geom.Point2, ref1, ref2 any) (v1, v2 int, err error) {
	if t.started {
		return 0, 0, ErrAlreadyStarted
	}
	t.verts = append(t.verts, Vertex{Pos: p1, Ref: ref1}, Vertex{Pos: p2, Ref: ref2})
	v1, v2 = 1, 2
	t.rings = append(t.rings, nil, nil)

	t.rings[GhostVertex] = []int{v1, v2}
	t.rings[v1] = []int{v2, GhostVertex}
	t.rings[v2] = []int{GhostVertex, v1}

	t.started = true
	t.walkStart = [3]int{GhostVertex, v1, v2}
	return v1, v2, nil
}

// addVertexRaw appends a new vertex record (with an empty ring) and
// returns its id, without touching any topology.
func (t *Triangulation) addVertexRaw(pos geom.Point2, ref any) int {
	t.verts = append(t.verts, Vertex{Pos: pos, Ref: ref})
	t.rings = append(t.rings, nil)
	return len(t.verts) - 1
}

func (t *Triangulation) pos(id int) geom.Point2 {
	return t.verts[id].Pos
}

// apex returns the vertex w such that (p, q, w) is a CCW triangle of the
// current triangulation, by looking at the entry following q in p's ring.
func (t *Triangulation) apex(p, q int) (int, bool) {
	ring := t.rings[p]
	idx := ringIndexOf(ring, q)
	if idx < 0 {
		return 0, false
	}
	return ring[(idx+1)%len(ring)], true
}

func ringIndexOf(ring []int, v int) int {
	for i, x := range ring {
		if x == v {
			return i
		}
	}
	return -1
}

// replaceRange implements linkring_replace_range: given a ring containing
// v0 and vf, deletes every element strictly between them (moving CCW) and
// splices w in between, i.e. [..., v0, ..., vf, ...] -> [..., v0, w, vf, ...].
func replaceRange(ring []int, v0, vf, w int) ([]int, error) {
	idx0 := ringIndexOf(ring, v0)
	idxf := ringIndexOf(ring, vf)
	if idx0 < 0 || idxf < 0 {
		return nil, fmt.Errorf("triangulation: replaceRange: endpoint not found in ring %v (v0=%d vf=%d)", ring, v0, vf)
	}
	n := len(ring)
	out := make([]int, 0, n+1)
	out = append(out, v0, w)
	for i := idxf; i != idx0; i = (i + 1) % n {
		out = append(out, ring[i])
	}
	return out, nil
}

// InsertVertex inserts a new point into the triangulation via
// Bowyer-Watson cavity replacement, and returns its assigned id.
func (t *Triangulation) InsertVertex(pos geom.Point2, ref any) (int, error) {
	if !t.started {
		return 0, ErrNotStarted
	}

	p, q, r, err := t.locate(pos)
	if err != nil && !errors.Is(err, ErrLocateLooping) {
		return 0, err
	}
	locateErr := err

	id := t.addVertexRaw(pos, ref)

	var cavity []int
	if p != GhostVertex && q != GhostVertex && r != GhostVertex {
		cavity, err = t.growCavityInsideHull([]int{p, q, r}, pos)
	} else {
		cavity, err = t.growCavityOutsideHull(p, q, r, pos)
	}
	if err != nil {
		// Roll back the speculatively appended vertex slot; Go has no
		// dangling allocation to leak, but a half-registered vertex with
		// no ring would corrupt later lookups.
		t.verts = t.verts[:len(t.verts)-1]
		t.rings = t.rings[:len(t.rings)-1]
		return 0, err
	}
	if len(cavity) < 3 {
		t.verts = t.verts[:len(t.verts)-1]
		t.rings = t.rings[:len(t.rings)-1]
		return 0, ErrCavityTooSmall
	}

	n := len(cavity)
	for i, w := range cavity {
		prev := cavity[(i-1+n)%n]
		next := cavity[(i+1)%n]
		newRing, err := replaceRange(t.rings[w], next, prev, id)
		if err != nil {
			t.verts = t.verts[:len(t.verts)-1]
			t.rings = t.rings[:len(t.rings)-1]
			return 0, fmt.Errorf("triangulation: splicing new vertex into neighbor %d's ring: %w", w, err)
		}
		t.rings[w] = newRing
	}
	t.rings[id] = cavity
	t.walkStart = [3]int{id, cavity[0], cavity[1]}

	if locateErr != nil {
		// Point location didn't converge cleanly but accepted a
		// plausible containing triangle; surface that to the caller as a
		// non-fatal warning signal alongside the (valid) insertion.
		return id, locateErr
	}
	return id, nil
}

// locate performs walk-from-last point location: starting at the most
// recently touched triangle, cross whichever edge the target lies on the
// wrong side of. Ghost-adjacent edges are never crossed (the ghost
// triangle is "outside the hull" and is itself a valid answer). The walk
// is bounded to guarantee progress; exceeding the bound returns
// ErrLocateLooping alongside the last triangle visited, rather than
// silently returning a wrong answer.
func (t *Triangulation) locate(target geom.Point2) (p, q, r int, err error) {
	p, q, r = t.walkStart[0], t.walkStart[1], t.walkStart[2]
	maxSteps := 2*len(t.verts) + 8

	for step := 0; step < maxSteps; step++ {
		type edge struct{ a, b, c int }
		edges := [3]edge{{p, q, r}, {q, r, p}, {r, p, q}}

		crossed := false
		for _, e := range edges {
			if e.a == GhostVertex || e.b == GhostVertex {
				continue // hull edge to infinity: never crossed
			}
			if geom.Orient2D(t.pos(e.a), t.pos(e.b), target) < 0 {
				next, ok := t.apex(e.b, e.a)
				if !ok {
					return p, q, r, fmt.Errorf("triangulation: locate: broken topology crossing edge (%d,%d)", e.a, e.b)
				}
				p, q, r = e.b, e.a, next
				crossed = true
				break
			}
		}
		if !crossed {
			return p, q, r, nil
		}
	}
	return p, q, r, ErrLocateLooping
}

// growCavityInsideHull grows a CCW starting cavity ring (the containing
// triangle, or the ring growCavityOutsideHull built) into the full
// Bowyer-Watson cavity, via DFS expansion of its finite edges under the
// incircle test.
func (t *Triangulation) growCavityInsideHull(ring []int, v geom.Point2) ([]int, error) {
	type edge struct{ a, b int }
	var stack []edge
	for i, a := range ring {
		if b := ring[(i+1)%len(ring)]; a != GhostVertex && b != GhostVertex {
			stack = append(stack, edge{a, b})
		}
	}

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idxA := ringIndexOf(ring, e.a)
		if idxA < 0 || ring[(idxA+1)%len(ring)] != e.b {
			continue // this edge no longer exists in the growing ring
		}

		apexVertex, ok := t.apex(e.b, e.a)
		if !ok {
			continue
		}
		if apexVertex == GhostVertex {
			continue // hull boundary edge: cavity does not grow past it
		}

		if geom.Incircle(t.pos(e.b), t.pos(e.a), t.pos(apexVertex), v) > 0 {
			newRing := make([]int, 0, len(ring)+1)
			newRing = append(newRing, ring[:idxA+1]...)
			newRing = append(newRing, apexVertex)
			newRing = append(newRing, ring[idxA+1:]...)
			ring = newRing
			stack = append(stack, edge{e.a, apexVertex}, edge{apexVertex, e.b})
		}
		// else: incircle <= 0 (on-circle counts as "do not expand", per
		// spec.md §4.1), so (e.a, e.b) remains a boundary edge.
	}

	return ring, nil
}

// growCavityOutsideHull builds the cavity for a target located beyond the
// hull, by walking the ghost's link-ring (the hull boundary) both
// forward and backward from the containing ghost-triangle's finite edge,
// swallowing hull vertices that the target can also see, then closing the
// ring with the ghost; that ring is then grown across its finite edges by
// growCavityInsideHull's incircle test.
func (t *Triangulation) growCavityOutsideHull(p, q, r int, v geom.Point2) ([]int, error) {
	// Rotate so the ghost is first: (ghost, a, b) CCW.
	var a, b int
	switch GhostVertex {
	case p:
		a, b = q, r
	case q:
		a, b = r, p
	case r:
		a, b = p, q
	default:
		return nil, errors.New("triangulation: growCavityOutsideHull called on a finite triangle")
	}

	ring := []int{a, b}
	ghostRing := t.rings[GhostVertex]
	hullLen := len(ghostRing)

	// Expand forward from b.
	for i := 0; i < hullLen; i++ {
		idx := ringIndexOf(ghostRing, b)
		if idx < 0 {
			break
		}
		c := ghostRing[(idx+1)%hullLen]
		if c == a {
			break
		}
		if geom.Orient2D(t.pos(b), t.pos(c), v) <= 0 {
			break
		}
		ring = append(ring, c)
		b = c
	}

	// Expand backward from a.
	for i := 0; i < hullLen; i++ {
		idx := ringIndexOf(ghostRing, a)
		if idx < 0 {
			break
		}
		z := ghostRing[(idx-1+hullLen)%hullLen]
		if z == b {
			break
		}
		if geom.Orient2D(t.pos(z), t.pos(a), v) <= 0 {
			break
		}
		ring = append([]int{z}, ring...)
		a = z
	}

	ring = append(ring, GhostVertex)
	return t.growCavityInsideHull(ring, v)
}
