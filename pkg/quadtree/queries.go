package quadtree

import (
	"math"

	"github.com/dqcore/reconstruct/pkg/geom"
)

// NearestNeighbor returns the populated leaf data closest to p, performing
// a best-first descent pruned by the L-infinity distance from p to each
// node's bounding box (a cheap, admissible lower bound on the true
// Euclidean distance to anything the node could contain). Returns nil if
// the tree is empty.
func (t *Tree) NearestNeighbor(p geom.Point2) *Data {
	if t.root == nil {
		return nil
	}
	var best *Data
	bestDistSq := math.Inf(1)
	t.root.nearestNeighbor(p, &best, &bestDistSq)
	return best
}

// lowerBoundDistSq is an admissible (never an overestimate) lower bound on
// the squared distance from p to any point contained in a node with the
// given center and halfwidth.
func lowerBoundDistSq(p, center geom.Point2, halfwidth float64) float64 {
	d := p.DistLInf(center) - halfwidth
	if d <= 0 {
		return 0
	}
	return d * d
}

func (n *node) nearestNeighbor(p geom.Point2, best **Data, bestDistSq *float64) {
	if lowerBoundDistSq(p, n.center, n.halfwidth) >= *bestDistSq {
		return // pruned: this subtree cannot improve on the current best
	}

	if n.isLeaf() {
		if n.data == nil {
			return
		}
		d := n.data.Average.DistSq(p)
		if d < *bestDistSq {
			*bestDistSq = d
			*best = n.data
		}
		return
	}

	// Visit children nearest-center-first so pruning kicks in earlier.
	order := childVisitOrder(p, n.center)
	for _, idx := range order {
		if c := n.children[idx]; c != nil {
			c.nearestNeighbor(p, best, bestDistSq)
		}
	}
}

func childVisitOrder(p, center geom.Point2) [4]int {
	primary := childIndex(p, center)
	order := [4]int{primary, 0, 0, 0}
	j := 1
	for i := 0; i < 4; i++ {
		if i == primary {
			continue
		}
		order[j] = i
		j++
	}
	return order
}

// NeighborsInRange collects the data of every populated leaf within
// Euclidean distance r of p. r < 0 means unbounded range (collect every
// populated leaf). The result is not sorted.
func (t *Tree) NeighborsInRange(p geom.Point2, r float64) []*Data {
	var out []*Data
	if t.root == nil {
		return out
	}
	t.root.neighborsInRange(p, r, &out)
	return out
}

func (n *node) neighborsInRange(p geom.Point2, r float64, out *[]*Data) {
	if r >= 0 {
		// Prune if the closest possible point in this box is already
		// farther than r.
		closest := geom.Point2{
			X: clamp(p.X, n.center.X-n.halfwidth, n.center.X+n.halfwidth),
			Y: clamp(p.Y, n.center.Y-n.halfwidth, n.center.Y+n.halfwidth),
		}
		if closest.Dist(p) > r {
			return
		}
	}

	if n.isLeaf() {
		if n.data == nil {
			return
		}
		if r < 0 || n.data.Average.Dist(p) <= r {
			*out = append(*out, n.data)
		}
		return
	}

	for _, c := range n.children {
		if c != nil {
			c.neighborsInRange(p, r, out)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Raytrace collects every populated leaf whose node bounding box intersects
// segment a-b: an early-out on the segment's own AABB versus the node's
// box, followed by explicit intersection tests against the node's four
// edges (with horizontal/vertical segments short-circuited to a simple
// range check, matching spec.md §4.2).
func (t *Tree) Raytrace(a, b geom.Point2) []*Data {
	var out []*Data
	if t.root == nil {
		return out
	}
	seen := make(map[*Data]bool)
	t.root.raytrace(a, b, &out, seen)
	return out
}

func (n *node) raytrace(a, b geom.Point2, out *[]*Data, seen map[*Data]bool) {
	if !n.intersectsSegment(a, b) {
		return
	}

	if n.isLeaf() {
		if n.data != nil && !seen[n.data] {
			seen[n.data] = true
			*out = append(*out, n.data)
		}
		return
	}

	for _, c := range n.children {
		if c != nil {
			c.raytrace(a, b, out, seen)
		}
	}
}

// intersectsSegment reports whether segment a-b crosses this node's
// axis-aligned box.
func (n *node) intersectsSegment(a, b geom.Point2) bool {
	minX, maxX := n.center.X-n.halfwidth, n.center.X+n.halfwidth
	minY, maxY := n.center.Y-n.halfwidth, n.center.Y+n.halfwidth

	// AABB early-out: segment's own bounding box must overlap the node's.
	segMinX, segMaxX := a.X, b.X
	if segMinX > segMaxX {
		segMinX, segMaxX = segMaxX, segMinX
	}
	segMinY, segMaxY := a.Y, b.Y
	if segMinY > segMaxY {
		segMinY, segMaxY = segMaxY, segMinY
	}
	if segMaxX < minX || segMinX > maxX || segMaxY < minY || segMinY > maxY {
		return false
	}

	// Either endpoint inside the box is a trivial intersection.
	if n.contains(a) || n.contains(b) {
		return true
	}

	if a.X == b.X {
		// Vertical segment: already passed the AABB test, so it crosses
		// the node's X range; it intersects iff its Y range overlaps.
		return true
	}
	if a.Y == b.Y {
		// Horizontal segment: symmetric to the vertical case.
		return true
	}

	// General case: test against the four edges of the box.
	corners := [4]geom.Point2{
		{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY},
	}
	for i := 0; i < 4; i++ {
		e0, e1 := corners[i], corners[(i+1)%4]
		if _, ok := geom.SegmentIntersect(a, b, e0, e1); ok {
			return true
		}
	}
	return false
}
