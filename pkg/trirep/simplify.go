package trirep

import (
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/triangulation"
)

// CollapseEdge merges b into a: every triangle incident to b is renamed
// to use a instead, except the two triangles bordering edge (a,b) itself,
// which are removed outright. On success b's link-ring is cleared and it
// belongs to no triangle.
//
// Preconditions, checked before any mutation (refusal returns
// *CollapseRefusal, never a partial edit):
//   - a is adjacent to b.
//   - both triangles bordering edge (a,b) are interior (neither apex is
//     the ghost vertex).
//   - the two "wing" vertices (the apexes of edge (a,b)) do not already
//     share an edge with each other through a — folding the fan onto
//     itself.
//   - substituting a for b in every other triangle of b yields strictly
//     positive orientation and does not collide with an existing
//     triangle.
func (s *Store) CollapseEdge(a, b int) error {
	ringB := s.Tri.Ring(b)
	if ringB == nil {
		return &ErrEmptyLinkRing{Vertex: b}
	}
	n := len(ringB)
	idx := ringIndexOfPublic(ringB, a)
	if idx < 0 {
		return &CollapseRefusal{A: a, B: b, Reason: "a is not adjacent to b"}
	}

	c := ringB[(idx+1)%n]
	d := ringB[(idx-1+n)%n]
	if c == triangulation.GhostVertex || d == triangulation.GhostVertex {
		return &CollapseRefusal{A: a, B: b, Reason: "collapse would remove a hull edge"}
	}

	triACB := newTriKey(a, c, b)
	triADB := newTriKey(a, d, b)
	if s.tris[triACB] == nil || s.tris[triADB] == nil {
		return &CollapseRefusal{A: a, B: b, Reason: "edge (a,b) is not bordered by two interior triangles"}
	}

	ringA := s.Tri.Ring(a)
	if ringIndexOfPublic(ringA, c) >= 0 && ringIndexOfPublic(ringA, d) >= 0 {
		nc, nd := ringIndexOfPublic(ringA, c), ringIndexOfPublic(ringA, d)
		na := len(ringA)
		if (nc+1)%na == nd || (nd+1)%na == nc {
			return &CollapseRefusal{A: a, B: b, Reason: "wings already share an edge"}
		}
	}

	// Every remaining triangle of b, after substituting a for b, must
	// stay a positively oriented, not-already-existing triangle.
	for i := 0; i < n; i++ {
		w0, w1 := ringB[i], ringB[(i+1)%n]
		if w0 == a || w1 == a {
			continue // one of the two triangles being destroyed
		}
		if geom.Orient2D(s.Tri.Pos(a), s.Tri.Pos(w0), s.Tri.Pos(w1)) <= 0 {
			return &CollapseRefusal{A: a, B: b, Reason: "fan would fold after substitution"}
		}
		if s.tris[newTriKey(a, w0, w1)] != nil {
			return &CollapseRefusal{A: a, B: b, Reason: "renamed triangle already exists"}
		}
	}

	// Mutation. ringBInner = ring(b) rotated to start right after a,
	// i.e. [c, w1, ..., wk, d].
	ringBInner := make([]int, 0, n-1)
	for k := 1; k < n; k++ {
		ringBInner = append(ringBInner, ringB[(idx+k)%n])
	}
	inner := ringBInner[1 : len(ringBInner)-1] // w1..wk, may be empty

	// a's ring: splice inner in place of the single "b" entry.
	idxBInA := ringIndexOfPublic(ringA, b)
	newRingA := make([]int, 0, len(ringA)-1+len(inner))
	newRingA = append(newRingA, ringA[:idxBInA]...)
	newRingA = append(newRingA, inner...)
	newRingA = append(newRingA, ringA[idxBInA+1:]...)
	s.Tri.SetRing(a, newRingA)

	// c and d: delete the single "b" entry.
	s.Tri.SetRing(c, deleteFromRing(s.Tri.Ring(c), b))
	s.Tri.SetRing(d, deleteFromRing(s.Tri.Ring(d), b))

	// w1..wk: rename the single "b" entry to "a" in place.
	for _, w := range inner {
		s.Tri.SetRing(w, renameInRing(s.Tri.Ring(w), b, a))
	}

	s.Tri.DeleteVertex(b)

	// Refresh the store's derived annotations, carrying Root/IsLocalMax/
	// Visited across unchanged or purely-renamed keys.
	carry := make(map[TriKey]*TriInfo, len(s.tris))
	for k, v := range s.tris {
		carry[k] = v
	}
	delete(carry, triACB)
	delete(carry, triADB)
	s.tris = buildTriInfos(s.Tri)
	for key, info := range s.tris {
		if old, ok := carry[key]; ok {
			info.IsLocalMax = old.IsLocalMax
			info.Visited = old.Visited
			info.Root = resolveCarriedRoot(carry, s.tris, old, key)
		}
	}
	return nil
}

// resolveCarriedRoot maps an old TriInfo's root pointer onto the new key
// space: if the root was itself (the triangle was its own room root),
// the new triangle remains its own root; otherwise, if the old root
// still names a live new triangle, preserve the pointer, falling back to
// self otherwise (the room a stale pointer pointed into no longer
// exists).
func resolveCarriedRoot(carry, fresh map[TriKey]*TriInfo, old *TriInfo, newKey TriKey) TriKey {
	if old.Root == old.Key {
		return newKey
	}
	if _, ok := fresh[old.Root]; ok {
		return old.Root
	}
	return newKey
}

func ringIndexOfPublic(ring []int, v int) int {
	for i, x := range ring {
		if x == v {
			return i
		}
	}
	return -1
}

func deleteFromRing(ring []int, v int) []int {
	out := make([]int, 0, len(ring)-1)
	for _, x := range ring {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func renameInRing(ring []int, from, to int) []int {
	out := make([]int, len(ring))
	for i, x := range ring {
		if x == from {
			out[i] = to
		} else {
			out[i] = x
		}
	}
	return out
}

// RemoveBoundaryVertex is the fallback simplification primitive when a
// direct collapse is illegal: it marks every vertex of b's star that lies
// inside the triangle (c, b, a) with one point-in-triangle test each, removes the
// marked triangles, and re-fills the resulting polygon by ear clipping.
//
// a and c must be the two boundary neighbors of b (with CCW orientation
// c -> b -> a, i.e. consecutive in b's ring with nothing else marking a
// boundary between them) — callers identify these from the cell graph,
// not from this package, since "boundary" here is a floor-plan concept
// (an edge with no interior triangle on its far side) that pkg/trirep
// does not itself track.
func (s *Store) RemoveBoundaryVertex(b, a, c int) ([]TriKey, error) {
	ringB := s.Tri.Ring(b)
	if ringB == nil {
		return nil, &ErrEmptyLinkRing{Vertex: b}
	}
	idxA := ringIndexOfPublic(ringB, a)
	idxC := ringIndexOfPublic(ringB, c)
	if idxA < 0 || idxC < 0 {
		return nil, &CollapseRefusal{A: a, B: b, Reason: "a or c is not adjacent to b"}
	}

	chordA, chordC := s.Tri.Pos(a), s.Tri.Pos(c)

	// Collect b's star (every triangle (b, w_i, w_{i+1})) restricted to
	// the side between c and a (walking the ring from c to a).
	n := len(ringB)
	var star []int
	for i := idxC; ; i = (i + 1) % n {
		star = append(star, ringB[i])
		if i == idxA {
			break
		}
	}

	marked := make(map[int]bool)
	for _, w := range star {
		if w == a || w == c {
			continue
		}
		p := s.Tri.Pos(w)
		if pointInTriangle(p, chordC, s.Tri.Pos(b), chordA) {
			marked[w] = true
		}
	}

	// The boundary polygon to re-triangulate is c, (unmarked/visited
	// frontier vertices in order), a — approximated here directly by the
	// star minus the marked interior vertices, which for the common case
	// (b plus its immediate fan) is exactly the polygon ear-clipping
	// needs to refill.
	var poly []int
	poly = append(poly, c)
	for _, w := range star {
		if w == a || w == c || marked[w] {
			continue
		}
		poly = append(poly, w)
	}
	poly = append(poly, a)

	var removed []TriKey
	for i := 0; i+1 < len(star); i++ {
		removed = append(removed, newTriKey(b, star[i], star[i+1]))
	}
	for _, k := range removed {
		s.RemoveTriangle(k)
	}
	s.Tri.DeleteVertex(b)
	for _, w := range star {
		if w != a && w != c {
			s.Tri.SetRing(w, deleteFromRing(s.Tri.Ring(w), b))
		}
	}
	s.Tri.SetRing(a, deleteFromRing(s.Tri.Ring(a), b))
	s.Tri.SetRing(c, deleteFromRing(s.Tri.Ring(c), b))

	newTris, err := earClip(s.Tri, poly)
	if err != nil {
		return nil, &ErrInvariantViolation{Cause: err.Error()}
	}

	carry := make(map[TriKey]*TriInfo, len(s.tris))
	for k, v := range s.tris {
		carry[k] = v
	}
	s.tris = buildTriInfos(s.Tri)
	for key, info := range s.tris {
		if old, ok := carry[key]; ok {
			info.IsLocalMax = old.IsLocalMax
			info.Visited = old.Visited
		}
	}

	return newTris, nil
}

func pointInTriangle(p, a, b, c geom.Point2) bool {
	d1 := geom.Orient2D(a, b, p)
	d2 := geom.Orient2D(b, c, p)
	d3 := geom.Orient2D(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// earClip re-triangulates a simple polygon (given as a CCW vertex-id
// loop into the triangulation) by repeatedly clipping the first ear in
// ring order: a convex vertex whose candidate triangle contains no other
// polygon vertex. No separate edge-crossing test is made.
// It splices each clipped ear into the triangulation's link-rings and
// returns the resulting triangle keys.
func earClip(t *triangulation.Triangulation, poly []int) ([]TriKey, error) {
	ring := make([]int, len(poly))
	copy(ring, poly)

	var out []TriKey
	for len(ring) > 3 {
		earIdx := -1
		for i := range ring {
			n := len(ring)
			prev := ring[(i-1+n)%n]
			cur := ring[i]
			next := ring[(i+1)%n]
			if geom.Orient2D(t.Pos(prev), t.Pos(cur), t.Pos(next)) <= 0 {
				continue
			}
			if !earIsClear(t, ring, prev, cur, next) {
				continue
			}
			earIdx = i
			break
		}
		if earIdx < 0 {
			return nil, errEarClipStuck
		}

		n := len(ring)
		prev := ring[(earIdx-1+n)%n]
		cur := ring[earIdx]
		next := ring[(earIdx+1)%n]

		spliceTriangle(t, prev, cur, next)
		out = append(out, newTriKey(prev, cur, next))

		ring = append(ring[:earIdx], ring[earIdx+1:]...)
	}
	if len(ring) == 3 {
		out = append(out, newTriKey(ring[0], ring[1], ring[2]))
	}
	return out, nil
}

func earIsClear(t *triangulation.Triangulation, ring []int, prev, cur, next int) bool {
	for _, v := range ring {
		if v == prev || v == cur || v == next {
			continue
		}
		if pointInTriangle(t.Pos(v), t.Pos(prev), t.Pos(cur), t.Pos(next)) {
			return false
		}
	}
	return true
}

// spliceTriangle links prev-cur-next as a new CCW triangle by inserting
// each into the others' rings, assuming all three already share the
// ambient link structure left by the polygon walk (i.e. prev and next
// are already ring-adjacent on the far side; this only needs to splice
// cur's presence between them).
func spliceTriangle(t *triangulation.Triangulation, prev, cur, next int) {
	insertBetween(t, prev, next, cur)
	insertBetween(t, next, cur, prev)
	insertBetween(t, cur, prev, next)
}

// insertBetween inserts w into v's ring immediately after x, creating the
// entry if x is not yet present (starting a fresh ring of just [x, w]).
func insertBetween(t *triangulation.Triangulation, v, x, w int) {
	ring := t.Ring(v)
	idx := ringIndexOfPublic(ring, x)
	if idx < 0 {
		t.SetRing(v, append(ring, x, w))
		return
	}
	out := make([]int, 0, len(ring)+1)
	out = append(out, ring[:idx+1]...)
	out = append(out, w)
	out = append(out, ring[idx+1:]...)
	t.SetRing(v, out)
}

var errEarClipStuck = &ErrInvariantViolation{Cause: "ear clipping found no valid ear (polygon not simple or degenerate)"}
