package trirep

import (
	"container/heap"
	"math"
)

// Label runs the three nested room-labeling phases (find_local_max,
// flood_rooms, unlabel_extra_rooms) to a fixed point, then drops any room
// whose triangles were never crossed by the sensor path. It resets
// IsLocalMax/Root/eliminated on every triangle first, so it is safe to
// call repeatedly as the underlying set of triangles changes (e.g. after
// simplification).
func (s *Store) Label() {
	for _, info := range s.tris {
		info.Root = info.Key
		info.IsLocalMax = false
		info.eliminated = false
	}

	const maxRounds = 32
	for round := 0; round < maxRounds; round++ {
		s.findLocalMax()
		s.floodRooms()
		if !s.unlabelExtraRooms() {
			break
		}
	}

	s.dropUnvisitedRooms()
}

// findLocalMax flags, among triangles at or above MinLocalMaxCircumradius,
// those whose circumradius is not exceeded by any neighbor reachable
// along intersecting-circumcircle edges.
func (s *Store) findLocalMax() {
	const minRadiusSq = MinLocalMaxCircumradius * MinLocalMaxCircumradius

	for _, key := range s.SortedKeys() {
		t := s.tris[key]
		if t == nil || t.eliminated || t.RadiusSq < minRadiusSq {
			continue
		}

		isMax := true
		visited := map[TriKey]bool{key: true}
		queue := []TriKey{key}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			curInfo := s.tris[cur]
			for n := range curInfo.Neighbors {
				if visited[n] {
					continue
				}
				nInfo := s.tris[n]
				if nInfo == nil || !circlesIntersect(t, nInfo) {
					continue
				}
				visited[n] = true
				if nInfo.RadiusSq > t.RadiusSq {
					isMax = false
				} else {
					nInfo.eliminated = true
				}
				queue = append(queue, n)
			}
		}

		if isMax {
			t.IsLocalMax = true
		}
	}
}

func circlesIntersect(a, b *TriInfo) bool {
	distSq := a.Center.DistSq(b.Center)
	sumR := math.Sqrt(a.RadiusSq) + math.Sqrt(b.RadiusSq)
	return distSq <= sumR*sumR
}

// floodEdge is one entry of the flood_rooms max-heap: the edge separating
// near (already claimed) from far (a candidate to claim), keyed by the
// squared length of the shared edge so the narrowest gaps between rooms
// are crossed last.
type floodEdge struct {
	near, far TriKey
	lengthSq  float64
}

type floodHeap []floodEdge

func (h floodHeap) Len() int            { return len(h) }
func (h floodHeap) Less(i, j int) bool  { return h[i].lengthSq > h[j].lengthSq } // max-heap
func (h floodHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *floodHeap) Push(x interface{}) { *h = append(*h, x.(floodEdge)) }
func (h *floodHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// floodRooms grows each local-max triangle's room outward by repeatedly
// claiming, largest-shared-edge-first, the neighbor across that edge,
// so that room boundaries settle on the narrowest connecting passages.
func (s *Store) floodRooms() {
	h := &floodHeap{}
	heap.Init(h)

	for _, key := range s.SortedKeys() {
		t := s.tris[key]
		if !t.IsLocalMax {
			continue
		}
		s.pushTriangleEdges(h, key)
	}

	for h.Len() > 0 {
		e := heap.Pop(h).(floodEdge)
		far := s.tris[e.far]
		if far == nil {
			continue
		}
		if s.Root(e.far) == e.far && !far.IsLocalMax {
			s.Union(e.far, s.Root(e.near))
			s.pushTriangleEdges(h, e.far)
		}
	}
}

func (s *Store) pushTriangleEdges(h *floodHeap, key TriKey) {
	info := s.tris[key]
	for n := range info.Neighbors {
		if v0, v1, ok := sharedEdge(key, n); ok {
			lengthSq := s.Tri.Pos(v0).DistSq(s.Tri.Pos(v1))
			heap.Push(h, floodEdge{near: key, far: n, lengthSq: lengthSq})
		}
	}
}

// sharedEdge returns the two vertex ids common to a and b.
func sharedEdge(a, b TriKey) (v0, v1 int, ok bool) {
	av := [3]int{a.A, a.B, a.C}
	bv := [3]int{b.A, b.B, b.C}
	var common []int
	for _, x := range av {
		for _, y := range bv {
			if x == y {
				common = append(common, x)
			}
		}
	}
	if len(common) != 2 {
		return 0, 0, false
	}
	return common[0], common[1], true
}

// unlabelExtraRooms computes each room's boundary length against every
// neighboring room; where that boundary exceeds MaxDoorWidth and the
// neighboring room is still its own local-max, the current room's
// local-max flag is cleared (which, on the next findLocalMax/floodRooms
// round, lets the neighbor absorb it). Returns whether anything changed.
func (s *Store) unlabelExtraRooms() bool {
	type roomPair struct{ a, b TriKey }
	boundary := make(map[roomPair]float64)

	for _, key := range s.SortedKeys() {
		ra := s.Root(key)
		info := s.tris[key]
		for n := range info.Neighbors {
			rb := s.Root(n)
			if ra == rb {
				continue
			}
			v0, v1, ok := sharedEdge(key, n)
			if !ok {
				continue
			}
			length := math.Sqrt(s.Tri.Pos(v0).DistSq(s.Tri.Pos(v1)))
			boundary[roomPair{ra, rb}] += length
		}
	}

	changed := false
	for _, key := range s.SortedKeys() {
		t := s.tris[key]
		if !t.IsLocalMax || s.Root(key) != key {
			continue
		}
		for pair, length := range boundary {
			if pair.a != key || length <= MaxDoorWidth {
				continue
			}
			neighborRoot := s.tris[pair.b]
			if neighborRoot != nil && neighborRoot.IsLocalMax && s.Root(pair.b) == pair.b {
				t.IsLocalMax = false
				changed = true
			}
		}
	}
	return changed
}

// dropUnvisitedRooms clears the local-max flag of any room whose
// triangles were never crossed by the sensor path, so downstream
// consumers treat it as unlabeled rather than a real room.
func (s *Store) dropUnvisitedRooms() {
	visited := make(map[TriKey]bool)
	for _, key := range s.SortedKeys() {
		if s.tris[key].Visited {
			visited[s.Root(key)] = true
		}
	}
	for _, key := range s.SortedKeys() {
		t := s.tris[key]
		if t.IsLocalMax && !visited[key] {
			t.IsLocalMax = false
		}
	}
}

// Rooms returns, for every currently labeled room, its root key and the
// sorted set of triangle keys belonging to it.
func (s *Store) Rooms() map[TriKey][]TriKey {
	out := make(map[TriKey][]TriKey)
	for _, key := range s.SortedKeys() {
		root := s.Root(key)
		if s.tris[root] == nil || !s.tris[root].IsLocalMax {
			continue
		}
		out[root] = append(out[root], key)
	}
	return out
}
