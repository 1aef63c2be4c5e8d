// Package trirep implements the triangle-topology store (C4): a derived,
// annotated view over a triangulation.Triangulation used by the
// floor-plan pipeline for room labeling and boundary simplification.
package trirep

import (
	"sort"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/triangulation"
)

// TriKey is a triangle identified by its three vertex ids, always stored
// sorted ascending so any of a triangle's three CCW rotations maps to the
// same key.
type TriKey struct {
	A, B, C int
}

func newTriKey(a, b, c int) TriKey {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return TriKey{a, b, c}
}

// TriInfo is the per-triangle annotation C4 maintains: circumcircle,
// neighbor set, local-max flag, room root, and whether the sensor path
// crossed it.
type TriInfo struct {
	Key         TriKey
	Center      geom.Point2
	RadiusSq    float64
	Neighbors   map[TriKey]bool
	IsLocalMax  bool
	Root        TriKey
	Visited     bool
	eliminated  bool // set by find_local_max when swept aside as non-extremal
}

// RoomHeight is the (min_z, max_z) extent recorded for a room root.
type RoomHeight struct {
	MinZ, MaxZ float64
}

// Store is the C4 triangle-topology store. It holds a non-owning
// reference to the triangulation it was built from (vertex positions and
// link-ring membership are read through it, never copied) plus the
// owned, derived per-triangle annotations.
type Store struct {
	Tri         *triangulation.Triangulation
	tris        map[TriKey]*TriInfo
	RoomHeights map[TriKey]RoomHeight
}

// Build constructs a Store from every interior triangle (no ghost
// corner) of t, computing each triangle's circumcircle and neighbor set.
func Build(t *triangulation.Triangulation) *Store {
	return &Store{
		Tri:         t,
		tris:        buildTriInfos(t),
		RoomHeights: make(map[TriKey]RoomHeight),
	}
}

// buildTriInfos derives a fresh tris map from t's current interior
// triangles, each starting as its own room root with no labeling
// applied. It is reused both by Build and by the topology mutators
// (CollapseEdge, RemoveBoundaryVertex), which rebuild the affected
// neighborhood from scratch rather than hand-track every neighbor-set
// edit.
func buildTriInfos(t *triangulation.Triangulation) map[TriKey]*TriInfo {
	tris := make(map[TriKey]*TriInfo)

	for _, tri := range t.Triangles() {
		key := newTriKey(tri[0], tri[1], tri[2])
		center, radiusSq, _ := geom.Circumcenter(t.Pos(tri[0]), t.Pos(tri[1]), t.Pos(tri[2]))
		tris[key] = &TriInfo{
			Key:       key,
			Center:    center,
			RadiusSq:  radiusSq,
			Neighbors: make(map[TriKey]bool),
			Root:      key,
		}
	}

	for key, info := range tris {
		for _, edge := range [3][2]int{{key.A, key.B}, {key.B, key.C}, {key.C, key.A}} {
			for _, dir := range [2][2]int{{edge[0], edge[1]}, {edge[1], edge[0]}} {
				apex, ok := t.Apex(dir[0], dir[1])
				if !ok || apex == triangulation.GhostVertex {
					continue
				}
				nk := newTriKey(dir[0], dir[1], apex)
				if nk == key {
					continue
				}
				if _, exists := tris[nk]; exists {
					info.Neighbors[nk] = true
				}
			}
		}
	}

	return tris
}

// Get returns the annotation for key, or nil if key is not a live
// interior triangle.
func (s *Store) Get(key TriKey) *TriInfo { return s.tris[key] }

// SortedKeys returns every live triangle key in ascending order, the
// iteration order every deterministic pass over the store must use.
func (s *Store) SortedKeys() []TriKey {
	keys := make([]TriKey, 0, len(s.tris))
	for k := range s.tris {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.A != b.A {
			return a.A < b.A
		}
		if a.B != b.B {
			return a.B < b.B
		}
		return a.C < b.C
	})
	return keys
}

// Root follows the root-of-root chain of key to its fixed point. The
// store's room-labeling invariant guarantees this terminates: every
// triangle's root is itself or a triangle closer to being its own root.
func (s *Store) Root(key TriKey) TriKey {
	for {
		info := s.tris[key]
		if info == nil || info.Root == key {
			return key
		}
		key = info.Root
	}
}

// Union sets a's root-chain to point at b's root, merging their rooms.
func (s *Store) Union(a, b TriKey) {
	ra, rb := s.Root(a), s.Root(b)
	if ra == rb {
		return
	}
	s.tris[ra].Root = rb
}

// MarkVisited flags every triangle in path (as produced by a raytrace
// through the mesh) as crossed by the sensor.
func (s *Store) MarkVisited(path []TriKey) {
	for _, k := range path {
		if info := s.tris[k]; info != nil {
			info.Visited = true
		}
	}
}

// RemoveTriangle deletes key from the store and severs it from every
// neighbor's neighbor set. It does not touch the underlying
// triangulation's link-rings.
func (s *Store) RemoveTriangle(key TriKey) {
	info := s.tris[key]
	if info == nil {
		return
	}
	for n := range info.Neighbors {
		if ninfo := s.tris[n]; ninfo != nil {
			delete(ninfo.Neighbors, key)
		}
	}
	delete(s.tris, key)
}
