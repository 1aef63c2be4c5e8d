package floorplan

import (
	"sort"

	"github.com/dqcore/reconstruct/internal/rng"
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/trirep"
)

// PoseSource is the narrow, externalized contract for "given a pose
// index, yield one or more 3D ray origins in world frame" that spec.md
// §1 keeps out of this package: the floor-plan pipeline only needs each
// pose's 2D position and height, and the ordered pose path to sweep.
type PoseSource interface {
	PosePosition(pose int) (geom.Point2, float64) // position, height (z)
	PoseSequence() []int                          // poses in visit order
	HeightBand() (minZ, maxZ float64)
}

// Triangulate builds the C3 triangulation over every cell's position
// (BRIO-reordered) and records each cell's resulting vertex id.
func (g *Graph) Triangulate(seed uint64) (*trirep.Store, error) {
	ids := g.Cells()
	pts := make([]triangulationPoint, 0, len(ids))
	for _, id := range ids {
		pts = append(pts, triangulationPoint{pos: g.cells[id].Pos, ref: id})
	}

	tri, vertexIDs, err := buildTriangulation(pts, seed)
	if err != nil {
		return nil, err
	}
	for i, vid := range vertexIDs {
		cellID := pts[i].ref.(int)
		g.cells[cellID].VertexID = vid
	}

	return trirep.Build(tri), nil
}

// LabelInterior traces the sensor path (pose -> cell, and pose -> next
// pose) through the triangulation and marks every triangle either kind
// of segment crosses "visited", the predicate room labeling later uses
// to drop rooms the sensor never actually entered. No separate interior
// flag is kept: pose -> cell and pose -> pose crossings are recorded the
// same way.
func (g *Graph) LabelInterior(store *trirep.Store, poses PoseSource) {
	minZ, maxZ := poses.HeightBand()

	for _, pose := range poses.PoseSequence() {
		origin, h := poses.PosePosition(pose)
		if h < minZ || h > maxZ {
			continue
		}
		for _, id := range g.Cells() {
			c := g.cells[id]
			if !containsPose(c.Poses, pose) {
				continue
			}
			path, err := store.Tri.TraceSegment(origin, c.Pos)
			if err != nil {
				continue
			}
			markVisited(store, path)
		}
	}

	seq := poses.PoseSequence()
	for i := 0; i+1 < len(seq); i++ {
		a, ha := poses.PosePosition(seq[i])
		b, hb := poses.PosePosition(seq[i+1])
		if ha < minZ || ha > maxZ || hb < minZ || hb > maxZ {
			continue
		}
		path, err := store.Tri.TraceSegment(a, b)
		if err != nil {
			continue
		}
		markVisited(store, path)
	}
}

func containsPose(poses []int, p int) bool {
	for _, x := range poses {
		if x == p {
			return true
		}
	}
	return false
}

func markVisited(store *trirep.Store, path [][3]int) {
	var keys []trirep.TriKey
	for _, tri := range path {
		keys = append(keys, triKeyOf(tri))
	}
	store.MarkVisited(keys)
}

func triKeyOf(tri [3]int) trirep.TriKey {
	a, b, c := tri[0], tri[1], tri[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return trirep.TriKey{A: a, B: b, C: c}
}

// BuildRooms runs C4's room labeling to a fixed point and back-annotates
// every cell whose triangulation vertex touches a labeled room.
func (g *Graph) BuildRooms(store *trirep.Store) map[trirep.TriKey][]trirep.TriKey {
	store.Label()
	rooms := store.Rooms()

	cellByVertex := make(map[int]*Cell)
	for _, id := range g.Cells() {
		cellByVertex[g.cells[id].VertexID] = g.cells[id]
	}

	roomIDs := make(map[trirep.TriKey]int)
	nextRoom := 1
	var sortedRoots []trirep.TriKey
	for root := range rooms {
		sortedRoots = append(sortedRoots, root)
	}
	sort.Slice(sortedRoots, func(i, j int) bool {
		a, b := sortedRoots[i], sortedRoots[j]
		if a.A != b.A {
			return a.A < b.A
		}
		if a.B != b.B {
			return a.B < b.B
		}
		return a.C < b.C
	})
	for _, root := range sortedRoots {
		roomIDs[root] = nextRoom
		nextRoom++
	}

	for root, tris := range rooms {
		rid := roomIDs[root]
		for _, key := range tris {
			for _, v := range [3]int{key.A, key.B, key.C} {
				if c, ok := cellByVertex[v]; ok {
					c.Rooms[rid] = true
				}
			}
		}
	}

	return rooms
}

// RoomHeights computes, for each room, the median min_z and max_z across
// its member cells.
func (g *Graph) RoomHeights(rooms map[trirep.TriKey][]trirep.TriKey) map[trirep.TriKey]trirep.RoomHeight {
	out := make(map[trirep.TriKey]trirep.RoomHeight)

	cellByVertex := make(map[int]*Cell)
	for _, id := range g.Cells() {
		cellByVertex[g.cells[id].VertexID] = g.cells[id]
	}

	for root, tris := range rooms {
		seen := make(map[int]bool)
		var mins, maxs []float64
		for _, key := range tris {
			for _, v := range [3]int{key.A, key.B, key.C} {
				c, ok := cellByVertex[v]
				if !ok || seen[v] {
					continue
				}
				seen[v] = true
				mins = append(mins, c.MinZ)
				maxs = append(maxs, c.MaxZ)
			}
		}
		out[root] = trirep.RoomHeight{MinZ: median(mins), MaxZ: median(maxs)}
	}
	return out
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

const defaultSeed = rng.DefaultSeed
