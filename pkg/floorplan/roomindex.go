package floorplan

import (
	"github.com/dhconnelly/rtreego"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/trirep"
)

// RoomIndex provides fast spatial queries over a labeled floor plan's
// rooms, backed by an R-tree so "which room contains this pose" and
// "which rooms overlap this bounding box" queries do not require a
// linear scan over every room every time a pose is processed.
type RoomIndex struct {
	entries []RoomEntry
	rtree   *rtreego.Rtree
}

// RoomEntry is one indexed room: its root key, axis-aligned bounding box
// in floor-plan coordinates, and height band.
type RoomEntry struct {
	Root       trirep.TriKey
	MinX, MinY float64
	MaxX, MaxY float64
	Height     trirep.RoomHeight
}

// Bounds implements rtreego.Spatial.
func (e RoomEntry) Bounds() rtreego.Rect {
	point := rtreego.Point{e.MinX, e.MinY}
	lengths := []float64{
		maxf(e.MaxX-e.MinX, 1e-6),
		maxf(e.MaxY-e.MinY, 1e-6),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// BuildRoomIndex computes each room's bounding box from its member
// triangles' vertex positions and indexes them.
func BuildRoomIndex(store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey, heights map[trirep.TriKey]trirep.RoomHeight) *RoomIndex {
	idx := &RoomIndex{rtree: rtreego.NewTree(2, 25, 50)}

	for root, tris := range rooms {
		entry := RoomEntry{Root: root, Height: heights[root]}
		first := true
		for _, key := range tris {
			for _, v := range [3]int{key.A, key.B, key.C} {
				p := store.Tri.Pos(v)
				if first {
					entry.MinX, entry.MaxX = p.X, p.X
					entry.MinY, entry.MaxY = p.Y, p.Y
					first = false
					continue
				}
				entry.MinX = minf(entry.MinX, p.X)
				entry.MaxX = maxf(entry.MaxX, p.X)
				entry.MinY = minf(entry.MinY, p.Y)
				entry.MaxY = maxf(entry.MaxY, p.Y)
			}
		}
		if first {
			continue // empty room, nothing to index
		}
		idx.entries = append(idx.entries, entry)
		idx.rtree.Insert(entry)
	}

	return idx
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Query returns every indexed room whose bounding box intersects the
// rectangle [minX,maxX] x [minY,maxY].
func (idx *RoomIndex) Query(minX, minY, maxX, maxY float64) []RoomEntry {
	point := rtreego.Point{minX, minY}
	lengths := []float64{maxf(maxX-minX, 1e-6), maxf(maxY-minY, 1e-6)}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return nil
	}

	hits := idx.rtree.SearchIntersect(rect)
	out := make([]RoomEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(RoomEntry))
	}
	return out
}

// At returns every indexed room whose bounding box contains pos.
func (idx *RoomIndex) At(pos geom.Point2) []RoomEntry {
	return idx.Query(pos.X, pos.Y, pos.X, pos.Y)
}

// Count returns the number of indexed rooms.
func (idx *RoomIndex) Count() int { return len(idx.entries) }
