package mesher

import (
	"sort"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Region is a planar group of co-directional faces: its member set, its
// current best-fit plane, and the neighbouring regions it shares an edge
// with.
type Region struct {
	ID        int
	Faces     map[Face]bool
	Plane     geom.Plane
	MaxErr    float64
	Neighbors map[int]bool
}

// Regions is the full partition of a face graph: every live region, plus
// the reverse index from face to owning region.
type Regions struct {
	fg      *Graph
	regions map[int]*Region
	owner   map[Face]int
	nextID  int
}

// FloodFill partitions every face in fg into regions of co-directional
// (same bit), edge-connected faces — C8 phase 1.
func FloodFill(fg *Graph) *Regions {
	rs := &Regions{fg: fg, regions: make(map[int]*Region), owner: make(map[Face]int)}

	for _, f := range fg.Faces() {
		if _, seen := rs.owner[f]; seen {
			continue
		}
		rs.nextID++
		id := rs.nextID
		region := &Region{ID: id, Faces: make(map[Face]bool), Neighbors: make(map[int]bool)}

		queue := []Face{f}
		rs.owner[f] = id
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			region.Faces[cur] = true
			for _, n := range fg.EdgeNeighbors(cur) {
				if n.Bit != cur.Bit {
					continue
				}
				if _, seen := rs.owner[n]; seen {
					continue
				}
				rs.owner[n] = id
				queue = append(queue, n)
			}
		}

		region.Plane, region.MaxErr = fitRegionPlane(fg, region)
		rs.regions[id] = region
	}

	rs.rebuildNeighbors()
	return rs
}

func fitRegionPlane(fg *Graph, r *Region) (geom.Plane, float64) {
	var corners []mgl64.Vec3
	for f := range r.Faces {
		c := fg.Corners(f)
		corners = append(corners, c[0], c[1], c[2], c[3])
	}
	if len(corners) < 3 {
		return cornerPlane(fg, firstFace(r)), 0
	}
	plane, maxErr, err := geom.FitPlane(corners, nil)
	if err != nil {
		return cornerPlane(fg, firstFace(r)), 0
	}
	return plane, maxErr
}

func firstFace(r *Region) Face {
	var out Face
	first := true
	for f := range r.Faces {
		if first || faceLess(f, out) {
			out = f
			first = false
		}
	}
	return out
}

// rebuildNeighbors recomputes every region's neighbour set from the
// current face ownership.
func (rs *Regions) rebuildNeighbors() {
	for _, r := range rs.regions {
		r.Neighbors = make(map[int]bool)
	}
	for f, id := range rs.owner {
		for _, n := range rs.fg.EdgeNeighbors(f) {
			if nid, ok := rs.owner[n]; ok && nid != id {
				rs.regions[id].Neighbors[nid] = true
			}
		}
	}
}

// Get returns a region by id, or nil.
func (rs *Regions) Get(id int) *Region { return rs.regions[id] }

// Owner returns the region id owning f, or 0 if f is unassigned.
func (rs *Regions) Owner(f Face) int { return rs.owner[f] }

// IDs returns every live region id in ascending order.
func (rs *Regions) IDs() []int {
	ids := make([]int, 0, len(rs.regions))
	for id := range rs.regions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// merge absorbs src's faces into dst, refits dst's plane, flips its
// normal to match the majority of its faces' outward directions, and
// removes src.
func (rs *Regions) merge(dstID, srcID int) {
	dst, src := rs.regions[dstID], rs.regions[srcID]
	if dst == nil || src == nil || dstID == srcID {
		return
	}
	for f := range src.Faces {
		dst.Faces[f] = true
		rs.owner[f] = dstID
	}
	delete(rs.regions, srcID)

	dst.Plane, dst.MaxErr = fitRegionPlane(rs.fg, dst)
	rs.alignNormalToMajority(dst)
	rs.rebuildNeighbors()
}

// alignNormalToMajority flips r's plane normal if it disagrees with more
// than half of r's member faces' own outward normals.
func (rs *Regions) alignNormalToMajority(r *Region) {
	agree, disagree := 0, 0
	for f := range r.Faces {
		if Normal(f.Bit).Dot(r.Plane.Normal) >= 0 {
			agree++
		} else {
			disagree++
		}
	}
	if disagree > agree {
		r.Plane.Normal = r.Plane.Normal.Mul(-1)
	}
}

// reassign moves a single face from its current region to dstID (C8's
// degenerate-face reassignment).
func (rs *Regions) reassign(f Face, dstID int) {
	if srcID, ok := rs.owner[f]; ok {
		if src := rs.regions[srcID]; src != nil {
			delete(src.Faces, f)
			if len(src.Faces) == 0 {
				delete(rs.regions, srcID)
			}
		}
	}
	rs.owner[f] = dstID
	if dst := rs.regions[dstID]; dst != nil {
		dst.Faces[f] = true
	}
}
