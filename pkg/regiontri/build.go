package regiontri

import (
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/mesher"
)

// BuildMesh triangulates every surviving region of rs into a single mesh:
// each region's interior faces are quadtree-simplified and fan-
// triangulated, its boundary faces (the ones sharing an edge with another
// region, or with fewer than four edge-neighbours) are emitted directly as two
// triangles so adjacent regions always share an exact edge, and the whole
// thing is run through duplicate/anti-parallel and small-island cleanup.
func BuildMesh(rs *mesher.Regions, fg *mesher.Graph) *Mesh {
	m := NewMesh()
	for _, id := range rs.IDs() {
		r := rs.Get(id)
		if r == nil {
			continue
		}
		buildRegion(m, rs, fg, r)
	}
	m.RemoveDuplicates()
	m.RemoveSmallIslands(MinMeshUnionSize)
	return m
}

func buildRegion(m *Mesh, rs *mesher.Regions, fg *mesher.Graph, r *mesher.Region) {
	axis := geom.DominantAxis(r.Plane.Normal)
	other0, other1 := otherAxes(axis)

	marked := make(map[[2]int]bool)
	radius := 0

	for f := range r.Faces {
		if isBoundaryFace(rs, fg, f, r.ID) {
			emitBoundaryFace(m, fg, f)
			continue
		}
		u, v := faceUV(f, other0, other1)
		marked[[2]int{u, v}] = true
		if abs(u) > radius {
			radius = abs(u)
		}
		if abs(v) > radius {
			radius = abs(v)
		}
	}

	if len(marked) == 0 {
		return
	}
	sub := TriangulateRegion(r.ID, r.Plane, marked, radius+1)
	for k, p := range sub.Positions {
		m.Positions[k] = p
	}
	m.Triangles = append(m.Triangles, sub.Triangles...)
}

// isBoundaryFace reports whether f has fewer than 4 edge-neighbours
// (an outer hull edge) or borders a face owned by a different region.
func isBoundaryFace(rs *mesher.Regions, fg *mesher.Graph, f mesher.Face, ownID int) bool {
	neighbors := fg.EdgeNeighbors(f)
	if len(neighbors) < 4 {
		return true
	}
	for _, n := range neighbors {
		if rs.Owner(n) != ownID {
			return true
		}
	}
	return false
}

func emitBoundaryFace(m *Mesh, fg *mesher.Graph, f mesher.Face) {
	corners := fg.Corners(f)
	res := fg.Resolution()
	keys := [4]VertexKey{}
	for i, c := range corners {
		keys[i] = VertexKey{IsCorner: true, CornerX: round(c.X() / res), CornerY: round(c.Y() / res), CornerZ: round(c.Z() / res)}
	}
	m.AddBoundaryQuad(corners, keys)
}

func faceUV(f mesher.Face, other0, other1 int) (int, int) {
	coord := [3]int32{f.Voxel.X, f.Voxel.Y, f.Voxel.Z}
	return int(coord[other0]), int(coord[other1])
}

func otherAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func round(x float64) int32 {
	if x >= 0 {
		return int32(x + 0.5)
	}
	return int32(x - 0.5)
}
