package regiontri

import (
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// VertexKey interns a triangulated vertex either as an interior
// (region, u, v) Steiner/leaf-centre point, or as a (voxel corner)
// boundary point shared across regions — spec.md's vertex-identity rule.
type VertexKey struct {
	RegionID int
	U, V     int
	IsCorner bool
	CornerX  int32
	CornerY  int32
	CornerZ  int32
}

// Triangle is three interned vertex keys in CCW winding (relative to the
// region's outward normal).
type Triangle [3]VertexKey

// Mesh is the accumulated triangulation result across every region: the
// interned vertex positions and the triangle list.
type Mesh struct {
	Positions map[VertexKey]mgl64.Vec3
	Triangles []Triangle
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{Positions: make(map[VertexKey]mgl64.Vec3)}
}

func (m *Mesh) intern(key VertexKey, pos mgl64.Vec3) VertexKey {
	if _, ok := m.Positions[key]; !ok {
		m.Positions[key] = pos
	}
	return key
}

// TriangulateRegion builds the quadtree over regionID's marked leaves
// (projected along the plane's dominant axis), simplifies it, and fan-
// triangulates every true leaf into m, per C9's main algorithm.
func TriangulateRegion(regionID int, plane geom.Plane, marked map[[2]int]bool, radius int) *Mesh {
	m := NewMesh()
	if len(marked) == 0 {
		return m
	}
	axis := geom.DominantAxis(plane.Normal)

	qt := NewQuadtree(radius)
	for uv := range marked {
		qt.Mark(uv[0], uv[1])
	}
	qt.Simplify()

	for _, leaf := range qt.Leaves() {
		fanTriangulateLeaf(m, qt, leaf, regionID, plane, axis)
	}
	return m
}

// fanTriangulateLeaf emits the two diagonal triangles of a leaf's square
// when every tree-neighbour is at least as large as it, otherwise places
// a Steiner vertex at its centre and fans one triangle to each of its
// four sides; corners of smaller neighbours along a side are not inserted
// as vertices.
func fanTriangulateLeaf(m *Mesh, qt *Quadtree, c *Cell, regionID int, plane geom.Plane, axis int) {
	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	allAtLeastAsLarge := true
	for _, d := range dirs {
		if s := qt.NeighborSize(c, d[0], d[1]); s != 0 && s < c.HalfSize {
			allAtLeastAsLarge = false
			break
		}
	}

	corners := leafCorners(c)
	keys := make([]VertexKey, 4)
	for i, co := range corners {
		k := VertexKey{RegionID: regionID, U: co[0], V: co[1]}
		pos := projectBack(plane, axis, co[0], co[1])
		keys[i] = m.intern(k, pos)
	}

	if allAtLeastAsLarge {
		m.Triangles = append(m.Triangles, Triangle{keys[0], keys[1], keys[2]})
		m.Triangles = append(m.Triangles, Triangle{keys[0], keys[2], keys[3]})
		return
	}

	centerKey := VertexKey{RegionID: regionID, U: c.U, V: c.V}
	centerPos := projectBack(plane, axis, c.U, c.V)
	center := m.intern(centerKey, centerPos)
	for i := 0; i < 4; i++ {
		m.Triangles = append(m.Triangles, Triangle{center, keys[i], keys[(i+1)%4]})
	}
}

func leafCorners(c *Cell) [4][2]int {
	h := c.HalfSize
	return [4][2]int{
		{c.U - h, c.V - h}, {c.U + h, c.V - h}, {c.U + h, c.V + h}, {c.U - h, c.V + h},
	}
}

// projectBack maps a (u,v) pair on the dominant-axis projection back
// through the region plane into world space.
func projectBack(plane geom.Plane, axis int, u, v int) mgl64.Vec3 {
	p := mgl64.Vec3{}
	other := [2]int{0, 0}
	idx := 0
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		other[idx] = a
		idx++
	}
	p[other[0]] = float64(u)
	p[other[1]] = float64(v)
	projected, _ := plane.ProjectOntoAxis(p, axis)
	return projected
}

// AddBoundaryQuad emits a boundary face (one whose 4 edge-neighbours
// span >= 2 regions) directly as two triangles, rotating the corner
// order to keep the diagonal world-consistent: always split from the
// lowest-sorting corner key.
func (m *Mesh) AddBoundaryQuad(corners [4]mgl64.Vec3, cornerKeys [4]VertexKey) {
	keys := make([]VertexKey, 4)
	for i, k := range cornerKeys {
		keys[i] = m.intern(k, corners[i])
	}
	start := 0
	for i := 1; i < 4; i++ {
		if cornerLess(keys[i], keys[start]) {
			start = i
		}
	}
	a, b, c, d := keys[start], keys[(start+1)%4], keys[(start+2)%4], keys[(start+3)%4]
	m.Triangles = append(m.Triangles, Triangle{a, b, c}, Triangle{a, c, d})
}

func cornerLess(a, b VertexKey) bool {
	if a.CornerX != b.CornerX {
		return a.CornerX < b.CornerX
	}
	if a.CornerY != b.CornerY {
		return a.CornerY < b.CornerY
	}
	return a.CornerZ < b.CornerZ
}
