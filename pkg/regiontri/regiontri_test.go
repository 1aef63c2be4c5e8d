package regiontri

import (
	"testing"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/mesher"
	"github.com/dqcore/reconstruct/pkg/voxelgrid"
	"github.com/go-gl/mathgl/mgl64"
)

func TestQuadtreeMarkAndLeaves(t *testing.T) {
	qt := NewQuadtree(4)
	qt.Mark(0, 0)
	qt.Mark(1, 0)
	qt.Mark(0, 1)
	qt.Mark(1, 1)

	leaves := qt.Leaves()
	if len(leaves) == 0 {
		t.Fatal("expected at least one leaf")
	}
	for _, l := range leaves {
		if !l.Mark {
			t.Errorf("unmarked leaf returned: %+v", l)
		}
	}
}

func TestQuadtreeSimplifyCollapsesUniformQuadrant(t *testing.T) {
	qt := NewQuadtree(2)
	qt.Mark(0, 0)
	qt.Mark(1, 0)
	qt.Mark(0, 1)
	qt.Mark(1, 1)
	qt.Simplify()

	if !qt.root.Mark || !qt.root.IsLeaf() {
		t.Errorf("expected root to collapse to a single marked leaf, got %+v", qt.root)
	}
}

func TestNeighborSizeFindsAdjacentLeaf(t *testing.T) {
	qt := NewQuadtree(4)
	qt.Mark(0, 0)
	qt.Mark(2, 0)

	leaves := qt.Leaves()
	var origin *Cell
	for _, l := range leaves {
		if l.U == 0 && l.V == 0 {
			origin = l
		}
	}
	if origin == nil {
		t.Fatal("expected a leaf at the origin")
	}
	if s := qt.NeighborSize(origin, 1, 0); s == 0 {
		t.Error("expected a marked neighbour to the +u side")
	}
	if s := qt.NeighborSize(origin, 0, 1); s != 0 {
		t.Error("expected no marked neighbour to the +v side")
	}
}

func TestTriangulateRegionFlatPlaneProducesTriangles(t *testing.T) {
	plane := geom.Plane{Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 0, 1}}
	marked := map[[2]int]bool{
		{0, 0}: true, {1, 0}: true, {0, 1}: true, {1, 1}: true,
	}
	m := TriangulateRegion(1, plane, marked, 2)
	if len(m.Triangles) == 0 {
		t.Fatal("expected triangles from a marked region")
	}
	for _, tri := range m.Triangles {
		for _, v := range tri {
			if _, ok := m.Positions[v]; !ok {
				t.Errorf("triangle references unknown vertex %+v", v)
			}
		}
	}
}

func TestRemoveDuplicatesDropsExactRepeatAndAntiParallelPair(t *testing.T) {
	m := NewMesh()
	a := VertexKey{RegionID: 1, U: 0, V: 0}
	b := VertexKey{RegionID: 1, U: 1, V: 0}
	c := VertexKey{RegionID: 1, U: 0, V: 1}
	m.Positions[a] = mgl64.Vec3{0, 0, 0}
	m.Positions[b] = mgl64.Vec3{1, 0, 0}
	m.Positions[c] = mgl64.Vec3{0, 1, 0}

	m.Triangles = []Triangle{
		{a, b, c},
		{a, b, c}, // exact duplicate
		{b, a, c}, // anti-parallel vs. a lone remaining original once the pair above is found
	}

	dup, anti := m.RemoveDuplicates()
	if dup != 1 {
		t.Errorf("expected 1 duplicate removed, got %d", dup)
	}
	if anti != 1 {
		t.Errorf("expected 1 anti-parallel pair removed, got %d", anti)
	}
	if len(m.Triangles) != 0 {
		t.Errorf("expected no triangles to survive, got %d", len(m.Triangles))
	}
}

func TestRemoveSmallIslandsCullsIsolatedTriangle(t *testing.T) {
	m := NewMesh()
	// A connected quad made of 2 triangles (4 total triangles sharing
	// vertices would need more structure; here a simple 2-triangle quad
	// versus 1 isolated triangle sharing no vertices with it).
	a := VertexKey{RegionID: 1, U: 0, V: 0}
	b := VertexKey{RegionID: 1, U: 1, V: 0}
	c := VertexKey{RegionID: 1, U: 1, V: 1}
	d := VertexKey{RegionID: 1, U: 0, V: 1}
	m.Triangles = []Triangle{{a, b, c}, {a, c, d}}

	x := VertexKey{RegionID: 2, U: 0, V: 0}
	y := VertexKey{RegionID: 2, U: 1, V: 0}
	z := VertexKey{RegionID: 2, U: 0, V: 1}
	m.Triangles = append(m.Triangles, Triangle{x, y, z})

	removed := m.RemoveSmallIslands(2)
	if removed != 1 {
		t.Errorf("expected the isolated single-triangle island to be removed, got %d removed", removed)
	}
	if len(m.Triangles) != 2 {
		t.Errorf("expected the 2-triangle quad to survive, got %d triangles", len(m.Triangles))
	}
}

func flatFloorGrid(t *testing.T) *voxelgrid.Grid {
	t.Helper()
	g := voxelgrid.New(1.0)
	for x := int32(0); x < 4; x++ {
		for y := int32(0); y < 4; y++ {
			g.CarveVoxel(voxelgrid.Voxel{X: x, Y: y, Z: 0}, true)
		}
	}
	return g
}

func TestBuildMeshProducesNonEmptyMeshFromFlatFloor(t *testing.T) {
	g := flatFloorGrid(t)
	fg := mesher.BuildGraph(g)
	regions := mesher.FloodFill(fg)
	regions.Coalesce(1)

	mesh := BuildMesh(regions, fg)
	if len(mesh.Triangles) == 0 {
		t.Fatal("expected at least one triangle from a flat floor carve")
	}
	for _, tri := range mesh.Triangles {
		for _, v := range tri {
			if _, ok := mesh.Positions[v]; !ok {
				t.Errorf("triangle references unknown vertex %+v", v)
			}
		}
	}
}
