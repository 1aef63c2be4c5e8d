package mesher

import (
	"testing"

	"github.com/dqcore/reconstruct/pkg/voxelgrid"
)

// flatFloor carves a 4x4x1 pocket of voxels at z=0 out of solid space,
// leaving a closed box of boundary faces: a flat floor below the pocket,
// a flat ceiling above it and four side walls.
func flatFloor(t *testing.T) *voxelgrid.Grid {
	t.Helper()
	g := voxelgrid.New(1.0)
	for x := int32(0); x < 4; x++ {
		for y := int32(0); y < 4; y++ {
			v := voxelgrid.Voxel{X: x, Y: y, Z: 0}
			g.CarveVoxel(v, true)
		}
	}
	return g
}

func TestBuildGraphEmitsOneFacePerOutwardBit(t *testing.T) {
	g := flatFloor(t)
	fg := BuildGraph(g)
	if len(fg.Faces()) == 0 {
		t.Fatal("expected at least one face in the graph")
	}
	for _, f := range fg.Faces() {
		if g.State(f.Voxel)&f.Bit == 0 {
			t.Errorf("face %+v not actually set on its voxel's state", f)
		}
	}
}

func TestFloodFillGroupsCoplanarFaces(t *testing.T) {
	g := flatFloor(t)
	fg := BuildGraph(g)
	regions := FloodFill(fg)

	floorFaces := 0
	for _, f := range fg.Faces() {
		if f.Bit == voxelgrid.FaceZMinus {
			floorFaces++
		}
	}
	if floorFaces == 0 {
		t.Skip("no -z faces produced by this carve pattern")
	}

	// Every -z face should land in exactly one region, and all of them
	// should belong to the same region since they're coplanar and
	// edge-connected across the 4x4 patch.
	var regionID int
	first := true
	for _, f := range fg.Faces() {
		if f.Bit != voxelgrid.FaceZMinus {
			continue
		}
		id := regions.Owner(f)
		if id == 0 {
			t.Errorf("face %+v has no owning region", f)
			continue
		}
		if first {
			regionID = id
			first = false
		} else if id != regionID {
			t.Errorf("expected all -z faces in one region, got %d and %d", regionID, id)
		}
	}
}

func TestCoalesceDoesNotPanicOnSmallGrid(t *testing.T) {
	g := flatFloor(t)
	fg := BuildGraph(g)
	regions := FloodFill(fg)
	regions.Coalesce(1)

	if len(regions.IDs()) == 0 {
		t.Error("expected at least one region to survive coalescing")
	}
}

// cornerCapShell carves a single voxel out of solid rock, leaving a
// hollow-cube shell of six single-face voxels around it — the minimal
// case where every face's edge-neighbours are reachable only through the
// over-the-top case, never the co-planar one.
func cornerCapShell(t *testing.T) *voxelgrid.Grid {
	t.Helper()
	g := voxelgrid.New(1.0)
	g.CarveVoxel(voxelgrid.Voxel{X: 0, Y: 0, Z: 0}, true)
	return g
}

func TestEdgeNeighborsFindsOverTheTopAcrossACarvedCorner(t *testing.T) {
	g := cornerCapShell(t)
	fg := BuildGraph(g)

	f := Face{Voxel: voxelgrid.Voxel{X: 1, Y: 0, Z: 0}, Bit: voxelgrid.FaceXMinus}
	if !fg.Has(f) {
		t.Fatal("expected the +x shell voxel's -x face to be live")
	}

	neighbors := fg.EdgeNeighbors(f)
	want := map[Face]bool{
		{Voxel: voxelgrid.Voxel{X: 0, Y: 1, Z: 0}, Bit: voxelgrid.FaceYMinus}:  true,
		{Voxel: voxelgrid.Voxel{X: 0, Y: -1, Z: 0}, Bit: voxelgrid.FaceYPlus}: true,
		{Voxel: voxelgrid.Voxel{X: 0, Y: 0, Z: 1}, Bit: voxelgrid.FaceZMinus}: true,
		{Voxel: voxelgrid.Voxel{X: 0, Y: 0, Z: -1}, Bit: voxelgrid.FaceZPlus}: true,
	}
	if len(neighbors) != len(want) {
		t.Fatalf("expected %d over-the-top neighbours around the carved corner, got %d: %+v", len(want), len(neighbors), neighbors)
	}
	for _, n := range neighbors {
		if !want[n] {
			t.Errorf("unexpected neighbour %+v", n)
		}
		delete(want, n)
	}
	if len(want) != 0 {
		t.Errorf("missing expected neighbours: %+v", want)
	}
}

func TestRebuildNeighborsConnectsCornerCapRegions(t *testing.T) {
	g := cornerCapShell(t)
	fg := BuildGraph(g)
	regions := FloodFill(fg)

	if len(regions.IDs()) != 6 {
		t.Fatalf("expected 6 isolated single-face regions around the carved corner, got %d", len(regions.IDs()))
	}
	for _, id := range regions.IDs() {
		r := regions.Get(id)
		if len(r.Neighbors) == 0 {
			t.Errorf("region %d (single corner-cap face) has no neighbours; swallowSmallRegions would skip it forever", id)
		}
	}
}

func TestSnapCornersReturnsEveryTouchedCorner(t *testing.T) {
	g := flatFloor(t)
	fg := BuildGraph(g)
	regions := FloodFill(fg)

	snapped := regions.SnapCorners()
	if len(snapped) == 0 {
		t.Error("expected at least one snapped corner")
	}
}
