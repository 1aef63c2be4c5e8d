package voxelgrid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCarveVoxelCarvesOneVoxelWall(t *testing.T) {
	g := New(1.0)
	origin := Voxel{0, 0, 0}
	g.CarveVoxel(origin, true)

	if g.IsBoundary(origin) {
		t.Fatalf("expected the carved origin voxel to be interior (state 0), got state %08b", g.State(origin))
	}
	neighbor := Voxel{1, 0, 0}
	if !g.IsBoundary(neighbor) {
		t.Fatalf("expected the solid neighbour across the carved face to become a boundary voxel")
	}
	if g.State(neighbor)&FaceXMinus == 0 {
		t.Errorf("expected neighbour's -x face bit set, got state %08b", g.State(neighbor))
	}
}

func TestCarveVoxelRefusesNonBoundaryWithoutForce(t *testing.T) {
	g := New(1.0)
	ok := g.CarveVoxel(Voxel{5, 5, 5}, false)
	if ok {
		t.Error("expected carving a never-touched (fully solid) voxel without force to fail")
	}
	if g.Count() != 0 {
		t.Errorf("expected no voxels recorded, got %d", g.Count())
	}
}

func TestCarveSegmentWalksMultipleVoxels(t *testing.T) {
	g := New(1.0)
	// Seed voxel {0,0,0} as already boundary (previously carved region),
	// with an unexposed +x face still facing solid rock ahead of it.
	g.setBit(Voxel{0, 0, 0}, FaceYMinus)

	g.CarveSegment(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{4.5, 0.5, 0.5}, false)

	for x := int32(0); x <= 4; x++ {
		v := Voxel{x, 0, 0}
		if g.IsBoundary(v) {
			t.Errorf("expected voxel %v to be carved to interior, got state %08b", v, g.State(v))
		}
	}
	edge := Voxel{5, 0, 0}
	if !g.IsBoundary(edge) {
		t.Errorf("expected the voxel past the carved tunnel to become a boundary voxel")
	}
}

func TestRemoveOutliersClearsSparseVoxels(t *testing.T) {
	g := New(1.0)
	g.setBit(Voxel{0, 0, 0}, FaceXPlus)
	g.setBit(Voxel{1, 1, 1}, FaceXPlus|FaceYPlus|FaceZPlus)

	g.RemoveOutliers(GridCleanupFaceThreshold)

	if g.IsBoundary(Voxel{0, 0, 0}) {
		t.Error("expected the single-face voxel to be removed as an outlier")
	}
	if !g.IsBoundary(Voxel{1, 1, 1}) {
		t.Error("expected the three-face voxel to survive cleanup")
	}
}

type fakeScanSource struct {
	scans [][]Sample
	i     int
}

func (f *fakeScanSource) NextScan() ([]Sample, bool) {
	if f.i >= len(f.scans) {
		return nil, false
	}
	s := f.scans[f.i]
	f.i++
	return s, true
}

func TestPointChunkerOverlapsBetweenChunks(t *testing.T) {
	var scans [][]Sample
	for i := 0; i < NumScansPerFileChunk+5; i++ {
		scans = append(scans, []Sample{{Pos: mgl64.Vec3{float64(i), 0, 0}, Pose: 0}})
	}
	c := NewPointChunker(&fakeScanSource{scans: scans})

	first, ok := c.Next()
	if !ok || len(first) != NumScansPerFileChunk {
		t.Fatalf("expected first chunk of %d scans, got %d (ok=%v)", NumScansPerFileChunk, len(first), ok)
	}

	second, ok := c.Next()
	if !ok {
		t.Fatal("expected a second chunk")
	}
	if len(second) != OverlapPerFileChunk+5 {
		t.Errorf("expected second chunk to carry the %d-scan overlap plus the remaining 5, got %d", OverlapPerFileChunk, len(second))
	}
	if second[0][0].Pos.X() != first[len(first)-OverlapPerFileChunk][0].Pos.X() {
		t.Error("expected the second chunk's overlap scans to match the tail of the first chunk")
	}

	_, ok = c.Next()
	if ok {
		t.Error("expected no third chunk")
	}
}

type fixedPose struct{ origin mgl64.Vec3 }

func (f fixedPose) PoseOrigin(int) mgl64.Vec3 { return f.origin }

func TestPopulatePointsRespectsRangeLimit(t *testing.T) {
	g := New(0.5)
	scans := [][]Sample{
		{{Pos: mgl64.Vec3{1, 0, 0}, Pose: 0}},
		{{Pos: mgl64.Vec3{100, 0, 0}, Pose: 0}},
	}
	c := NewPointChunker(&fakeScanSource{scans: scans})
	g.PopulatePoints(c, fixedPose{origin: mgl64.Vec3{0, 0, 0}}, 225)

	if !g.PointOccupied(g.WorldToVoxel(mgl64.Vec3{1, 0, 0})) {
		t.Error("expected the in-range point's voxel to be recorded")
	}
	if g.PointOccupied(g.WorldToVoxel(mgl64.Vec3{100, 0, 0})) {
		t.Error("expected the out-of-range point's voxel to be excluded")
	}
}
