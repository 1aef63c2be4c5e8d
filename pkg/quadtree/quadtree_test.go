package quadtree

import (
	"bytes"
	"testing"

	"github.com/dqcore/reconstruct/pkg/geom"
)

func TestInsertAndRetrieve(t *testing.T) {
	tr := New(0.5)
	tr.Insert(geom.Point2{X: 0, Y: 0})
	tr.Insert(geom.Point2{X: 0.1, Y: 0.1})

	d := tr.Retrieve(geom.Point2{X: 0.05, Y: 0.05})
	if d == nil {
		t.Fatal("expected populated leaf")
	}
	if d.NumPoints != 2 {
		t.Errorf("expected 2 aggregated points, got %d", d.NumPoints)
	}
}

func TestInsertGrowsRootOutward(t *testing.T) {
	tr := New(1)
	tr.Insert(geom.Point2{X: 0, Y: 0})
	tr.Insert(geom.Point2{X: 1000, Y: 1000})

	if tr.MaxDepth() == 0 {
		t.Error("expected root to have grown to contain a far point")
	}
	if tr.Retrieve(geom.Point2{X: 1000, Y: 1000}) == nil {
		t.Error("expected far point to be retrievable after growth")
	}
	if tr.Retrieve(geom.Point2{X: 0, Y: 0}) == nil {
		t.Error("expected original point to remain retrievable after growth")
	}
}

func TestInsertNormalZeroNormalNotCarried(t *testing.T) {
	tr := New(1)
	d := tr.InsertNormal(geom.Point2{X: 0, Y: 0}, geom.Point2{})
	if d.Norm != (geom.Point2{}) {
		t.Fatalf("expected zero normal initially, got %+v", d.Norm)
	}
	d = tr.InsertNormal(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 1, Y: 0})
	if d.Norm != (geom.Point2{X: 1, Y: 0}) {
		t.Errorf("expected zero running average to be replaced outright, got %+v", d.Norm)
	}
}

func TestNearestNeighborEmptyTree(t *testing.T) {
	tr := New(1)
	if tr.NearestNeighbor(geom.Point2{}) != nil {
		t.Error("expected nil nearest neighbor on empty tree")
	}
}

func TestNearestNeighbor(t *testing.T) {
	tr := New(0.5)
	tr.Insert(geom.Point2{X: 0, Y: 0})
	tr.Insert(geom.Point2{X: 10, Y: 10})
	tr.Insert(geom.Point2{X: -10, Y: -10})

	got := tr.NearestNeighbor(geom.Point2{X: 9, Y: 9})
	if got == nil || got.Average.DistSq(geom.Point2{X: 10, Y: 10}) > 1e-6 {
		t.Errorf("expected nearest neighbor near (10,10), got %+v", got)
	}
}

func TestNeighborsInRange(t *testing.T) {
	tr := New(0.5)
	tr.Insert(geom.Point2{X: 0, Y: 0})
	tr.Insert(geom.Point2{X: 1, Y: 0})
	tr.Insert(geom.Point2{X: 100, Y: 100})

	near := tr.NeighborsInRange(geom.Point2{X: 0, Y: 0}, 2)
	if len(near) != 2 {
		t.Errorf("expected 2 neighbors within range 2, got %d", len(near))
	}

	all := tr.NeighborsInRange(geom.Point2{X: 0, Y: 0}, -1)
	if len(all) != 3 {
		t.Errorf("expected unbounded range to find all 3, got %d", len(all))
	}
}

func TestRaytraceFindsCrossedLeaves(t *testing.T) {
	tr := New(0.5)
	tr.Insert(geom.Point2{X: 0, Y: 0})
	tr.Insert(geom.Point2{X: 5, Y: 0})
	tr.Insert(geom.Point2{X: 0, Y: 5}) // off the ray path

	hits := tr.Raytrace(geom.Point2{X: -1, Y: 0}, geom.Point2{X: 6, Y: 0})
	if len(hits) != 2 {
		t.Fatalf("expected 2 leaves crossed by horizontal ray, got %d", len(hits))
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	tr := New(0.5)
	tr.InsertPose(geom.Point2{X: 0, Y: 0}, geom.Point2{X: 1, Y: 0}, 3)
	tr.InsertPose(geom.Point2{X: 10, Y: 10}, geom.Point2{X: 0, Y: 1}, 7)

	var buf bytes.Buffer
	if err := tr.Print(&buf); err != nil {
		t.Fatalf("Print: %v", err)
	}

	parsed, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf2 bytes.Buffer
	if err := parsed.Print(&buf2); err != nil {
		t.Fatalf("Print (round 2): %v", err)
	}

	if buf.String() != buf2.String() {
		t.Errorf("round-trip mismatch:\nfirst:\n%s\nsecond:\n%s", buf.String(), buf2.String())
	}
}
