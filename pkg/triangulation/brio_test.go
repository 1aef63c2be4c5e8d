package triangulation

import (
	"math"
	"testing"

	"github.com/dqcore/reconstruct/pkg/geom"
)

func TestBRIOOrderIsDeterministicPerSeed(t *testing.T) {
	pts := make([]Point, 0, 50)
	for i := 0; i < 50; i++ {
		pts = append(pts, Point{Pos: geom.Point2{X: float64(i % 9), Y: float64((i * 5) % 13)}})
	}

	a := BRIOOrder(pts, 123)
	b := BRIOOrder(pts, 123)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Pos != b[i].Pos {
			t.Fatalf("order diverged at index %d for identical seed", i)
		}
	}
}

func TestBRIOOrderPreservesSetMembership(t *testing.T) {
	pts := []Point{
		{Pos: geom.Point2{X: 0, Y: 0}},
		{Pos: geom.Point2{X: 1, Y: 0}},
		{Pos: geom.Point2{X: 0, Y: 1}},
		{Pos: geom.Point2{X: 1, Y: 1}},
	}
	out := BRIOOrder(pts, 99)
	if len(out) != len(pts) {
		t.Fatalf("expected %d points, got %d", len(pts), len(out))
	}
	seen := make(map[geom.Point2]bool)
	for _, p := range out {
		seen[p.Pos] = true
	}
	for _, p := range pts {
		if !seen[p.Pos] {
			t.Errorf("point %+v missing from reordered output", p.Pos)
		}
	}
}

func TestMaximizeFirstTriangleAreaRejectsCollinearSeed(t *testing.T) {
	pts := []Point{
		{Pos: geom.Point2{X: 0, Y: 0}},
		{Pos: geom.Point2{X: 10, Y: 0}},
		{Pos: geom.Point2{X: 5, Y: 0}},   // collinear with indices 0,1
		{Pos: geom.Point2{X: 3, Y: 0.01}}, // still nearly collinear
		{Pos: geom.Point2{X: 4, Y: 7}},   // the real winner
	}
	maximizeFirstTriangleArea(pts)

	area := math.Abs(geom.Orient2D(pts[0].Pos, pts[1].Pos, pts[2].Pos))
	if area <= 0 {
		t.Fatalf("seed triangle is still collinear after maximizeFirstTriangleArea: %+v", pts[:3])
	}
	if pts[2].Pos != (geom.Point2{X: 4, Y: 7}) {
		t.Errorf("expected the max-area point swapped into index 2, got %+v", pts[2].Pos)
	}
}

func TestBuildFromPointsTooFewPoints(t *testing.T) {
	tr, ids, err := BuildFromPoints(nil, 1)
	if err != nil {
		t.Fatalf("expected no error for empty input, got %v", err)
	}
	if tr.NumVertices() != 0 || ids != nil {
		t.Errorf("expected empty triangulation, got %d vertices", tr.NumVertices())
	}

	tr, ids, err = BuildFromPoints([]Point{{Pos: geom.Point2{X: 0, Y: 0}}}, 1)
	if err != nil {
		t.Fatalf("expected no error for single point, got %v", err)
	}
	if tr.NumVertices() != 0 || ids != nil {
		t.Errorf("expected single point to be rejected without error, got %d vertices", tr.NumVertices())
	}
}
