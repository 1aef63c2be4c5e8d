package triangulation

import (
	"testing"

	"github.com/dqcore/reconstruct/pkg/geom"
)

func TestTraceSegmentCrossesGrid(t *testing.T) {
	var pts []Point
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			pts = append(pts, Point{Pos: geom.Point2{X: float64(x), Y: float64(y)}})
		}
	}
	tr, _, err := BuildFromPoints(pts, 5)
	if err != nil {
		t.Fatalf("BuildFromPoints: %v", err)
	}

	path, err := tr.TraceSegment(geom.Point2{X: 0.5, Y: 0.5}, geom.Point2{X: 4.5, Y: 4.5})
	if err != nil {
		t.Fatalf("TraceSegment: %v", err)
	}
	if len(path) == 0 {
		t.Fatal("expected at least one triangle crossed")
	}
	for _, tri := range path {
		for _, v := range tri {
			if v == GhostVertex {
				t.Errorf("expected trace within the hull interior to never touch the ghost, got %v", tri)
			}
		}
	}
}
