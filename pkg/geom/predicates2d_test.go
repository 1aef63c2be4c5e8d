package geom

import "testing"

func TestOrient2DSign(t *testing.T) {
	ccw := Orient2D(Point2{0, 0}, Point2{1, 0}, Point2{0, 1})
	if ccw <= 0 {
		t.Errorf("expected positive (CCW) orientation, got %f", ccw)
	}

	cw := Orient2D(Point2{0, 0}, Point2{0, 1}, Point2{1, 0})
	if cw >= 0 {
		t.Errorf("expected negative (CW) orientation, got %f", cw)
	}

	collinear := Orient2D(Point2{0, 0}, Point2{1, 1}, Point2{2, 2})
	if collinear != 0 {
		t.Errorf("expected exact zero for collinear points, got %f", collinear)
	}
}

func TestIncircleUnitTriangle(t *testing.T) {
	p, q, r := Point2{0, 0}, Point2{1, 0}, Point2{0, 1}

	inside := Incircle(p, q, r, Point2{0.1, 0.1})
	if inside <= 0 {
		t.Errorf("expected point inside circumcircle, got %f", inside)
	}

	outside := Incircle(p, q, r, Point2{10, 10})
	if outside >= 0 {
		t.Errorf("expected point outside circumcircle, got %f", outside)
	}
}

func TestIncircleOnCircleIsNotInside(t *testing.T) {
	// Four points on the unit circle through which p,q,r pass: by
	// construction, s also on the circumcircle must report exactly zero,
	// and callers must treat that as "do not expand the cavity".
	p, q, r := Point2{1, 0}, Point2{0, 1}, Point2{-1, 0}
	s := Point2{0, -1}
	got := Incircle(p, q, r, s)
	if got != 0 {
		t.Errorf("expected exact zero for concyclic point, got %f", got)
	}
}

func TestSegmentIntersectCrossing(t *testing.T) {
	p, ok := SegmentIntersect(Point2{0, 0}, Point2{2, 2}, Point2{0, 2}, Point2{2, 0})
	if !ok {
		t.Fatal("expected segments to cross")
	}
	if p.X != 1 || p.Y != 1 {
		t.Errorf("expected intersection at (1,1), got %+v", p)
	}
}

func TestSegmentIntersectParallel(t *testing.T) {
	_, ok := SegmentIntersect(Point2{0, 0}, Point2{1, 0}, Point2{0, 1}, Point2{1, 1})
	if ok {
		t.Error("expected no intersection for parallel segments")
	}
}

func TestSegmentIntersectVertical(t *testing.T) {
	p, ok := SegmentIntersect(Point2{1, -1}, Point2{1, 1}, Point2{0, 0}, Point2{2, 0})
	if !ok {
		t.Fatal("expected intersection")
	}
	if p.X != 1 || p.Y != 0 {
		t.Errorf("expected (1,0), got %+v", p)
	}
}

func TestInTriangleIgnoresGhostCorners(t *testing.T) {
	a, b, c := Point2{0, 0}, Point2{2, 0}, Point2{0, 2}
	if !InTriangle(a, b, c, false, false, false, Point2{0.5, 0.5}) {
		t.Error("expected point inside finite triangle")
	}
	if InTriangle(a, b, c, false, false, false, Point2{5, 5}) {
		t.Error("expected point outside finite triangle")
	}
	// With b as the ghost vertex, the edge a-b and b-c are unconstrained;
	// only edge c-a still bounds the region.
	if !InTriangle(a, b, c, false, true, false, Point2{5, -5}) {
		t.Error("expected ghost-adjacent region to admit point beyond the hull")
	}
}

func TestCircumcenter(t *testing.T) {
	center, rSq, ok := Circumcenter(Point2{0, 0}, Point2{2, 0}, Point2{0, 2})
	if !ok {
		t.Fatal("expected non-degenerate circumcenter")
	}
	if center.X != 1 || center.Y != 1 {
		t.Errorf("expected center (1,1), got %+v", center)
	}
	if rSq != 2 {
		t.Errorf("expected radius^2 = 2, got %f", rSq)
	}
}

func TestCircumcenterDegenerate(t *testing.T) {
	_, _, ok := Circumcenter(Point2{0, 0}, Point2{1, 1}, Point2{2, 2})
	if ok {
		t.Error("expected collinear points to be reported degenerate")
	}
}
