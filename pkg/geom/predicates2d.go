package geom

// Orient2D returns (px-rx)(qy-ry) - (py-ry)(qx-rx). Its sign gives the
// orientation of the ordered triple p, q, r: positive for counter-clockwise,
// negative for clockwise, zero for collinear.
//
// Degeneracies (an exact zero) are never perturbed here; callers decide the
// tie-breaking policy, as spec'd.
func Orient2D(p, q, r Point2) float64 {
	return (p.X-r.X)*(q.Y-r.Y) - (p.Y-r.Y)*(q.X-r.X)
}

// Incircle evaluates the standard 3x3 determinant expansion of the
// incircle test. For p, q, r given in CCW order, a positive result means s
// lies inside the circumcircle of p, q, r; negative means outside; zero
// means exactly on the circle.
//
// An exact zero must never be treated as "inside": new-vertex insertion
// breaks ties by not expanding the cavity (spec.md §4.1).
func Incircle(p, q, r, s Point2) float64 {
	adx := p.X - s.X
	ady := p.Y - s.Y
	bdx := q.X - s.X
	bdy := q.Y - s.Y
	cdx := r.X - s.X
	cdy := r.Y - s.Y

	adSq := adx*adx + ady*ady
	bdSq := bdx*bdx + bdy*bdy
	cdSq := cdx*cdx + cdy*cdy

	return adx*(bdy*cdSq-cdy*bdSq) -
		ady*(bdx*cdSq-cdx*bdSq) +
		adSq*(bdx*cdy-cdx*bdy)
}

// SegmentIntersect returns the point at which segments a0-a1 and b0-b1
// properly cross, and true if such a point exists. Parallel segments
// (including the vertical/vertical case) report no intersection; vertical
// lines are handled as a separate branch to avoid dividing by a zero run.
func SegmentIntersect(a0, a1, b0, b1 Point2) (Point2, bool) {
	aVertical := a1.X == a0.X
	bVertical := b1.X == b0.X

	if aVertical && bVertical {
		// Parallel vertical lines (or the same line): no proper crossing.
		return Point2{}, false
	}

	var x, y float64
	switch {
	case aVertical:
		x = a0.X
		mb := (b1.Y - b0.Y) / (b1.X - b0.X)
		y = b0.Y + mb*(x-b0.X)
	case bVertical:
		x = b0.X
		ma := (a1.Y - a0.Y) / (a1.X - a0.X)
		y = a0.Y + ma*(x-a0.X)
	default:
		ma := (a1.Y - a0.Y) / (a1.X - a0.X)
		mb := (b1.Y - b0.Y) / (b1.X - b0.X)
		if ma == mb {
			return Point2{}, false // parallel
		}
		x = (mb*b0.X - b0.Y - ma*a0.X + a0.Y) / (mb - ma)
		y = a0.Y + ma*(x-a0.X)
	}

	p := Point2{x, y}
	if !onSegment(a0, a1, p) || !onSegment(b0, b1, p) {
		return Point2{}, false
	}
	return p, true
}

func onSegment(a, b, p Point2) bool {
	const eps = 1e-9
	minX, maxX := a.X, b.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := a.Y, b.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.X >= minX-eps && p.X <= maxX+eps && p.Y >= minY-eps && p.Y <= maxY+eps
}

// InTriangle reports whether q lies on the non-ghost side of every finite
// edge of triangle (a, b, c), ignoring any corner that is the ghost vertex
// (represented here by a nil pointer in the caller's indexing — this
// function only ever sees finite corners, hasGhost tells it which edges to
// skip).
//
// CCW triangle (a, b, c): q is inside iff Orient2D is >= 0 for every edge
// not adjacent to the ghost corner.
func InTriangle(a, b, c Point2, ghostA, ghostB, ghostC bool, q Point2) bool {
	if !ghostA && !ghostB && Orient2D(a, b, q) < 0 {
		return false
	}
	if !ghostB && !ghostC && Orient2D(b, c, q) < 0 {
		return false
	}
	if !ghostC && !ghostA && Orient2D(c, a, q) < 0 {
		return false
	}
	return true
}

// Circumcenter returns the center and squared radius of the circle through
// p, q, r. The caller must guard against collinear (zero-area) input; ok is
// false when the three points are (numerically) collinear.
func Circumcenter(p, q, r Point2) (center Point2, radiusSq float64, ok bool) {
	d := 2 * (p.X*(q.Y-r.Y) + q.X*(r.Y-p.Y) + r.X*(p.Y-q.Y))
	if d == 0 {
		return Point2{}, 0, false
	}

	pSq := p.X*p.X + p.Y*p.Y
	qSq := q.X*q.X + q.Y*q.Y
	rSq := r.X*r.X + r.Y*r.Y

	ux := (pSq*(q.Y-r.Y) + qSq*(r.Y-p.Y) + rSq*(p.Y-q.Y)) / d
	uy := (pSq*(r.X-q.X) + qSq*(p.X-r.X) + rSq*(q.X-p.X)) / d

	center = Point2{ux, uy}
	radiusSq = center.DistSq(p)
	return center, radiusSq, true
}
