package triangulation

import (
	"errors"
	"fmt"

	"github.com/dqcore/reconstruct/pkg/geom"
)

// TraceSegment walks the triangulation from the triangle containing a to
// the one containing b, returning every triangle the segment a-b passes
// through (including both endpoints' triangles), in order. This is the
// "raytrace pose -> cell through the triangulation" operation the
// floor-plan pipeline's interior-labeling stage needs.
func (t *Triangulation) TraceSegment(a, b geom.Point2) ([][3]int, error) {
	p, q, r, err := t.locate(a)
	if err != nil && !errors.Is(err, ErrLocateLooping) {
		return nil, err
	}

	var out [][3]int
	maxSteps := 2*len(t.verts) + 8

	for step := 0; step < maxSteps; step++ {
		out = append(out, CanonicalTriangle(p, q, r))

		if t.pointInTri(p, q, r, b) {
			break
		}

		type edge struct{ a, b int }
		edges := [3]edge{{p, q}, {q, r}, {r, p}}

		crossed := false
		for _, e := range edges {
			if e.a == GhostVertex || e.b == GhostVertex {
				continue
			}
			if geom.Orient2D(t.pos(e.a), t.pos(e.b), b) >= 0 {
				continue
			}
			if _, ok := geom.SegmentIntersect(a, b, t.pos(e.a), t.pos(e.b)); !ok {
				continue
			}
			next, ok := t.apex(e.b, e.a)
			if !ok {
				return out, fmt.Errorf("triangulation: TraceSegment: broken topology crossing edge (%d,%d)", e.a, e.b)
			}
			p, q, r = e.b, e.a, next
			crossed = true
			break
		}
		if !crossed {
			break
		}
	}
	return out, nil
}

func (t *Triangulation) pointInTri(p, q, r int, target geom.Point2) bool {
	return geom.InTriangle(t.pos(p), t.pos(q), t.pos(r),
		p == GhostVertex, q == GhostVertex, r == GhostVertex, target)
}

