package floorplan

import (
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/triangulation"
)

// triangulationPoint pairs a 2D position with an opaque reference (here,
// always a cell id) BRIO insertion order must be able to carry through to
// the caller without leaking triangulation.Point's layout elsewhere in
// this package.
type triangulationPoint struct {
	pos geom.Point2
	ref any
}

// buildTriangulation BRIO-orders pts and inserts them into a fresh
// triangulation, returning the built triangulation plus, for each input
// point in its original order, the vertex id it was assigned.
func buildTriangulation(pts []triangulationPoint, seed uint64) (*triangulation.Triangulation, []int, error) {
	in := make([]triangulation.Point, len(pts))
	for i, p := range pts {
		in[i] = triangulation.Point{Pos: p.pos, Ref: p.ref}
	}

	tri, vertexIDs, err := triangulation.BuildFromPoints(in, seed)
	if err != nil {
		return nil, nil, err
	}

	refToVertex := make(map[any]int, len(vertexIDs))
	for _, vid := range vertexIDs {
		refToVertex[tri.Vertex(vid).Ref] = vid
	}

	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = refToVertex[p.ref]
	}
	return tri, out, nil
}
