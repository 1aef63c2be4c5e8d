// Package mesher implements the voxel-face mesher (C8): it turns a
// carved voxel grid's boundary faces into a face graph, flood-fills
// co-planar regions, coalesces them (strict then lax), reassigns
// degenerate faces, swallows small regions, and snaps corner vertices.
package mesher

import (
	"sort"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/voxelgrid"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a single outward-facing quad on a boundary voxel, identified by
// the voxel and which of its six bits is set.
type Face struct {
	Voxel voxelgrid.Voxel
	Bit   uint8
}

// faceAxisSign returns the (axis, sign) pair for a face bit: axis in
// {0,1,2} for x,y,z and sign +-1, matching the glossary's bit layout
// (0=-y,1=+x,2=+y,3=-x,4=-z,5=+z).
func faceAxisSign(bit uint8) (axis int, sign int) {
	switch bit {
	case voxelgrid.FaceYMinus:
		return 1, -1
	case voxelgrid.FaceXPlus:
		return 0, 1
	case voxelgrid.FaceYPlus:
		return 1, 1
	case voxelgrid.FaceXMinus:
		return 0, -1
	case voxelgrid.FaceZMinus:
		return 2, -1
	default:
		return 2, 1
	}
}

// Normal returns the outward unit normal of a face bit.
func Normal(bit uint8) mgl64.Vec3 {
	axis, sign := faceAxisSign(bit)
	v := mgl64.Vec3{}
	v[axis] = float64(sign)
	return v
}

// bitFor is the inverse of faceAxisSign: the face bit facing in the given
// signed direction along axis.
func bitFor(axis, sign int) uint8 {
	switch axis {
	case 0:
		if sign > 0 {
			return voxelgrid.FaceXPlus
		}
		return voxelgrid.FaceXMinus
	case 1:
		if sign > 0 {
			return voxelgrid.FaceYPlus
		}
		return voxelgrid.FaceYMinus
	default:
		if sign > 0 {
			return voxelgrid.FaceZPlus
		}
		return voxelgrid.FaceZMinus
	}
}

// stepAxis returns v shifted by amt along axis.
func stepAxis(v voxelgrid.Voxel, axis int, amt int32) voxelgrid.Voxel {
	var dx, dy, dz int32
	switch axis {
	case 0:
		dx = amt
	case 1:
		dy = amt
	default:
		dz = amt
	}
	return v.Add(dx, dy, dz)
}

var allBits = []uint8{
	voxelgrid.FaceYMinus, voxelgrid.FaceXPlus, voxelgrid.FaceYPlus,
	voxelgrid.FaceXMinus, voxelgrid.FaceZMinus, voxelgrid.FaceZPlus,
}

// Graph is the face graph built from a carved grid: every boundary
// voxel's set face bits, plus their edge-adjacency.
type Graph struct {
	grid  *voxelgrid.Grid
	faces map[Face]bool
}

// BuildGraph emits one Face per (boundary voxel, outward bit) pair —
// C8 phase 0.
func BuildGraph(g *voxelgrid.Grid) *Graph {
	fg := &Graph{grid: g, faces: make(map[Face]bool)}
	for _, v := range g.Voxels() {
		state := g.State(v)
		for _, bit := range allBits {
			if state&bit != 0 {
				fg.faces[Face{Voxel: v, Bit: bit}] = true
			}
		}
	}
	return fg
}

// Faces returns every face in deterministic (sorted) order.
func (fg *Graph) Faces() []Face {
	out := make([]Face, 0, len(fg.faces))
	for f := range fg.faces {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return faceLess(out[i], out[j]) })
	return out
}

func faceLess(a, b Face) bool {
	if a.Voxel.X != b.Voxel.X {
		return a.Voxel.X < b.Voxel.X
	}
	if a.Voxel.Y != b.Voxel.Y {
		return a.Voxel.Y < b.Voxel.Y
	}
	if a.Voxel.Z != b.Voxel.Z {
		return a.Voxel.Z < b.Voxel.Z
	}
	return a.Bit < b.Bit
}

// Has reports whether f is a live face in the graph.
func (fg *Graph) Has(f Face) bool { return fg.faces[f] }

// Resolution returns the world size of one voxel edge.
func (fg *Graph) Resolution() float64 { return fg.grid.Resolution }

// EdgeNeighbors returns f's edge-neighbours: up to four faces, one per
// in-plane direction, picked from the twelve candidate positions
// find_neighbors_for checks for each direction, in the same priority
// order it applies when more than one candidate is live:
//
//   - over-the-top: the perpendicular face one voxel further along both
//     f's own axis and the in-plane direction, facing back toward f —
//     the case where the boundary steps up and over a ledge.
//   - co-planar: the same bit one voxel over in the in-plane direction,
//     f's own region-growing case.
//   - hinge: the perpendicular face of f's own voxel, facing the
//     in-plane direction — an outer corner where the boundary turns a
//     right angle without changing voxel.
//
// A direction with none of the three live reports no neighbour there,
// which flood fill, degenerate reassignment, and small-region swallowing
// all already treat as meaningful (fewer than four neighbours at a
// silhouette edge).
func (fg *Graph) EdgeNeighbors(f Face) []Face {
	axis, sign := faceAxisSign(f.Bit)
	var out []Face
	for b := 0; b < 3; b++ {
		if b == axis {
			continue
		}
		for _, dirSign := range [2]int{1, -1} {
			if nf, ok := fg.edgeNeighborSlot(f, axis, sign, b, dirSign); ok {
				out = append(out, nf)
			}
		}
	}
	return out
}

// edgeNeighborSlot resolves one of f's four edge-neighbour slots,
// identified by the in-plane axis b and which side (dirSign) of it.
func (fg *Graph) edgeNeighborSlot(f Face, axis, sign, b, dirSign int) (Face, bool) {
	overTop := Face{
		Voxel: stepAxis(stepAxis(f.Voxel, axis, int32(sign)), b, int32(dirSign)),
		Bit:   bitFor(b, -dirSign),
	}
	if fg.faces[overTop] {
		return overTop, true
	}
	coplanar := Face{Voxel: stepAxis(f.Voxel, b, int32(dirSign)), Bit: f.Bit}
	if fg.faces[coplanar] {
		return coplanar, true
	}
	hinge := Face{Voxel: f.Voxel, Bit: bitFor(b, dirSign)}
	if fg.faces[hinge] {
		return hinge, true
	}
	return Face{}, false
}

// Corners returns the four world-space corners of a unit face at the
// grid's resolution, in a consistent winding order for its outward
// normal.
func (fg *Graph) Corners(f Face) [4]mgl64.Vec3 {
	res := fg.grid.Resolution
	ox, oy, oz := float64(f.Voxel.X)*res, float64(f.Voxel.Y)*res, float64(f.Voxel.Z)*res
	axis, sign := faceAxisSign(f.Bit)

	var c [4]mgl64.Vec3
	corner := func(dx, dy, dz float64) mgl64.Vec3 {
		return mgl64.Vec3{ox + dx*res, oy + dy*res, oz + dz*res}
	}
	switch axis {
	case 0:
		x := 0.0
		if sign > 0 {
			x = 1.0
		}
		c = [4]mgl64.Vec3{corner(x, 0, 0), corner(x, 1, 0), corner(x, 1, 1), corner(x, 0, 1)}
	case 1:
		y := 0.0
		if sign > 0 {
			y = 1.0
		}
		c = [4]mgl64.Vec3{corner(0, y, 0), corner(0, y, 1), corner(1, y, 1), corner(1, y, 0)}
	default:
		z := 0.0
		if sign > 0 {
			z = 1.0
		}
		c = [4]mgl64.Vec3{corner(0, 0, z), corner(1, 0, z), corner(1, 1, z), corner(0, 1, z)}
	}
	if sign < 0 {
		c[1], c[3] = c[3], c[1] // keep winding outward-facing for the minus side
	}
	return c
}

// cornerPlane fits a throwaway plane through f's four corners, used as
// the seed plane for a brand-new single-face region.
func cornerPlane(fg *Graph, f Face) geom.Plane {
	c := fg.Corners(f)
	return geom.Plane{Point: c[0], Normal: Normal(f.Bit)}
}
