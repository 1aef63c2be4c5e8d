// Package voxelgrid implements the carved voxel grid (C6) and ray carver
// (C7): a sparse map of boundary voxels, each storing a 6-bit face-state
// bitmap, carved along 3D-DDA ray segments from pose to sample.
package voxelgrid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Face bit positions, fixed exactly as the source glossary's face table:
// 0 = -y, 1 = +x, 2 = +y, 3 = -x, 4 = -z, 5 = +z.
const (
	FaceYMinus uint8 = 1 << iota
	FaceXPlus
	FaceYPlus
	FaceXMinus
	FaceZMinus
	FaceZPlus
)

// faceOffsets maps each face bit to the grid-adjacent voxel delta and the
// opposing face bit on that neighbour.
var faceOffsets = []struct {
	bit    uint8
	dx, dy, dz int32
	opposite   uint8
}{
	{FaceYMinus, 0, -1, 0, FaceYPlus},
	{FaceXPlus, 1, 0, 0, FaceXMinus},
	{FaceYPlus, 0, 1, 0, FaceYMinus},
	{FaceXMinus, -1, 0, 0, FaceXPlus},
	{FaceZMinus, 0, 0, -1, FaceZPlus},
	{FaceZPlus, 0, 0, 1, FaceZMinus},
}

// Voxel is a grid coordinate at the grid's fixed resolution; map-keyed, no
// floating voxel positions are stored anywhere.
type Voxel struct {
	X, Y, Z int32
}

// Add returns v offset by (dx,dy,dz).
func (v Voxel) Add(dx, dy, dz int32) Voxel {
	return Voxel{v.X + dx, v.Y + dy, v.Z + dz}
}

// Grid is the sparse boundary-voxel map: every entry has non-zero
// face-state, and a voxel is "in the map" iff it is a boundary voxel.
type Grid struct {
	Resolution float64 // vs: the world-space edge length of one voxel
	state      map[Voxel]uint8
	points     map[Voxel]bool // opaque point-occlusion set from PopulatePoints
}

// New returns an all-solid grid (no boundary voxels recorded yet — every
// voxel is implicitly solid until carved) at the given world-space
// resolution.
func New(resolution float64) *Grid {
	return &Grid{
		Resolution: resolution,
		state:      make(map[Voxel]uint8),
		points:     make(map[Voxel]bool),
	}
}

// WorldToVoxel quantizes a world-space point to its containing voxel at
// the grid's resolution.
func (g *Grid) WorldToVoxel(p mgl64.Vec3) Voxel {
	return Voxel{
		X: int32(math.Floor(p.X() / g.Resolution)),
		Y: int32(math.Floor(p.Y() / g.Resolution)),
		Z: int32(math.Floor(p.Z() / g.Resolution)),
	}
}

// State returns a voxel's face-state bitmap (0 if not a boundary voxel,
// i.e. fully interior or not yet carved).
func (g *Grid) State(v Voxel) uint8 { return g.state[v] }

// IsBoundary reports whether v currently has any outward-facing bit set.
func (g *Grid) IsBoundary(v Voxel) bool { return g.state[v] != 0 }

// Count returns the number of boundary voxels currently in the map.
func (g *Grid) Count() int { return len(g.state) }

// setBit sets bit on v's state, inserting v into the sparse map if it was
// not already present.
func (g *Grid) setBit(v Voxel, bit uint8) {
	g.state[v] |= bit
}

// clearBit clears bit on v's state, removing v from the sparse map
// entirely once its state returns to zero.
func (g *Grid) clearBit(v Voxel, bit uint8) {
	s := g.state[v] &^ bit
	if s == 0 {
		delete(g.state, v)
		return
	}
	g.state[v] = s
}

// CarveVoxel removes v from the solid region: it is cleared to state 0,
// and every grid-adjacent solid neighbour gains the outward bit facing v.
// v itself must already be a boundary voxel (state != 0), matching
// carve_segment's "carving from outside the current carved region is
// invalid" precondition; carving the grid's very first voxel is the one
// exception, permitted via force.
func (g *Grid) CarveVoxel(v Voxel, force bool) bool {
	if !force && !g.IsBoundary(v) {
		return false
	}
	was := g.state[v]
	delete(g.state, v)
	for _, f := range faceOffsets {
		if was&f.bit != 0 {
			// that face already bordered carved space before this carve;
			// the neighbour there is already interior, nothing to update.
			continue
		}
		n := v.Add(f.dx, f.dy, f.dz)
		g.setBit(n, f.opposite)
	}
	return true
}

// FillVoxel is the inverse of CarveVoxel: legal only for an interior
// voxel (state 0) adjacent to the current boundary. It restores v to
// solid and clears the corresponding bit on every boundary neighbour that
// was exposing a face toward it. A voxel carved-interior and a voxel
// solid-interior are otherwise indistinguishable (both read as state 0),
// so Fill only ever restores a voxel directly touching the boundary; it
// cannot re-solidify a voxel buried deeper in carved space in one call.
func (g *Grid) FillVoxel(v Voxel) bool {
	if g.IsBoundary(v) {
		return false
	}
	touchedBoundary := false
	for _, f := range faceOffsets {
		n := v.Add(f.dx, f.dy, f.dz)
		if g.state[n]&f.opposite != 0 {
			g.clearBit(n, f.opposite)
			touchedBoundary = true
		}
	}
	if !touchedBoundary {
		return false
	}
	return true
}

// PointOccupied reports whether v has an entry in the opaque point set
// populated by PopulatePoints.
func (g *Grid) PointOccupied(v Voxel) bool { return g.points[v] }

// RemoveOutliers clears any boundary voxel whose set-face count falls
// below minFaces, the outlier-removal pass of spec.md §4.6.
func (g *Grid) RemoveOutliers(minFaces int) {
	var toClear []Voxel
	for v, s := range g.state {
		if popcount(s) < minFaces {
			toClear = append(toClear, v)
		}
	}
	for _, v := range toClear {
		delete(g.state, v)
	}
}

func popcount(s uint8) int {
	n := 0
	for s != 0 {
		n += int(s & 1)
		s >>= 1
	}
	return n
}

// Voxels returns every boundary voxel currently in the map, in
// deterministic (sorted) order.
func (g *Grid) Voxels() []Voxel {
	out := make([]Voxel, 0, len(g.state))
	for v := range g.state {
		out = append(out, v)
	}
	sortVoxels(out)
	return out
}

func sortVoxels(vs []Voxel) {
	less := func(a, b Voxel) bool {
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	}
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && less(vs[j], vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
