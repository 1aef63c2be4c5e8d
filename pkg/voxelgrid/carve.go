package voxelgrid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CarveSegment walks a 3D-DDA ray from p to s at the grid's resolution,
// carving every boundary voxel it crosses until it reaches s or, unless
// force is set, the voxel just before one the opaque point set occludes.
// Carving from a starting voxel that is not already a boundary voxel is
// invalid and fails silently, per spec.md's carve_segment precondition.
//
// The walk is done in voxel-unit space (world coordinates divided by the
// grid resolution), the same grid-traversal shape as a block-game
// raycast, generalised from unit cubes to the grid's fixed resolution.
func (g *Grid) CarveSegment(p, s mgl64.Vec3, force bool) {
	start := g.WorldToVoxel(p)
	if !force && !g.IsBoundary(start) {
		return
	}
	if !g.CarveVoxel(start, force) {
		return
	}

	res := g.Resolution
	pu := mgl64.Vec3{p.X() / res, p.Y() / res, p.Z() / res}
	su := mgl64.Vec3{s.X() / res, s.Y() / res, s.Z() / res}
	dirLen := su.Sub(pu).Len()
	if dirLen == 0 {
		return
	}
	dir := su.Sub(pu).Mul(1 / dirLen)

	gx, gy, gz := start.X, start.Y, start.Z

	deltaX := safeInvAbs(dir.X())
	deltaY := safeInvAbs(dir.Y())
	deltaZ := safeInvAbs(dir.Z())

	stepX, sideDistX := axisStep(pu.X(), float64(gx), dir.X(), deltaX)
	stepY, sideDistY := axisStep(pu.Y(), float64(gy), dir.Y(), deltaY)
	stepZ, sideDistZ := axisStep(pu.Z(), float64(gz), dir.Z(), deltaZ)

	cur := start
	traveled := 0.0

	for traveled < dirLen {
		var dx, dy, dz int32
		switch {
		case sideDistX <= sideDistY && sideDistX <= sideDistZ:
			traveled = sideDistX
			sideDistX += deltaX
			dx = stepX
		case sideDistY <= sideDistZ:
			traveled = sideDistY
			sideDistY += deltaY
			dy = stepY
		default:
			traveled = sideDistZ
			sideDistZ += deltaZ
			dz = stepZ
		}
		if traveled >= dirLen {
			return
		}

		next := cur.Add(dx, dy, dz)
		if !force && g.PointOccupied(next) {
			return
		}
		if !g.CarveVoxel(next, force) {
			return
		}
		cur = next
	}
}

func safeInvAbs(x float64) float64 {
	if x == 0 {
		return math.Inf(1)
	}
	return math.Abs(1 / x)
}

// axisStep returns the +-1 grid step direction and the (voxel-unit)
// distance to the first cell-boundary crossing along one axis, the
// per-axis piece of the standard DDA grid walk.
func axisStep(pos, gridCoord, dirComponent, delta float64) (int32, float64) {
	switch {
	case dirComponent > 0:
		return 1, (gridCoord + 1 - pos) * delta
	case dirComponent < 0:
		return -1, (pos - gridCoord) * delta
	default:
		return 0, math.Inf(1)
	}
}
