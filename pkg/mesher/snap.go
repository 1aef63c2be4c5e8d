package mesher

import (
	"math"

	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Corner is an integer voxel-grid corner, keyed by its grid position
// (shared by up to 8 adjacent voxels).
type Corner struct {
	X, Y, Z int32
}

// SnapCorners computes, for every voxel corner touched by a surviving
// face, its snapped world-space position per C8 phase 5.
func (rs *Regions) SnapCorners() map[Corner]mgl64.Vec3 {
	res := rs.fg.grid.Resolution
	cornerRegions := rs.cornerRegionSets()

	out := make(map[Corner]mgl64.Vec3, len(cornerRegions))
	for c, regionIDs := range cornerRegions {
		integerPos := mgl64.Vec3{float64(c.X) * res, float64(c.Y) * res, float64(c.Z) * res}
		out[c] = snapOne(rs, integerPos, regionIDs, res)
	}
	return out
}

// cornerRegionSets maps every voxel corner to the set of region ids
// whose faces touch it.
func (rs *Regions) cornerRegionSets() map[Corner]map[int]bool {
	out := make(map[Corner]map[int]bool)
	for f := range rs.owner {
		id := rs.owner[f]
		for _, wc := range faceCorners(f) {
			if out[wc] == nil {
				out[wc] = make(map[int]bool)
			}
			out[wc][id] = true
		}
	}
	return out
}

// faceCorners returns the four integer grid corners of a face.
func faceCorners(f Face) [4]Corner {
	vx, vy, vz := f.Voxel.X, f.Voxel.Y, f.Voxel.Z
	axis, sign := faceAxisSign(f.Bit)
	x0, y0, z0 := vx, vy, vz
	switch axis {
	case 0:
		if sign > 0 {
			x0++
		}
		return [4]Corner{{x0, y0, z0}, {x0, y0 + 1, z0}, {x0, y0 + 1, z0 + 1}, {x0, y0, z0 + 1}}
	case 1:
		if sign > 0 {
			y0++
		}
		return [4]Corner{{x0, y0, z0}, {x0 + 1, y0, z0}, {x0 + 1, y0, z0 + 1}, {x0, y0, z0 + 1}}
	default:
		if sign > 0 {
			z0++
		}
		return [4]Corner{{x0, y0, z0}, {x0 + 1, y0, z0}, {x0 + 1, y0 + 1, z0}, {x0, y0 + 1, z0}}
	}
}

func snapOne(rs *Regions, integerPos mgl64.Vec3, regionIDs map[int]bool, res float64) mgl64.Vec3 {
	var planes []geom.Plane
	var sizes []int
	for id := range regionIDs {
		if r := rs.regions[id]; r != nil {
			planes = append(planes, r.Plane)
			sizes = append(sizes, len(r.Faces))
		}
	}

	switch len(planes) {
	case 0:
		return integerPos
	case 1:
		axis := geom.DominantAxis(planes[0].Normal)
		p, ok := planes[0].ProjectOntoAxis(integerPos, axis)
		if !ok {
			return integerPos
		}
		return clampSnap(integerPos, p, 0)

	case 2:
		dot := math.Abs(planes[0].Normal.Dot(planes[1].Normal))
		if dot > ParallelThreshold {
			larger := planes[0]
			if sizes[1] > sizes[0] {
				larger = planes[1]
			}
			axis := geom.DominantAxis(larger.Normal)
			p, ok := larger.ProjectOntoAxis(integerPos, axis)
			if !ok {
				return integerPos
			}
			return clampSnap(integerPos, p, math.Acos(clamp1(dot)))
		}
		point, dir, ok := geom.IntersectLine(planes[0], planes[1])
		if !ok {
			return integerPos
		}
		t := dir.Dot(integerPos.Sub(point))
		p := point.Add(dir.Mul(t))
		return clampSnap(integerPos, p, worstDihedral(planes))

	case 3:
		p, ok := geom.IntersectThreePlanes(planes[0], planes[1], planes[2])
		if ok {
			return clampSnap(integerPos, p, worstDihedral(planes))
		}
		// Degenerate triple: fall back to the best-conditioned pair.
		return snapOne(rs, integerPos, pairSubset(rs, regionIDs), res)

	default:
		return integerPos
	}
}

// pairSubset returns the two live regions among regionIDs whose normals
// are closest to perpendicular.
func pairSubset(rs *Regions, regionIDs map[int]bool) map[int]bool {
	var ids []int
	for id := range regionIDs {
		if rs.regions[id] != nil {
			ids = append(ids, id)
		}
	}
	var out map[int]bool
	best := math.Inf(1)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if d := math.Abs(rs.regions[ids[i]].Plane.Normal.Dot(rs.regions[ids[j]].Plane.Normal)); d < best {
				best, out = d, map[int]bool{ids[i]: true, ids[j]: true}
			}
		}
	}
	return out
}

func clamp1(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// worstDihedral returns the largest pairwise angle between the given
// planes' normals.
func worstDihedral(planes []geom.Plane) float64 {
	worst := 0.0
	for i := range planes {
		for j := i + 1; j < len(planes); j++ {
			a := math.Acos(clamp1(planes[i].Normal.Dot(planes[j].Normal)))
			if a > worst {
				worst = a
			}
		}
	}
	return worst
}

// clampSnap clamps the snapped position p so it stays within
// VoxelFaceMaxErrBoundaryThreshold*(1-cos(worstDihedral))^2 of the
// integer corner, per spec.md's "the larger the worst dihedral, the
// looser the clamp".
func clampSnap(integerPos, p mgl64.Vec3, worst float64) mgl64.Vec3 {
	maxDist := VoxelFaceMaxErrBoundaryThreshold * math.Pow(1-math.Cos(worst), 2)
	delta := p.Sub(integerPos)
	d := delta.Len()
	if d <= maxDist || d == 0 {
		return p
	}
	return integerPos.Add(delta.Mul(maxDist / d))
}
