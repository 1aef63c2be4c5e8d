package mesher

import "sort"

// Coalesce runs C8 phases 2-4: strict coalesce (error-bounded merge),
// lax coalesce (parallel-only merge), degenerate-face reassignment
// between and after both, and small-region swallowing.
func (rs *Regions) Coalesce(minRegionSize int) {
	rs.coalescePass(true)
	rs.reassignDegenerate()
	rs.coalescePass(false)
	rs.reassignDegenerate()
	rs.swallowSmallRegions(minRegionSize)
}

// coalescePass repeatedly picks the region with fewest neighbours and
// attempts to merge it into each neighbour in turn: strict (errorBound
// true) requires the combined plane's max corner error to stay below
// VoxelFaceMaxErrThreshold and the normals to not be anti-parallel; lax
// (errorBound false) accepts any neighbour whose normal dot exceeds
// ParallelThreshold, ignoring error.
func (rs *Regions) coalescePass(errorBound bool) {
	tried := make(map[int]bool)
	for {
		id, ok := rs.fewestNeighbors(tried)
		if !ok {
			return
		}
		if rs.tryMergeOne(id, errorBound) {
			tried = make(map[int]bool)
		} else {
			tried[id] = true
		}
	}
}

// fewestNeighbors returns the live region id with the smallest neighbour
// set (ties broken by ascending id), or ok=false once every region has
// been tried and none merged further in this pass.
func (rs *Regions) fewestNeighbors(tried map[int]bool) (int, bool) {
	ids := rs.IDs()
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := rs.regions[ids[i]], rs.regions[ids[j]]
		if len(ri.Neighbors) != len(rj.Neighbors) {
			return len(ri.Neighbors) < len(rj.Neighbors)
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		if !tried[id] {
			return id, true
		}
	}
	return 0, false
}

// tryMergeOne attempts to merge region id into one of its neighbours
// (the largest candidate that qualifies), returning whether a merge
// happened.
func (rs *Regions) tryMergeOne(id int, errorBound bool) bool {
	r := rs.regions[id]
	if r == nil {
		return false
	}
	var neighborIDs []int
	for n := range r.Neighbors {
		neighborIDs = append(neighborIDs, n)
	}
	sort.Ints(neighborIDs)

	bestID, bestSize := -1, -1
	for _, nid := range neighborIDs {
		n := rs.regions[nid]
		if n == nil {
			continue
		}
		if !rs.qualifies(r, n, errorBound) {
			continue
		}
		if len(n.Faces) > bestSize {
			bestID, bestSize = nid, len(n.Faces)
		}
	}
	if bestID < 0 {
		return false
	}

	dst, src := bestID, id
	if len(r.Faces) > bestSize {
		dst, src = id, bestID
	}
	rs.merge(dst, src)
	return true
}

func (rs *Regions) qualifies(a, b *Region, errorBound bool) bool {
	dot := a.Plane.Normal.Dot(b.Plane.Normal)
	if errorBound {
		if dot <= 0 {
			return false
		}
		return combinedPlaneError(rs.fg, a, b) < VoxelFaceMaxErrThreshold*rs.fg.grid.Resolution
	}
	return dot > ParallelThreshold
}

// combinedPlaneError fits the plane of a and b's combined corner set and
// returns its max per-corner distance, the error phase 2's strict
// coalesce bounds.
func combinedPlaneError(fg *Graph, a, b *Region) float64 {
	faces := make(map[Face]bool, len(a.Faces)+len(b.Faces))
	for f := range a.Faces {
		faces[f] = true
	}
	for f := range b.Faces {
		faces[f] = true
	}
	_, maxErr := fitRegionPlane(fg, &Region{Faces: faces})
	return maxErr
}

// reassignDegenerate transfers any face with >= DegenerateFaceThreshold
// of its 4 edge-neighbours in a different region to that region, and
// swallows any region left with exactly one neighbour into it.
func (rs *Regions) reassignDegenerate() {
	changed := true
	for changed {
		changed = false
		for _, f := range rs.fg.Faces() {
			owner := rs.owner[f]
			if owner == 0 {
				continue
			}
			counts := make(map[int]int)
			for _, n := range rs.fg.EdgeNeighbors(f) {
				if nid, ok := rs.owner[n]; ok {
					counts[nid]++
				}
			}
			bestID, bestCount := owner, 0
			for nid, c := range counts {
				if nid == owner {
					continue
				}
				if c > bestCount {
					bestID, bestCount = nid, c
				}
			}
			if bestID != owner && bestCount >= DegenerateFaceThreshold {
				rs.reassign(f, bestID)
				changed = true
			}
		}
		if changed {
			rs.rebuildNeighbors()
		}
	}

	for _, id := range rs.IDs() {
		r := rs.regions[id]
		if r != nil && len(r.Neighbors) == 1 {
			for only := range r.Neighbors {
				rs.merge(only, id)
			}
		}
	}
}

// swallowSmallRegions merges any region with fewer than minSize faces
// into its most-parallel large neighbour, skipping a merge that would
// drop a region shared between two other regions' neighbour sets (the
// critical-feature guard).
func (rs *Regions) swallowSmallRegions(minSize int) {
	for _, id := range rs.IDs() {
		r := rs.regions[id]
		if r == nil || len(r.Faces) >= minSize {
			continue
		}
		bestID, bestDot := -1, -2.0
		for nid := range r.Neighbors {
			n := rs.regions[nid]
			if n == nil || len(n.Faces) < minSize {
				continue
			}
			dot := r.Plane.Normal.Dot(n.Plane.Normal)
			if dot > bestDot {
				bestID, bestDot = nid, dot
			}
		}
		if bestID < 0 {
			continue
		}
		if rs.sharedByThirdRegion(id, bestID) {
			continue
		}
		rs.merge(bestID, id)
	}
}

// sharedByThirdRegion reports whether some third region has both a and b
// as neighbours, meaning swallowing a into b would erase a feature edge
// that third region still needs to distinguish.
func (rs *Regions) sharedByThirdRegion(a, b int) bool {
	for _, id := range rs.IDs() {
		if id == a || id == b {
			continue
		}
		r := rs.regions[id]
		if r.Neighbors[a] && r.Neighbors[b] {
			return true
		}
	}
	return false
}
