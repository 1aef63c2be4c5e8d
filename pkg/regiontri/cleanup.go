package regiontri

import "github.com/dqcore/reconstruct/internal/unionfind"

type triKey [3]VertexKey

// canonicalize rotates t so its lexicographically-smallest vertex comes
// first, giving a rotation-invariant key while preserving winding.
func canonicalize(t Triangle) triKey {
	idx := 0
	for i := 1; i < 3; i++ {
		if vertexLess(t[i], t[idx]) {
			idx = i
		}
	}
	return triKey{t[idx], t[(idx+1)%3], t[(idx+2)%3]}
}

// RemoveDuplicates drops any triangle that is an exact repeat (same three
// vertex keys, any rotation) of one already kept, and removes anti-parallel
// pairs (same three vertices, opposite winding) entirely — both sides of a
// degenerate sliver are worse than neither.
func (m *Mesh) RemoveDuplicates() (duplicates, antiParallel int) {
	kept := make([]Triangle, 0, len(m.Triangles))
	present := make(map[triKey]int) // canonical key -> index into kept, +1

	for _, t := range m.Triangles {
		fwd := canonicalize(t)
		rev := canonicalize(Triangle{t[0], t[2], t[1]})

		if _, ok := present[fwd]; ok {
			duplicates++
			continue
		}
		if i, ok := present[rev]; ok {
			antiParallel++
			delete(present, rev)
			kept[i-1] = kept[len(kept)-1]
			present[canonicalize(kept[i-1])] = i
			kept = kept[:len(kept)-1]
			continue
		}

		kept = append(kept, t)
		present[fwd] = len(kept)
	}
	m.Triangles = kept
	return duplicates, antiParallel
}

func vertexLess(a, b VertexKey) bool {
	if a.RegionID != b.RegionID {
		return a.RegionID < b.RegionID
	}
	if a.IsCorner != b.IsCorner {
		return !a.IsCorner
	}
	if a.IsCorner {
		if a.CornerX != b.CornerX {
			return a.CornerX < b.CornerX
		}
		if a.CornerY != b.CornerY {
			return a.CornerY < b.CornerY
		}
		return a.CornerZ < b.CornerZ
	}
	if a.U != b.U {
		return a.U < b.U
	}
	return a.V < b.V
}

// RemoveSmallIslands unions triangles sharing a vertex into connected
// components and drops every component smaller than minSize, matching C9's
// final small-mesh-island cull.
func (m *Mesh) RemoveSmallIslands(minSize int) (removed int) {
	if len(m.Triangles) == 0 {
		return 0
	}
	uf := unionfind.New[int]()

	vertexOwner := make(map[VertexKey]int)
	for i, t := range m.Triangles {
		for _, v := range t {
			if owner, ok := vertexOwner[v]; ok {
				uf.Union(owner, i)
			} else {
				vertexOwner[v] = i
			}
		}
	}

	kept := make([]Triangle, 0, len(m.Triangles))
	for i, t := range m.Triangles {
		if uf.Size(i) < minSize {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.Triangles = kept
	return removed
}
