package floorplan

import "github.com/dqcore/reconstruct/pkg/trirep"

// AddBoundaryEdges adds a cell-graph edge for every triangulation edge
// whose two incident triangles disagree on room id (or one side has no
// room at all), the wall-graph edges the simplifier then works on.
func (g *Graph) AddBoundaryEdges(store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey) {
	roomOf := make(map[trirep.TriKey]trirep.TriKey)
	for root, tris := range rooms {
		for _, key := range tris {
			roomOf[key] = root
		}
	}

	vertexToCell := make(map[int]int)
	for _, id := range g.Cells() {
		vertexToCell[g.cells[id].VertexID] = id
	}

	seen := make(map[[2]int]bool)
	for _, key := range store.SortedKeys() {
		info := store.Get(key)
		if info == nil {
			continue
		}
		tri := [3]int{key.A, key.B, key.C}
		for _, edge := range [3][2]int{{tri[0], tri[1]}, {tri[1], tri[2]}, {tri[2], tri[0]}} {
			a, b := edge[0], edge[1]
			ek := canonicalEdge(a, b)
			if seen[ek] {
				continue
			}

			disagree := true // nothing across this edge: a hull edge is always a boundary
			for n := range info.Neighbors {
				nv := [3]int{n.A, n.B, n.C}
				if (nv[0] == a || nv[1] == a || nv[2] == a) && (nv[0] == b || nv[1] == b || nv[2] == b) {
					disagree = roomOf[n] != roomOf[key]
					break
				}
			}
			if !disagree {
				continue
			}
			seen[ek] = true

			ca, oka := vertexToCell[a]
			cb, okb := vertexToCell[b]
			if oka && okb {
				g.AddEdge(ca, cb)
			}
		}
	}
}

func canonicalEdge(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
