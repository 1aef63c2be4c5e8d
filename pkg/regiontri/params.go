package regiontri

// MinMeshUnionSize is the minimum triangle-island size (by union-find
// component) that survives small-mesh-island removal, recovered from
// original_source/execs/surface_carve/src/util/parameters.h.
const MinMeshUnionSize = 10000
