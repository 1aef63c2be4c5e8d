package mesher

// Phase constants recovered from
// original_source/execs/surface_carve/src/util/parameters.h.
const (
	// VoxelFaceMaxErrThreshold bounds the strict-coalesce (phase 2) max
	// per-corner distance from the combined plane, in voxel-size units.
	VoxelFaceMaxErrThreshold = 1
	// VoxelFaceMaxErrBoundaryThreshold bounds how far phase 5's vertex
	// snap may move a corner from its integer position.
	VoxelFaceMaxErrBoundaryThreshold = 3
	// ParallelThreshold is the cos(angle) a region pair must exceed to
	// merge during the lax coalesce (phase 3); 0.97 corresponds to
	// roughly 14 degrees.
	ParallelThreshold = 0.97
	// DegenerateFaceThreshold: a face with at least this many of its 4
	// edge-neighbours in a different region is reassigned to it.
	DegenerateFaceThreshold = 3
)
