package voxelgrid

// Chunked point-cloud streaming constants, recovered from
// original_source/execs/surface_carve/src/util/parameters.h.
const (
	NumScansPerFileChunk = 8000
	OverlapPerFileChunk  = 3
)

// DefaultVoxelResolution and DefaultMaxScanDistanceSq mirror the same
// source file's scanning-system defaults.
const (
	DefaultVoxelResolution  = 0.05
	DefaultMaxScanDistanceSq = 225.0 // meters^2
)

// GridCleanupFaceThreshold is the minimum set-face count a boundary
// voxel must retain to survive RemoveOutliers.
const GridCleanupFaceThreshold = 3
