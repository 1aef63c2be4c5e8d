package voxelgrid

import "github.com/go-gl/mathgl/mgl64"

// Sample is a single range-scan return: a world-space point plus the
// index of the pose that observed it.
type Sample struct {
	Pos  mgl64.Vec3
	Pose int
}

// ScanSource yields one scan (the batch of samples collected from a
// single pose) at a time; this is the externalized "given a point-cloud
// file, yield scans" contract spec.md's `.xyz` reader sits behind, kept
// out of this package so PointChunker never depends on a file format.
type ScanSource interface {
	NextScan() (samples []Sample, ok bool)
}

// PointChunker reads scans from a ScanSource in bounded-memory chunks of
// NumScansPerFileChunk, each chunk repeating the last OverlapPerFileChunk
// scans of the previous one so that per-chunk occlusion carving remains
// continuous across a chunk boundary.
type PointChunker struct {
	src     ScanSource
	overlap [][]Sample
	done    bool
}

// NewPointChunker wraps src.
func NewPointChunker(src ScanSource) *PointChunker {
	return &PointChunker{src: src}
}

// Next returns the next chunk of scans, or ok=false once the underlying
// source and any pending overlap are both exhausted.
func (c *PointChunker) Next() (chunk [][]Sample, ok bool) {
	if c.done && len(c.overlap) == 0 {
		return nil, false
	}

	chunk = append(chunk, c.overlap...)
	c.overlap = nil

	for len(chunk) < NumScansPerFileChunk {
		scan, more := c.src.NextScan()
		if !more {
			c.done = true
			break
		}
		chunk = append(chunk, scan)
	}

	if len(chunk) == 0 {
		return nil, false
	}

	if !c.done {
		tail := OverlapPerFileChunk
		if tail > len(chunk) {
			tail = len(chunk)
		}
		c.overlap = append(c.overlap, chunk[len(chunk)-tail:]...)
	}

	return chunk, true
}

// PoseLocator resolves a pose index to its world-space origin.
type PoseLocator interface {
	PoseOrigin(pose int) mgl64.Vec3
}

// PopulatePoints drains every chunk from chunker, inserting each sample's
// voxel into the grid's opaque point set whenever the sample falls within
// rangeLimitSq of its pose's origin, per populate_points_from_xyz.
func (g *Grid) PopulatePoints(chunker *PointChunker, poses PoseLocator, rangeLimitSq float64) {
	for {
		chunk, ok := chunker.Next()
		if !ok {
			return
		}
		for _, scan := range chunk {
			for _, sample := range scan {
				origin := poses.PoseOrigin(sample.Pose)
				d := sample.Pos.Sub(origin).Len()
				if d*d > rangeLimitSq {
					continue
				}
				g.points[g.WorldToVoxel(sample.Pos)] = true
			}
		}
	}
}
