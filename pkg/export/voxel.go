package export

import (
	"bufio"
	"fmt"
	"io"
)

// VoxelRecord is one `.vox` line: an integer voxel coordinate and its
// 6-bit face-state bitmap.
type VoxelRecord struct {
	X, Y, Z int32
	State   uint8
}

// VoxelDoc is the full contents of a `.vox` file.
type VoxelDoc struct {
	VoxelSize float64
	Voxels    []VoxelRecord
}

// Encode writes doc in the `.vox` text layout.
func (doc *VoxelDoc) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, doc.VoxelSize)
	for _, v := range doc.Voxels {
		fmt.Fprintln(bw, v.X, v.Y, v.Z, v.State)
	}
	return bw.Flush()
}

// Decode reads a `.vox` file, parsing records until EOF.
func (doc *VoxelDoc) Decode(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	if !sc.Scan() {
		return io.ErrUnexpectedEOF
	}
	if _, err := fmt.Sscan(sc.Text(), &doc.VoxelSize); err != nil {
		return fmt.Errorf("export: .vox voxel_size: %w", err)
	}

	doc.Voxels = nil
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		var v VoxelRecord
		var state int
		if _, err := fmt.Sscan(line, &v.X, &v.Y, &v.Z, &state); err != nil {
			return fmt.Errorf("export: .vox record %q: %w", line, err)
		}
		v.State = uint8(state)
		doc.Voxels = append(doc.Voxels, v)
	}
	return sc.Err()
}
