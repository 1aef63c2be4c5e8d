package export

import (
	"bufio"
	"fmt"
	"io"
)

// FloorPlanTriangle is one (i,j,k) vertex-index face of a `.fp` file.
type FloorPlanTriangle struct {
	I, J, K int
}

// FloorPlanRoom is one room record: its height band and the member
// triangle indices.
type FloorPlanRoom struct {
	ZMin, ZMax float64
	Triangles  []int
}

// FloorPlanDoc is the full contents of a `.fp` floor-plan file.
type FloorPlanDoc struct {
	Resolution float64
	Verts      [][2]float64
	Tris       []FloorPlanTriangle
	Rooms      []FloorPlanRoom
}

// Encode writes doc in the `.fp` text layout.
func (doc *FloorPlanDoc) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, doc.Resolution)
	fmt.Fprintln(bw, len(doc.Verts))
	fmt.Fprintln(bw, len(doc.Tris))
	fmt.Fprintln(bw, len(doc.Rooms))
	for _, v := range doc.Verts {
		fmt.Fprintln(bw, v[0], v[1])
	}
	for _, t := range doc.Tris {
		fmt.Fprintln(bw, t.I, t.J, t.K)
	}
	for _, rm := range doc.Rooms {
		fmt.Fprint(bw, rm.ZMin, " ", rm.ZMax, " ", len(rm.Triangles))
		for _, ti := range rm.Triangles {
			fmt.Fprint(bw, " ", ti)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// Decode reads a `.fp` file.
func (doc *FloorPlanDoc) Decode(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	readLine := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return sc.Text(), nil
	}

	line, err := readLine()
	if err != nil {
		return err
	}
	if _, err := fmt.Sscan(line, &doc.Resolution); err != nil {
		return fmt.Errorf("export: .fp resolution: %w", err)
	}

	var numVerts, numTris, numRooms int
	if line, err = readLine(); err != nil {
		return err
	}
	fmt.Sscan(line, &numVerts)
	if line, err = readLine(); err != nil {
		return err
	}
	fmt.Sscan(line, &numTris)
	if line, err = readLine(); err != nil {
		return err
	}
	fmt.Sscan(line, &numRooms)

	doc.Verts = make([][2]float64, numVerts)
	for i := range doc.Verts {
		if line, err = readLine(); err != nil {
			return err
		}
		if _, err := fmt.Sscan(line, &doc.Verts[i][0], &doc.Verts[i][1]); err != nil {
			return fmt.Errorf("export: .fp vertex %d: %w", i, err)
		}
	}

	doc.Tris = make([]FloorPlanTriangle, numTris)
	for i := range doc.Tris {
		if line, err = readLine(); err != nil {
			return err
		}
		t := &doc.Tris[i]
		if _, err := fmt.Sscan(line, &t.I, &t.J, &t.K); err != nil {
			return fmt.Errorf("export: .fp triangle %d: %w", i, err)
		}
	}

	doc.Rooms = make([]FloorPlanRoom, numRooms)
	for i := range doc.Rooms {
		if line, err = readLine(); err != nil {
			return err
		}
		rm := &doc.Rooms[i]
		var n int
		if _, err := fmt.Sscan(line, &rm.ZMin, &rm.ZMax, &n); err != nil {
			return fmt.Errorf("export: .fp room %d header: %w", i, err)
		}
		rm.Triangles = make([]int, n)
		if n > 0 {
			rest := afterNFields(line, 3)
			args := make([]any, n)
			for j := range rm.Triangles {
				args[j] = &rm.Triangles[j]
			}
			if _, err := fmt.Sscan(rest, args...); err != nil {
				return fmt.Errorf("export: .fp room %d triangles: %w", i, err)
			}
		}
	}
	return nil
}
