package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJVertex is a vertex position plus an RGB colour, the non-standard
// `v x y z r g b` extension this system writes.
type OBJVertex struct {
	X, Y, Z float64
	R, G, B float64
}

// OBJMesh is the data model behind a `.obj` file.
type OBJMesh struct {
	Vertices []OBJVertex
	Faces    [][3]int // 0-based in memory; written/read as 1-based
}

// Encode writes mesh as a Wavefront `.obj` file.
func (mesh *OBJMesh) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range mesh.Vertices {
		fmt.Fprintln(bw, "v", v.X, v.Y, v.Z, v.R, v.G, v.B)
	}
	for _, f := range mesh.Faces {
		fmt.Fprintln(bw, "f", f[0]+1, f[1]+1, f[2]+1)
	}
	return bw.Flush()
}

// Decode reads a `.obj` file, ignoring any line type other than `v`/`f`.
func (mesh *OBJMesh) Decode(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	mesh.Vertices = nil
	mesh.Faces = nil
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return fmt.Errorf("export: .obj vertex line %q: too few fields", sc.Text())
			}
			v := OBJVertex{}
			vals := [6]float64{}
			for i := 1; i < len(fields) && i-1 < 6; i++ {
				f, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return fmt.Errorf("export: .obj vertex line %q: %w", sc.Text(), err)
				}
				vals[i-1] = f
			}
			v.X, v.Y, v.Z, v.R, v.G, v.B = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
			mesh.Vertices = append(mesh.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return fmt.Errorf("export: .obj face line %q: too few fields", sc.Text())
			}
			var idx [3]int
			for i := 0; i < 3; i++ {
				token := fields[i+1]
				if slash := strings.IndexByte(token, '/'); slash >= 0 {
					token = token[:slash]
				}
				n, err := strconv.Atoi(token)
				if err != nil {
					return fmt.Errorf("export: .obj face line %q: %w", sc.Text(), err)
				}
				idx[i] = n - 1
			}
			mesh.Faces = append(mesh.Faces, idx)
		}
	}
	return sc.Err()
}
