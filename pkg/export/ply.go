package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PLYRegion is one `element region` record: the region's fitted plane
// plus the triangle and edge indices belonging to it.
type PLYRegion struct {
	Normal   [3]float32
	Point    [3]float32
	Triangle []int
	Edges    [][2]int
}

// PLYMesh is the data model behind a `.ply` file: vertex positions, a
// triangle list, and the optional per-region extension this system adds.
type PLYMesh struct {
	Vertices [][3]float32
	Faces    [][3]int
	Regions  []PLYRegion
	Binary   bool // little-endian IEEE-754 float32 when true, ASCII otherwise
}

// Encode writes mesh as a `.ply` file with an `element vertex`, an
// `element face`, and (when mesh.Regions is non-empty) an `element
// region` block.
func (mesh *PLYMesh) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	format := "ascii 1.0"
	if mesh.Binary {
		format = "binary_little_endian 1.0"
	}
	fmt.Fprintln(bw, "ply")
	fmt.Fprintf(bw, "format %s\n", format)
	fmt.Fprintf(bw, "element vertex %d\n", len(mesh.Vertices))
	fmt.Fprintln(bw, "property float x")
	fmt.Fprintln(bw, "property float y")
	fmt.Fprintln(bw, "property float z")
	fmt.Fprintf(bw, "element face %d\n", len(mesh.Faces))
	fmt.Fprintln(bw, "property list uchar int vertex_indices")
	if len(mesh.Regions) > 0 {
		fmt.Fprintf(bw, "element region %d\n", len(mesh.Regions))
		fmt.Fprintln(bw, "property float nx")
		fmt.Fprintln(bw, "property float ny")
		fmt.Fprintln(bw, "property float nz")
		fmt.Fprintln(bw, "property float px")
		fmt.Fprintln(bw, "property float py")
		fmt.Fprintln(bw, "property float pz")
		fmt.Fprintln(bw, "property list int int triangle_indices")
		fmt.Fprintln(bw, "property list int int edge_indices")
	}
	fmt.Fprintln(bw, "end_header")

	if mesh.Binary {
		return mesh.encodeBinaryBody(bw)
	}
	return mesh.encodeASCIIBody(bw)
}

func (mesh *PLYMesh) encodeASCIIBody(bw *bufio.Writer) error {
	for _, v := range mesh.Vertices {
		fmt.Fprintln(bw, v[0], v[1], v[2])
	}
	for _, f := range mesh.Faces {
		fmt.Fprintln(bw, 3, f[0], f[1], f[2])
	}
	for _, r := range mesh.Regions {
		fmt.Fprint(bw, r.Normal[0], " ", r.Normal[1], " ", r.Normal[2], " ",
			r.Point[0], " ", r.Point[1], " ", r.Point[2], " ", len(r.Triangle))
		for _, ti := range r.Triangle {
			fmt.Fprint(bw, " ", ti)
		}
		fmt.Fprint(bw, " ", len(r.Edges)*2)
		for _, e := range r.Edges {
			fmt.Fprint(bw, " ", e[0], " ", e[1])
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func (mesh *PLYMesh) encodeBinaryBody(bw *bufio.Writer) error {
	for _, v := range mesh.Vertices {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, f := range mesh.Faces {
		if err := bw.WriteByte(3); err != nil {
			return err
		}
		idx := [3]int32{int32(f[0]), int32(f[1]), int32(f[2])}
		if err := binary.Write(bw, binary.LittleEndian, idx); err != nil {
			return err
		}
	}
	for _, r := range mesh.Regions {
		binary.Write(bw, binary.LittleEndian, r.Normal)
		binary.Write(bw, binary.LittleEndian, r.Point)
		binary.Write(bw, binary.LittleEndian, int32(len(r.Triangle)))
		for _, ti := range r.Triangle {
			binary.Write(bw, binary.LittleEndian, int32(ti))
		}
		binary.Write(bw, binary.LittleEndian, int32(len(r.Edges)*2))
		for _, e := range r.Edges {
			binary.Write(bw, binary.LittleEndian, int32(e[0]))
			binary.Write(bw, binary.LittleEndian, int32(e[1]))
		}
	}
	return bw.Flush()
}

// Decode reads an ASCII `.ply` file produced by Encode, including the
// optional `element region` block.
func (mesh *PLYMesh) Decode(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var numVertex, numFace, numRegion int
	sawHeaderEnd := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "format binary"):
			mesh.Binary = true
		case strings.HasPrefix(line, "element vertex"):
			fmt.Sscanf(line, "element vertex %d", &numVertex)
		case strings.HasPrefix(line, "element face"):
			fmt.Sscanf(line, "element face %d", &numFace)
		case strings.HasPrefix(line, "element region"):
			fmt.Sscanf(line, "element region %d", &numRegion)
		case line == "end_header":
			sawHeaderEnd = true
		}
		if sawHeaderEnd {
			break
		}
	}
	if !sawHeaderEnd {
		if err := sc.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}

	if mesh.Binary {
		return fmt.Errorf("export: binary .ply decode not supported by this reader, re-export ascii")
	}

	mesh.Vertices = make([][3]float32, numVertex)
	for i := range mesh.Vertices {
		if !sc.Scan() {
			return io.ErrUnexpectedEOF
		}
		fields := strings.Fields(sc.Text())
		for j := 0; j < 3 && j < len(fields); j++ {
			f, _ := strconv.ParseFloat(fields[j], 32)
			mesh.Vertices[i][j] = float32(f)
		}
	}

	mesh.Faces = make([][3]int, numFace)
	for i := range mesh.Faces {
		if !sc.Scan() {
			return io.ErrUnexpectedEOF
		}
		var n int
		fmt.Sscan(sc.Text(), &n, &mesh.Faces[i][0], &mesh.Faces[i][1], &mesh.Faces[i][2])
	}

	mesh.Regions = make([]PLYRegion, numRegion)
	for i := range mesh.Regions {
		if !sc.Scan() {
			return io.ErrUnexpectedEOF
		}
		fields := strings.Fields(sc.Text())
		reg := &mesh.Regions[i]
		if len(fields) < 7 {
			return fmt.Errorf("export: .ply region %d: short record", i)
		}
		parseF := func(s string) float32 {
			f, _ := strconv.ParseFloat(s, 32)
			return float32(f)
		}
		reg.Normal = [3]float32{parseF(fields[0]), parseF(fields[1]), parseF(fields[2])}
		reg.Point = [3]float32{parseF(fields[3]), parseF(fields[4]), parseF(fields[5])}
		nTri, _ := strconv.Atoi(fields[6])
		off := 7
		reg.Triangle = make([]int, nTri)
		for j := range reg.Triangle {
			reg.Triangle[j], _ = strconv.Atoi(fields[off+j])
		}
		off += nTri
		nEdgeVals, _ := strconv.Atoi(fields[off])
		off++
		reg.Edges = make([][2]int, 0, nEdgeVals/2)
		for j := 0; j+1 < nEdgeVals; j += 2 {
			a, _ := strconv.Atoi(fields[off+j])
			b, _ := strconv.Atoi(fields[off+j+1])
			reg.Edges = append(reg.Edges, [2]int{a, b})
		}
	}
	return nil
}
