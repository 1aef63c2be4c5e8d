// Command surfacecarve carves a voxel grid from range-scan points, meshes
// its boundary surface into planar regions, and writes the result.
//
// Usage:
//
//	surfacecarve [options] <input.xyz> <poses>
//
// Examples:
//
//	surfacecarve scan.xyz poses.txt                 # write scan.ply
//	surfacecarve -r 0.1 -o out.obj scan.xyz poses.txt
//	surfacecarve -a -o out.ply scan.xyz poses.txt    # ascii PLY
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/dqcore/reconstruct/pkg/export"
	"github.com/dqcore/reconstruct/pkg/mesher"
	"github.com/dqcore/reconstruct/pkg/regiontri"
	"github.com/dqcore/reconstruct/pkg/voxelgrid"
)

var (
	help           = flag.Bool("h", false, "print usage and exit")
	resolution     = flag.Float64("r", voxelgrid.DefaultVoxelResolution, "voxel edge length in meters")
	beginPose      = flag.Int("b", 0, "first pose index to process")
	numPoses       = flag.Int("n", 0, "number of poses to process (0 means all remaining)")
	readVox        = flag.Bool("v", false, "input is an existing .vox file, skip carving")
	pointOcclusion = flag.Bool("p", false, "populate opaque point occlusions before carving")
	downsample     = flag.Int("d", 1, "use only every d-th scan")
	simplifyFlag   = flag.Bool("s", true, "coalesce boundary faces into planar regions before meshing")
	uniform        = flag.Bool("u", false, "uniform (marching-cubes) meshing mode; not implemented, falls back to region meshing")
	rangeLimit     = flag.Float64("m", 15.0, "maximum scan range in meters")
	noChunk        = flag.Bool("f", false, "don't chunk the input file, load every scan at once")
	asciiOutput    = flag.Bool("a", false, "write PLY output as ascii instead of binary")
	minRegionArea  = flag.Float64("c", 0, "minimum surface area (square meters) a coalesced region must reach to survive; does not affect triangle geometry, only region groupings")
	output         = flag.String("o", "", "output path (default: input with its extension swapped for the chosen format)")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: surfacecarve [options] <input.xyz> <poses>")
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		return
	}
	if *uniform {
		fmt.Fprintln(os.Stderr, "warning: -u (uniform/marching-cubes meshing) is not implemented, using region meshing")
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]
	posesPath := ""
	if len(args) > 1 {
		posesPath = args[1]
	}

	grid, err := buildGrid(inputPath, posesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "make-grid: %v\n", err)
		os.Exit(1)
	}

	mesh, err := createMesh(grid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create-mesh: %v\n", err)
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		outPath = defaultOutputPath(inputPath)
	}
	if err := exportData(outPath, grid, mesh); err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		os.Exit(1)
	}
}

// buildGrid is make_grid: either loads an existing carved grid, or carves
// one from range-scan points along the pose path, optionally restricting
// to an opaque point-occlusion set first.
func buildGrid(inputPath, posesPath string) (*voxelgrid.Grid, error) {
	if *readVox {
		return readVoxelGrid(inputPath, *resolution)
	}

	poses, err := loadPoses(posesPath)
	if err != nil {
		return nil, fmt.Errorf("read poses: %w", err)
	}

	src, err := newXYZSource(inputPath, poses, *beginPose, *numPoses, *downsample)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", inputPath, err)
	}

	grid := voxelgrid.New(*resolution)
	chunker := voxelgrid.NewPointChunker(src)

	if *pointOcclusion {
		grid.PopulatePoints(chunker, poses, *rangeLimit**rangeLimit)
		chunker = voxelgrid.NewPointChunker(src)
	}

	carveFromChunks(grid, chunker, poses)
	return grid, nil
}

func carveFromChunks(grid *voxelgrid.Grid, chunker *voxelgrid.PointChunker, poses *poseList) {
	for {
		chunk, ok := chunker.Next()
		if !ok {
			return
		}
		for _, scan := range chunk {
			for _, sample := range scan {
				origin := poses.PoseOrigin(sample.Pose)
				grid.CarveSegment(origin, sample.Pos, false)
			}
		}
	}
}

func readVoxelGrid(path string, fallbackResolution float64) (*voxelgrid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc export.VoxelDoc
	if err := doc.Decode(bufio.NewReader(f)); err != nil {
		return nil, err
	}
	res := doc.VoxelSize
	if res == 0 {
		res = fallbackResolution
	}
	grid := voxelgrid.New(res)
	for _, v := range doc.Voxels {
		voxel := voxelgrid.Voxel{X: v.X, Y: v.Y, Z: v.Z}
		grid.CarveVoxel(voxel, true)
	}
	return grid, nil
}

// createMesh is create_mesh: builds the face graph, flood-fills planar
// regions, optionally coalesces and corner-snaps them, then triangulates
// every region into a cleaned-up mesh.
func createMesh(grid *voxelgrid.Grid) (*regiontri.Mesh, error) {
	fg := mesher.BuildGraph(grid)
	regions := mesher.FloodFill(fg)
	if *simplifyFlag {
		regions.Coalesce(minRegionFaceCount(grid.Resolution, *minRegionArea))
		regions.SnapCorners()
	}
	return regiontri.BuildMesh(regions, fg), nil
}

// minRegionFaceCount converts -c's square-meter area threshold into the
// boundary-face count Coalesce swallows small regions by, approximating
// each face's area as resolution^2.
func minRegionFaceCount(resolution, areaM2 float64) int {
	if areaM2 <= 0 {
		return 1
	}
	faces := int(math.Round(areaM2 / (resolution * resolution)))
	if faces < 1 {
		faces = 1
	}
	return faces
}

func defaultOutputPath(inputPath string) string {
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ".ply"
}

// exportData is export_data: writes the grid and/or mesh according to the
// output path's extension.
func exportData(path string, grid *voxelgrid.Grid, mesh *regiontri.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".vox":
		doc := buildVoxelDoc(grid)
		if err := doc.Encode(bw); err != nil {
			return err
		}
	case ".obj":
		obj := buildOBJMesh(mesh)
		if err := obj.Encode(bw); err != nil {
			return err
		}
	default:
		ply := buildPLYMesh(mesh, grid)
		ply.Binary = !*asciiOutput
		if err := ply.Encode(bw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func buildVoxelDoc(grid *voxelgrid.Grid) *export.VoxelDoc {
	doc := &export.VoxelDoc{VoxelSize: grid.Resolution}
	for _, v := range grid.Voxels() {
		doc.Voxels = append(doc.Voxels, export.VoxelRecord{X: v.X, Y: v.Y, Z: v.Z, State: grid.State(v)})
	}
	return doc
}

func meshVertexIndex(mesh *regiontri.Mesh) (map[regiontri.VertexKey]int, [][3]float32) {
	idx := make(map[regiontri.VertexKey]int, len(mesh.Positions))
	var verts [][3]float32
	for _, k := range sortedPositions(mesh) {
		p := mesh.Positions[k]
		idx[k] = len(verts)
		verts = append(verts, [3]float32{float32(p.X()), float32(p.Y()), float32(p.Z())})
	}
	return idx, verts
}

// sortedPositions returns mesh's vertex keys in a stable order so
// repeated exports of the same mesh produce byte-identical files.
func sortedPositions(mesh *regiontri.Mesh) []regiontri.VertexKey {
	keys := make([]regiontri.VertexKey, 0, len(mesh.Positions))
	for k := range mesh.Positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	return keys
}

func buildOBJMesh(mesh *regiontri.Mesh) *export.OBJMesh {
	idx, verts := meshVertexIndex(mesh)
	objVerts := make([]export.OBJVertex, len(verts))
	for i, v := range verts {
		objVerts[i] = export.OBJVertex{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2]), R: 1, G: 1, B: 1}
	}
	var faces [][3]int
	for _, t := range mesh.Triangles {
		faces = append(faces, [3]int{idx[t[0]], idx[t[1]], idx[t[2]]})
	}
	return &export.OBJMesh{Vertices: objVerts, Faces: faces}
}

func buildPLYMesh(mesh *regiontri.Mesh, grid *voxelgrid.Grid) *export.PLYMesh {
	idx, verts := meshVertexIndex(mesh)
	var faces [][3]int
	for _, t := range mesh.Triangles {
		faces = append(faces, [3]int{idx[t[0]], idx[t[1]], idx[t[2]]})
	}
	_ = grid // region metadata is not reconstructed from the mesh alone here
	return &export.PLYMesh{Vertices: verts, Faces: faces}
}

// poseList and xyzSource are the minimal concrete stand-ins for the
// original program's .mad pose path and chunked .xyz scan reader, both
// external, out-of-scope binary formats per spec.md: floorplan.PoseSource
// and voxelgrid.ScanSource/PoseLocator only need an iterator over
// (timestamp, position) and (point, pose) pairs, which these satisfy from
// plain whitespace-separated text.
type poseList struct {
	origins []mgl64.Vec3
}

func loadPoses(path string) (*poseList, error) {
	pl := &poseList{}
	if path == "" {
		return pl, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		x, _ := strconv.ParseFloat(fields[0], 64)
		y, _ := strconv.ParseFloat(fields[1], 64)
		z, _ := strconv.ParseFloat(fields[2], 64)
		pl.origins = append(pl.origins, mgl64.Vec3{x, y, z})
	}
	return pl, sc.Err()
}

func (pl *poseList) PoseOrigin(pose int) mgl64.Vec3 {
	if pose < 0 || pose >= len(pl.origins) {
		return mgl64.Vec3{}
	}
	return pl.origins[pose]
}

// xyzSource reads "x y z pose" lines, grouping consecutive lines sharing a
// pose index into one scan, honoring -b/-n/-d's begin/count/downsample
// selection.
type xyzSource struct {
	sc           *bufio.Scanner
	begin, end   int
	downsample   int
	havePending  bool
	pendingLine  [4]float64
	exhausted    bool
}

func newXYZSource(path string, poses *poseList, begin, n, downsample int) (*xyzSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	end := begin + n
	if n <= 0 {
		end = len(poses.origins)
		if end == 0 {
			end = 1 << 30
		}
	}
	if downsample < 1 {
		downsample = 1
	}
	src := &xyzSource{sc: sc, begin: begin, end: end, downsample: downsample}
	src.advance()
	return src, nil
}

// advance reads the next line into the pending slot, skipping blank lines
// and lines with too few fields.
func (src *xyzSource) advance() {
	for src.sc.Scan() {
		fields := strings.Fields(src.sc.Text())
		if len(fields) < 4 {
			continue
		}
		x, _ := strconv.ParseFloat(fields[0], 64)
		y, _ := strconv.ParseFloat(fields[1], 64)
		z, _ := strconv.ParseFloat(fields[2], 64)
		pose, _ := strconv.ParseFloat(fields[3], 64)
		src.pendingLine = [4]float64{x, y, z, pose}
		src.havePending = true
		return
	}
	src.havePending = false
	src.exhausted = true
}

func (src *xyzSource) NextScan() ([]voxelgrid.Sample, bool) {
	for {
		if !src.havePending {
			return nil, false
		}
		pose := int(src.pendingLine[3])
		var samples []voxelgrid.Sample
		for src.havePending && int(src.pendingLine[3]) == pose {
			samples = append(samples, voxelgrid.Sample{
				Pos:  mgl64.Vec3{src.pendingLine[0], src.pendingLine[1], src.pendingLine[2]},
				Pose: pose,
			})
			src.advance()
		}
		if pose < src.begin || pose >= src.end || (pose-src.begin)%src.downsample != 0 {
			continue
		}
		return samples, true
	}
}
