// Command dqfloorplan reads a populated quadtree, traces the sensor path
// through its triangulation, labels and simplifies the resulting rooms,
// and writes a floor plan.
//
// Usage:
//
//	dqfloorplan [options] <input.dq>
//
// Examples:
//
//	dqfloorplan scan.dq                       # write scan.obj
//	dqfloorplan -2 -o out.fp scan.dq           # write a 2D .fp floor plan instead
//	dqfloorplan -s -1 -c scan.dq                # disable QEM, carve through walls
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dqcore/reconstruct/pkg/export"
	"github.com/dqcore/reconstruct/pkg/floorplan"
	"github.com/dqcore/reconstruct/pkg/geom"
	"github.com/dqcore/reconstruct/pkg/quadtree"
	"github.com/dqcore/reconstruct/pkg/trirep"
)

var (
	help        = flag.Bool("h", false, "print usage and exit")
	simplifyThr = flag.Float64("s", floorplan.DefaultSimplifyParams.QEMThreshold, "QEM simplification threshold in meters, negative disables")
	export2D    = flag.Bool("2", false, "write a 2D (.fp) floor plan instead of a 3D mesh")
	carveThru   = flag.Bool("c", false, "carve through walls: skip the sensor-path trace and treat every triangle as visited")
	allowDoors  = flag.Bool("d", false, "allow simplification to remove doorway-width gaps")
	numPoses    = flag.Int("n", 0, "limit processing to the first n poses of the -poses file (0 means all)")
	posesPath   = flag.String("poses", "", "path to a pose-position file (x y z per line, one per pose index); if omitted, every triangle is treated as visited (equivalent to -c)")
	output      = flag.String("o", "", "output path (default: input with its extension swapped for the chosen format)")
	atQuery     = flag.String("at", "", "query which labeled room(s) contain the 2D point \"x,y\" (via the R-tree room index) and print them to stdout alongside the normal export")
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: dqfloorplan [options] <input.dq>")
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

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input .dq file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]

	tr, err := readQuadtree(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	poses, err := loadPoseSource(*posesPath, *numPoses)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read poses: %v\n", err)
		os.Exit(1)
	}

	g := floorplan.NewGraph()
	g.PopulateFromQuadtree(tr)

	store, err := g.Triangulate(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "triangulate: %v\n", err)
		os.Exit(1)
	}

	if *carveThru || *posesPath == "" {
		labelAllVisited(store)
	} else {
		g.LabelInterior(store, poses)
	}

	rooms := g.BuildRooms(store)
	heights := g.RoomHeights(rooms)

	if *atQuery != "" {
		report, err := queryRoomAt(store, rooms, heights, *atQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "-at %s: %v\n", *atQuery, err)
			os.Exit(1)
		}
		fmt.Println(report)
	}

	params := floorplan.DefaultSimplifyParams
	params.QEMThreshold = *simplifyThr
	if *allowDoors {
		params.MinRoomPerimeter = 0
	}
	g.Simplify(params)

	outPath := *output
	if outPath == "" {
		outPath = defaultOutputPath(inputPath, *export2D)
	}

	if err := writeFloorPlan(outPath, store, rooms, heights, *export2D); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", outPath, err)
		os.Exit(1)
	}
}

func readQuadtree(path string) (*quadtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return quadtree.Parse(bufio.NewReader(f))
}

// labelAllVisited marks every live triangle visited, the carve-through
// behaviour: the sensor-path trace is skipped entirely, so room labeling
// drops no room as unvisited.
func labelAllVisited(store *trirep.Store) {
	store.MarkVisited(store.SortedKeys())
}

func defaultOutputPath(inputPath string, twoD bool) string {
	ext := ".obj"
	if twoD {
		ext = ".fp"
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	return base + ext
}

func writeFloorPlan(path string, store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey, heights map[trirep.TriKey]trirep.RoomHeight, twoD bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	bw := bufio.NewWriter(f)

	if twoD {
		doc := buildFloorPlanDoc(store, rooms, heights)
		if err := doc.Encode(bw); err != nil {
			return err
		}
		return bw.Flush()
	}

	mesh := buildOBJMesh(store, rooms)
	if err := mesh.Encode(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// buildFloorPlanDoc flattens the store's surviving triangulation plus its
// labeled rooms into the wire shape export.FloorPlanDoc expects: a shared
// vertex list, a parallel triangle list, and per-room triangle-index sets
// into that same list.
func buildFloorPlanDoc(store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey, heights map[trirep.TriKey]trirep.RoomHeight) *export.FloorPlanDoc {
	vertIndex := make(map[int]int)
	var verts [][2]float64
	vertOf := func(v int) int {
		if idx, ok := vertIndex[v]; ok {
			return idx
		}
		p := store.Tri.Pos(v)
		idx := len(verts)
		verts = append(verts, [2]float64{p.X, p.Y})
		vertIndex[v] = idx
		return idx
	}

	triIndex := make(map[trirep.TriKey]int)
	var tris []export.FloorPlanTriangle
	for _, key := range store.SortedKeys() {
		triIndex[key] = len(tris)
		tris = append(tris, export.FloorPlanTriangle{
			I: vertOf(key.A), J: vertOf(key.B), K: vertOf(key.C),
		})
	}

	var roomDocs []export.FloorPlanRoom
	for _, r := range sortedRooms(rooms) {
		h := heights[r.Root]
		room := export.FloorPlanRoom{ZMin: h.MinZ, ZMax: h.MaxZ}
		for _, key := range r.Members {
			if idx, ok := triIndex[key]; ok {
				room.Triangles = append(room.Triangles, idx)
			}
		}
		roomDocs = append(roomDocs, room)
	}

	return &export.FloorPlanDoc{
		Resolution: 0,
		Verts:      verts,
		Tris:       tris,
		Rooms:      roomDocs,
	}
}

// sortedRooms returns rooms in ascending root-key order so the exported
// room list is deterministic across runs.
func sortedRooms(rooms map[trirep.TriKey][]trirep.TriKey) []struct {
	Root    trirep.TriKey
	Members []trirep.TriKey
} {
	var out []struct {
		Root    trirep.TriKey
		Members []trirep.TriKey
	}
	for root, members := range rooms {
		out = append(out, struct {
			Root    trirep.TriKey
			Members []trirep.TriKey
		}{root, members})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && lessTriKey(out[j].Root, out[j-1].Root); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func lessTriKey(a, b trirep.TriKey) bool {
	if a.A != b.A {
		return a.A < b.A
	}
	if a.B != b.B {
		return a.B < b.B
	}
	return a.C < b.C
}

// queryRoomAt parses "x,y" out of spec, builds the R-tree-backed room
// index over the pipeline's current rooms/heights, and formats every
// room whose bounding box contains that point.
func queryRoomAt(store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey, heights map[trirep.TriKey]trirep.RoomHeight, spec string) (string, error) {
	x, y, err := parseXY(spec)
	if err != nil {
		return "", err
	}
	idx := floorplan.BuildRoomIndex(store, rooms, heights)
	hits := idx.At(geom.Point2{X: x, Y: y})
	return formatRoomHits(x, y, hits), nil
}

func parseXY(spec string) (x, y float64, err error) {
	fields := strings.Split(spec, ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected \"x,y\", got %q", spec)
	}
	x, err = strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad x in %q: %w", spec, err)
	}
	y, err = strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad y in %q: %w", spec, err)
	}
	return x, y, nil
}

func formatRoomHits(x, y float64, hits []floorplan.RoomEntry) string {
	if len(hits) == 0 {
		return fmt.Sprintf("(%g,%g): no room", x, y)
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = fmt.Sprintf("(%g,%g): room %+v height [%.3f,%.3f]", x, y, h.Root, h.Height.MinZ, h.Height.MaxZ)
	}
	return strings.Join(lines, "\n")
}

func buildOBJMesh(store *trirep.Store, rooms map[trirep.TriKey][]trirep.TriKey) *export.OBJMesh {
	vertIndex := make(map[int]int)
	var verts []export.OBJVertex
	vertOf := func(v int) int {
		if idx, ok := vertIndex[v]; ok {
			return idx
		}
		p := store.Tri.Pos(v)
		idx := len(verts)
		verts = append(verts, export.OBJVertex{X: p.X, Y: p.Y, Z: 0, R: 1, G: 1, B: 1})
		vertIndex[v] = idx
		return idx
	}

	var faces [][3]int
	for _, key := range store.SortedKeys() {
		faces = append(faces, [3]int{vertOf(key.A), vertOf(key.B), vertOf(key.C)})
	}
	_ = rooms // 3D export carries no per-room split; .fp is the room-aware format

	return &export.OBJMesh{Vertices: verts, Faces: faces}
}

// textPoseSource implements floorplan.PoseSource over a plain "x y z" per
// line pose list. The original .mad pose-path format is an external,
// out-of-scope binary format (spec.md keeps pose data behind an abstract
// iterator); this is the minimal concrete source that contract needs to
// be exercised from a CLI, not a .mad reader.
type textPoseSource struct {
	positions []geom.Point2
	heights   []float64
	minZ      float64
	maxZ      float64
}

func loadPoseSource(path string, limit int) (floorplan.PoseSource, error) {
	src := &textPoseSource{minZ: math.Inf(-1), maxZ: math.Inf(1)}
	if path == "" {
		return src, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		x, _ := strconv.ParseFloat(fields[0], 64)
		y, _ := strconv.ParseFloat(fields[1], 64)
		z, _ := strconv.ParseFloat(fields[2], 64)
		src.positions = append(src.positions, geom.Point2{X: x, Y: y})
		src.heights = append(src.heights, z)
		if first || z < src.minZ {
			src.minZ = z
		}
		if first || z > src.maxZ {
			src.maxZ = z
		}
		first = false
		if limit > 0 && len(src.positions) >= limit {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *textPoseSource) PosePosition(pose int) (geom.Point2, float64) {
	if pose < 0 || pose >= len(s.positions) {
		return geom.Point2{}, 0
	}
	return s.positions[pose], s.heights[pose]
}

func (s *textPoseSource) PoseSequence() []int {
	seq := make([]int, len(s.positions))
	for i := range seq {
		seq[i] = i
	}
	return seq
}

func (s *textPoseSource) HeightBand() (float64, float64) { return s.minZ, s.maxZ }
