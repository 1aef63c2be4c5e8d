package export

import (
	"bytes"
	"testing"
)

func TestVoxelDocRoundTrip(t *testing.T) {
	doc := &VoxelDoc{
		VoxelSize: 0.05,
		Voxels: []VoxelRecord{
			{X: 0, Y: 0, Z: 0, State: 0x3F},
			{X: -1, Y: 2, Z: 3, State: 0x01},
		},
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got VoxelDoc
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Voxels) != 2 || got.Voxels[0].State != 0x3F || got.Voxels[1].X != -1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFloorPlanDocRoundTrip(t *testing.T) {
	doc := &FloorPlanDoc{
		Resolution: 0.1,
		Verts:      [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Tris: []FloorPlanTriangle{
			{I: 0, J: 1, K: 2},
			{I: 1, J: 3, K: 2},
		},
		Rooms: []FloorPlanRoom{
			{ZMin: 0, ZMax: 2.5, Triangles: []int{0, 1}},
		},
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got FloorPlanDoc
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Verts) != 4 || len(got.Tris) != 2 || len(got.Rooms) != 1 {
		t.Fatalf("shape mismatch: %+v", got)
	}
	if len(got.Rooms[0].Triangles) != 2 {
		t.Errorf("expected 2 room triangles, got %d", len(got.Rooms[0].Triangles))
	}
}

func TestOBJMeshRoundTrip(t *testing.T) {
	mesh := &OBJMesh{
		Vertices: []OBJVertex{
			{X: 0, Y: 0, Z: 0, R: 1, G: 1, B: 1},
			{X: 1, Y: 0, Z: 0, R: 0, G: 0, B: 0},
			{X: 0, Y: 1, Z: 0, R: 0, G: 0, B: 0},
		},
		Faces: [][3]int{{0, 1, 2}},
	}
	var buf bytes.Buffer
	if err := mesh.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got OBJMesh
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Vertices) != 3 || len(got.Faces) != 1 {
		t.Fatalf("shape mismatch: %+v", got)
	}
	if got.Faces[0] != [3]int{0, 1, 2} {
		t.Errorf("expected 0-based face indices preserved, got %v", got.Faces[0])
	}
}

// TestPLYRoundTripWithRegions exercises spec.md's "writing a mesh with 3
// regions to PLY and reading back the same normals and per-region
// triangle index sets" scenario.
func TestPLYRoundTripWithRegions(t *testing.T) {
	mesh := &PLYMesh{
		Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {0, 0, 1}, {1, 0, 1}},
		Faces:    [][3]int{{0, 1, 2}, {1, 3, 2}, {0, 1, 4}, {1, 5, 4}, {2, 3, 4}},
		Regions: []PLYRegion{
			{Normal: [3]float32{0, 0, 1}, Point: [3]float32{0, 0, 0}, Triangle: []int{0, 1}, Edges: [][2]int{{0, 1}}},
			{Normal: [3]float32{0, 1, 0}, Point: [3]float32{0, 0, 0}, Triangle: []int{2, 3}, Edges: [][2]int{{0, 4}}},
			{Normal: [3]float32{1, 0, 0}, Point: [3]float32{1, 0, 0}, Triangle: []int{4}, Edges: nil},
		},
	}
	var buf bytes.Buffer
	if err := mesh.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got PLYMesh
	if err := got.Decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Vertices) != len(mesh.Vertices) || len(got.Faces) != len(mesh.Faces) {
		t.Fatalf("shape mismatch: %d verts, %d faces", len(got.Vertices), len(got.Faces))
	}
	if len(got.Regions) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(got.Regions))
	}
	for i, want := range mesh.Regions {
		gotRegion := got.Regions[i]
		if gotRegion.Normal != want.Normal {
			t.Errorf("region %d normal mismatch: got %v want %v", i, gotRegion.Normal, want.Normal)
		}
		if len(gotRegion.Triangle) != len(want.Triangle) {
			t.Errorf("region %d triangle count mismatch: got %d want %d", i, len(gotRegion.Triangle), len(want.Triangle))
		}
	}
}

func TestIDFRoomEncodeWritesZoneAndSurfaces(t *testing.T) {
	room := &IDFRoom{
		Name: "Room1",
		ZMin: 0, ZMax: 2.5,
		Floor: [][2]float64{{0, 0}, {4, 0}, {4, 3}, {0, 3}},
		Walls: []IDFWall{
			{X0: 0, Y0: 0, X1: 4, Y1: 0},
			{X0: 4, Y0: 0, X1: 4, Y1: 3},
		},
	}
	var buf bytes.Buffer
	if err := room.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte("Zone")) {
		t.Error("expected a Zone block")
	}
	if !bytes.Contains(buf.Bytes(), []byte("Room1_Wall_1")) {
		t.Errorf("expected two wall surfaces, got:\n%s", out)
	}
}
