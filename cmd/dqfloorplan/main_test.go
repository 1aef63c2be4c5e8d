package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dqcore/reconstruct/pkg/floorplan"
	"github.com/dqcore/reconstruct/pkg/trirep"
)

func TestDefaultOutputPathSwapsExtension(t *testing.T) {
	if got := defaultOutputPath("scan.dq", false); got != "scan.obj" {
		t.Errorf("3D default: got %q, want scan.obj", got)
	}
	if got := defaultOutputPath("scan.dq", true); got != "scan.fp" {
		t.Errorf("2D default: got %q, want scan.fp", got)
	}
}

func TestLoadPoseSourceWithoutPathHasEmptySequence(t *testing.T) {
	poses, err := loadPoseSource("", 0)
	if err != nil {
		t.Fatalf("loadPoseSource: %v", err)
	}
	if len(poses.PoseSequence()) != 0 {
		t.Errorf("expected empty pose sequence, got %v", poses.PoseSequence())
	}
}

func TestLoadPoseSourceParsesLinesAndTracksHeightBand(t *testing.T) {
	path := writeTempFile(t, "0 0 1.0\n1 1 2.0\n2 2 0.5\n")
	poses, err := loadPoseSource(path, 0)
	if err != nil {
		t.Fatalf("loadPoseSource: %v", err)
	}
	seq := poses.PoseSequence()
	if len(seq) != 3 {
		t.Fatalf("expected 3 poses, got %d", len(seq))
	}
	minZ, maxZ := poses.HeightBand()
	if minZ != 0.5 || maxZ != 2.0 {
		t.Errorf("height band: got [%v,%v], want [0.5,2.0]", minZ, maxZ)
	}
	_, h := poses.PosePosition(1)
	if h != 2.0 {
		t.Errorf("pose 1 height: got %v, want 2.0", h)
	}
}

func TestLoadPoseSourceRespectsLimit(t *testing.T) {
	path := writeTempFile(t, "0 0 0\n1 1 0\n2 2 0\n3 3 0\n")
	poses, err := loadPoseSource(path, 2)
	if err != nil {
		t.Fatalf("loadPoseSource: %v", err)
	}
	if len(poses.PoseSequence()) != 2 {
		t.Errorf("expected 2 poses under -n limit, got %d", len(poses.PoseSequence()))
	}
}

func TestSortedRoomsOrdersByRootKeyAscending(t *testing.T) {
	rooms := map[trirep.TriKey][]trirep.TriKey{
		{A: 5, B: 6, C: 7}: {{A: 5, B: 6, C: 7}},
		{A: 1, B: 2, C: 3}: {{A: 1, B: 2, C: 3}},
		{A: 3, B: 4, C: 5}: {{A: 3, B: 4, C: 5}},
	}
	got := sortedRooms(rooms)
	if len(got) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(got))
	}
	if got[0].Root.A != 1 || got[1].Root.A != 3 || got[2].Root.A != 5 {
		t.Errorf("rooms not sorted ascending: %+v", got)
	}
}

func TestParseXYParsesAndRejectsMalformedSpecs(t *testing.T) {
	x, y, err := parseXY("3.5, -2")
	if err != nil {
		t.Fatalf("parseXY: %v", err)
	}
	if x != 3.5 || y != -2 {
		t.Errorf("got (%v,%v), want (3.5,-2)", x, y)
	}

	if _, _, err := parseXY("3.5"); err == nil {
		t.Error("expected an error for a missing coordinate")
	}
	if _, _, err := parseXY("a,b"); err == nil {
		t.Error("expected an error for non-numeric coordinates")
	}
}

func TestFormatRoomHitsReportsMissAndHits(t *testing.T) {
	miss := formatRoomHits(1, 2, nil)
	if miss != "(1,2): no room" {
		t.Errorf("got %q, want a no-room message", miss)
	}

	hits := []floorplan.RoomEntry{
		{Root: trirep.TriKey{A: 1, B: 2, C: 3}, Height: trirep.RoomHeight{MinZ: 0, MaxZ: 2.5}},
	}
	got := formatRoomHits(1, 2, hits)
	if got == miss {
		t.Errorf("expected a hit report distinct from the miss message, got %q", got)
	}
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "poses.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
