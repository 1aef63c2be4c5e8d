package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// IDFWall is one outermost-boundary edge of a room, written as one Wall
// surface.
type IDFWall struct {
	X0, Y0 float64
	X1, Y1 float64
}

// IDFRoom is one EnergyPlus zone: its name, height band, floor polygon
// (CCW, the Floor surface), and the wall segments along its outermost
// boundary (one Wall surface each). The Ceiling surface reuses the same
// floor polygon with reversed winding. Materials and schedules are
// hard-coded literals in the writer, not modeled here — a pure
// serializer concern per spec.md's Non-goals.
type IDFRoom struct {
	Name       string
	ZMin, ZMax float64
	Floor      [][2]float64
	Walls      []IDFWall
}

// ErrIDFReadOnly is returned by IDFRoom.Decode: the IDF writer is an
// export-only sink, there is no reverse mapping back to a room.
var ErrIDFReadOnly = errors.New("export: .idf has no decode path")

// Encode writes room as a minimal EnergyPlus block: one Zone, one Floor
// BuildingSurface:Detailed, one Ceiling (reversed winding), and one Wall
// surface per boundary edge.
func (room *IDFRoom) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Zone,\n  %s;\n\n", room.Name)

	writeSurface(bw, room.Name+"_Floor", "Floor", room.Name, room.ZMin, room.Floor, false)
	writeSurface(bw, room.Name+"_Ceiling", "Ceiling", room.Name, room.ZMax, room.Floor, true)

	for i, seg := range room.Walls {
		pts := [][3]float64{
			{seg.X0, seg.Y0, room.ZMin},
			{seg.X1, seg.Y1, room.ZMin},
			{seg.X1, seg.Y1, room.ZMax},
			{seg.X0, seg.Y0, room.ZMax},
		}
		fmt.Fprintf(bw, "BuildingSurface:Detailed,\n  %s_Wall_%d,\n  Wall,\n  ,\n  %s,\n", room.Name, i, room.Name)
		for _, p := range pts {
			fmt.Fprintf(bw, "  %g, %g, %g,\n", p[0], p[1], p[2])
		}
		fmt.Fprintln(bw, "  ;")
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// Decode always fails: see ErrIDFReadOnly.
func (room *IDFRoom) Decode(r io.Reader) error {
	return ErrIDFReadOnly
}

// EncodeIDFRooms writes every room's IDF block in sequence, one Zone per
// detected room.
func EncodeIDFRooms(w io.Writer, rooms []IDFRoom) error {
	for i := range rooms {
		if err := rooms[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

func writeSurface(bw *bufio.Writer, name, kind, zoneName string, z float64, poly [][2]float64, reversed bool) {
	fmt.Fprintf(bw, "BuildingSurface:Detailed,\n  %s,\n  %s,\n  ,\n  %s,\n", name, kind, zoneName)
	if !reversed {
		for _, p := range poly {
			fmt.Fprintf(bw, "  %g, %g, %g,\n", p[0], p[1], z)
		}
	} else {
		for i := len(poly) - 1; i >= 0; i-- {
			fmt.Fprintf(bw, "  %g, %g, %g,\n", poly[i][0], poly[i][1], z)
		}
	}
	fmt.Fprintln(bw, "  ;")
	fmt.Fprintln(bw)
}
