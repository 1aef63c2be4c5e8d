package triangulation

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/dqcore/reconstruct/internal/rng"
	"github.com/dqcore/reconstruct/pkg/geom"
)

// Point is a caller-supplied point plus its opaque reference, the unit
// BRIOOrder operates over.
type Point struct {
	Pos geom.Point2
	Ref any
}

// BRIOOrder returns pts reordered by Biased Randomized Insertion Order:
// the set is shuffled, then recursively halved, with each half sorted by
// Morton (z-order) code before the next halving. This gives incremental
// insertion the locality Amenta/Choi/Rote's analysis requires for
// expected-linear point location walks, matching spec.md §3's BRIO
// description.
func BRIOOrder(pts []Point, seed uint64) []Point {
	if len(pts) == 0 {
		return nil
	}
	out := make([]Point, len(pts))
	copy(out, pts)

	r := rng.New(seed)
	rng.Shuffle(r, len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	brioRounds(out, r)
	maximizeFirstTriangleArea(out)
	return out
}

// maximizeFirstTriangleArea swaps whichever point beyond index 1 has the
// largest |orient2D(p0, p1, r)| into index 2, so the seed triangle
// BuildFromPoints begins with is never collinear or near-degenerate.
func maximizeFirstTriangleArea(pts []Point) {
	if len(pts) <= 3 {
		return
	}
	p, q := pts[0].Pos, pts[1].Pos
	bestIdx := 2
	bestArea := math.Abs(geom.Orient2D(p, q, pts[2].Pos))
	for i := 3; i < len(pts); i++ {
		a := math.Abs(geom.Orient2D(p, q, pts[i].Pos))
		if a > bestArea {
			bestArea = a
			bestIdx = i
		}
	}
	pts[2], pts[bestIdx] = pts[bestIdx], pts[2]
}

// brioRounds repeatedly halves the (already shuffled) slice from the
// back, z-order-sorting each half in place, until a small base case
// remains; the recursion bottoms out at the front of the slice, so the
// final z-order-sorted round ends up first, biasing early insertions
// toward good locality while later ones add fine detail in
// already-warm regions.
func brioRounds(pts []Point, r *rand.Rand) {
	const baseCase = 8
	if len(pts) <= baseCase {
		zOrderSort(pts)
		return
	}
	mid := len(pts) / 2
	brioRounds(pts[:mid], r)
	zOrderSort(pts[mid:])
}

// zOrderSort sorts points in place by interleaved-bit Morton code over
// their coordinates, quantized to a shared integer grid so interleaving
// is well defined.
func zOrderSort(pts []Point) {
	if len(pts) < 2 {
		return
	}
	minX, minY := pts[0].Pos.X, pts[0].Pos.Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.Pos.X)
		minY = math.Min(minY, p.Pos.Y)
		maxX = math.Max(maxX, p.Pos.X)
		maxY = math.Max(maxY, p.Pos.Y)
	}
	spanX, spanY := maxX-minX, maxY-minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}

	const bits = 16
	const scale = float64((uint32(1) << bits) - 1)
	key := make([]uint64, len(pts))
	for i, p := range pts {
		qx := uint32(((p.Pos.X - minX) / spanX) * scale)
		qy := uint32(((p.Pos.Y - minY) / spanY) * scale)
		key[i] = interleave(qx, qy)
	}

	sort.Sort(&byZOrder{pts: pts, key: key})
}

type byZOrder struct {
	pts []Point
	key []uint64
}

func (s *byZOrder) Len() int { return len(s.pts) }
func (s *byZOrder) Less(i, j int) bool {
	return s.key[i] < s.key[j]
}
func (s *byZOrder) Swap(i, j int) {
	s.pts[i], s.pts[j] = s.pts[j], s.pts[i]
	s.key[i], s.key[j] = s.key[j], s.key[i]
}

// interleave produces the 32-bit Morton code of (x, y).
func interleave(x, y uint32) uint64 {
	return spreadBits(x) | (spreadBits(y) << 1)
}

func spreadBits(v uint32) uint64 {
	x := uint64(v)
	x = (x | (x << 16)) & 0x0000FFFF0000FFFF
	x = (x | (x << 8)) & 0x00FF00FF00FF00FF
	x = (x | (x << 4)) & 0x0F0F0F0F0F0F0F0F
	x = (x | (x << 2)) & 0x3333333333333333
	x = (x | (x << 1)) & 0x5555555555555555
	return x
}

// BuildFromPoints constructs a full triangulation from an unordered point
// set: it BRIO-reorders pts, seeds BeginTriangulation from the first two,
// and inserts the remainder in order. Returns the resulting vertex ids in
// insertion order (parallel to the BRIO-reordered slice, not to pts).
func BuildFromPoints(pts []Point, seed uint64) (*Triangulation, []int, error) {
	ordered := BRIOOrder(pts, seed)
	t := New()
	if len(ordered) < 2 {
		return t, nil, nil
	}

	v1, v2, err := t.BeginTriangulation(ordered[0].Pos, ordered[1].Pos, ordered[0].Ref, ordered[1].Ref)
	if err != nil {
		return nil, nil, err
	}
	ids := []int{v1, v2}

	for _, p := range ordered[2:] {
		id, err := t.InsertVertex(p.Pos, p.Ref)
		if err != nil && err != ErrLocateLooping {
			return nil, nil, err
		}
		ids = append(ids, id)
	}
	return t, ids, nil
}
