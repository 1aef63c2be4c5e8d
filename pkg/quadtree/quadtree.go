// Package quadtree implements the sparse, outward-growing 2D spatial index
// (C2) shared by the floor-plan pipeline: nearest-neighbor, range, and
// segment-raytrace queries over leaves that aggregate sample positions,
// normals, and observing pose indices.
package quadtree

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dqcore/reconstruct/pkg/geom"
)

// Data is the payload carried by a populated leaf (the original's
// quaddata_t): a running average position, averaged normal, observed pose
// indices, and point count.
type Data struct {
	Average   geom.Point2
	Norm      geom.Point2
	NumPoints int
	PoseInds  map[int]struct{}

	sumPos geom.Point2
}

func newData() *Data {
	return &Data{PoseInds: make(map[int]struct{})}
}

// add folds p into the running mean.
func (d *Data) add(p geom.Point2) {
	d.sumPos = d.sumPos.Add(p)
	d.NumPoints++
	d.Average = d.sumPos.Scale(1 / float64(d.NumPoints))
}

// addNormal folds n into the weighted-average normal, weight equal to the
// point count *before* this insertion. A zero running average is replaced
// outright rather than averaged in, so a zero normal is never carried.
func (d *Data) addNormal(n geom.Point2, priorCount int) {
	if d.Norm == (geom.Point2{}) {
		d.Norm = n
		return
	}
	total := float64(priorCount + 1)
	d.Norm = geom.Point2{
		X: (d.Norm.X*float64(priorCount) + n.X) / total,
		Y: (d.Norm.Y*float64(priorCount) + n.Y) / total,
	}
}

// PoseList returns the sorted pose indices observed at this leaf.
func (d *Data) PoseList() []int {
	out := make([]int, 0, len(d.PoseInds))
	for p := range d.PoseInds {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// node is an internal or leaf node of the tree. Children being nil
// (isLeaf) means this is a base-level leaf; data is non-nil only for
// populated leaves.
//
//	             |
//	      1      |      0
//	             |
//	 ------------+-------------
//	             |
//	      2      |      3
type node struct {
	children [4]*node
	center   geom.Point2
	halfwidth float64
	data     *Data
}

func (n *node) isLeaf() bool {
	return n.children[0] == nil && n.children[1] == nil && n.children[2] == nil && n.children[3] == nil
}

func (n *node) contains(p geom.Point2) bool {
	return p.X >= n.center.X-n.halfwidth && p.X <= n.center.X+n.halfwidth &&
		p.Y >= n.center.Y-n.halfwidth && p.Y <= n.center.Y+n.halfwidth
}

func childIndex(p, center geom.Point2) int {
	switch {
	case p.X >= center.X && p.Y >= center.Y:
		return 0
	case p.X < center.X && p.Y >= center.Y:
		return 1
	case p.X < center.X && p.Y < center.Y:
		return 2
	default:
		return 3
	}
}

func childCenter(parent geom.Point2, idx int, childHW float64) geom.Point2 {
	switch idx {
	case 0:
		return geom.Point2{X: parent.X + childHW, Y: parent.Y + childHW}
	case 1:
		return geom.Point2{X: parent.X - childHW, Y: parent.Y + childHW}
	case 2:
		return geom.Point2{X: parent.X - childHW, Y: parent.Y - childHW}
	default:
		return geom.Point2{X: parent.X + childHW, Y: parent.Y - childHW}
	}
}

func (n *node) initChild(idx int) *node {
	if n.children[idx] == nil {
		hw := n.halfwidth / 2
		n.children[idx] = &node{center: childCenter(n.center, idx, hw), halfwidth: hw}
	}
	return n.children[idx]
}

// Tree is a sparse quadtree whose bounding box grows outward as points
// outside the current root are inserted.
type Tree struct {
	root       *node
	maxDepth   int
	resolution float64 // half-width of a base-level leaf
}

// New creates an empty tree whose base leaves have the given half-width
// (the tree's eventual resolution; pass via grid res, as the original
// constructor does).
func New(resolution float64) *Tree {
	return &Tree{resolution: resolution}
}

// MaxDepth returns the number of levels between the root and a base leaf.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Resolution returns the half-width of a base-level leaf.
func (t *Tree) Resolution() float64 { return t.resolution }

// Clear empties the tree, preserving its configured resolution.
func (t *Tree) Clear() {
	t.root = nil
	t.maxDepth = 0
}

// Insert incorporates p into the tree, growing the root outward if
// necessary, and returns the leaf data it landed in.
func (t *Tree) Insert(p geom.Point2) *Data {
	t.ensureRoot(p)
	t.growToContain(p)
	return t.root.insert(p, t.maxDepth)
}

// InsertNormal additionally folds n into the leaf's weighted-average
// normal.
func (t *Tree) InsertNormal(p geom.Point2, n geom.Point2) *Data {
	t.ensureRoot(p)
	t.growToContain(p)
	return t.root.insertWithNormal(p, n, t.maxDepth)
}

// InsertPose additionally records that pose observed this point.
func (t *Tree) InsertPose(p geom.Point2, n geom.Point2, pose int) *Data {
	d := t.InsertNormal(p, n)
	d.PoseInds[pose] = struct{}{}
	return d
}

func (t *Tree) ensureRoot(p geom.Point2) {
	if t.root == nil {
		t.root = &node{center: p, halfwidth: t.resolution}
		t.maxDepth = 0
	}
}

// growToContain doubles the root outward, re-seating the old root as the
// correct child quadrant of the new, twice-as-wide parent, until p falls
// inside the root's box.
func (t *Tree) growToContain(p geom.Point2) {
	for !t.root.contains(p) {
		dx, dy := 1.0, 1.0
		if p.X < t.root.center.X {
			dx = -1
		}
		if p.Y < t.root.center.Y {
			dy = -1
		}
		newCenter := geom.Point2{X: t.root.center.X + dx*t.root.halfwidth, Y: t.root.center.Y + dy*t.root.halfwidth}
		newRoot := &node{center: newCenter, halfwidth: t.root.halfwidth * 2}
		idx := childIndex(t.root.center, newCenter)
		newRoot.children[idx] = t.root
		t.root = newRoot
		t.maxDepth++
	}
}

func (n *node) insert(p geom.Point2, depth int) *Data {
	if depth == 0 {
		if n.data == nil {
			n.data = newData()
		}
		n.data.add(p)
		return n.data
	}
	idx := childIndex(p, n.center)
	child := n.initChild(idx)
	return child.insert(p, depth-1)
}

func (n *node) insertWithNormal(p, normal geom.Point2, depth int) *Data {
	if depth == 0 {
		if n.data == nil {
			n.data = newData()
		}
		priorCount := n.data.NumPoints
		n.data.add(p)
		n.data.addNormal(normal, priorCount)
		return n.data
	}
	idx := childIndex(p, n.center)
	child := n.initChild(idx)
	return child.insertWithNormal(p, normal, depth-1)
}

// Retrieve returns the leaf data containing p, or nil if p falls outside
// the tree or its leaf is unpopulated.
func (t *Tree) Retrieve(p geom.Point2) *Data {
	if t.root == nil || !t.root.contains(p) {
		return nil
	}
	n := t.root
	for !n.isLeaf() {
		idx := childIndex(p, n.center)
		child := n.children[idx]
		if child == nil {
			return nil
		}
		n = child
	}
	return n.data
}

// All returns every populated leaf's data, in a deterministic order
// (pre-order traversal of a fixed child ordering).
func (t *Tree) All() []*Data {
	var out []*Data
	if t.root == nil {
		return out
	}
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.isLeaf() {
			if n.data != nil {
				out = append(out, n.data)
			}
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}

// Print writes the tree in the line-oriented .dq text format described in
// spec.md §6: header (max_depth, root halfwidth, root center), then one
// line per populated leaf.
func (t *Tree) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if t.root == nil {
		fmt.Fprintln(bw, 0)
		fmt.Fprintln(bw, 0.0)
		fmt.Fprintln(bw, "0 0")
		return bw.Flush()
	}
	fmt.Fprintln(bw, t.maxDepth)
	fmt.Fprintln(bw, t.root.halfwidth)
	fmt.Fprintf(bw, "%v %v\n", t.root.center.X, t.root.center.Y)

	for _, d := range t.All() {
		printLeafLine(bw, d)
	}
	return bw.Flush()
}

func printLeafLine(w io.Writer, d *Data) {
	poses := d.PoseList()
	fmt.Fprintf(w, "%v %v %v %v %d %d", d.Average.X, d.Average.Y, d.Norm.X, d.Norm.Y, d.NumPoints, len(poses))
	for _, p := range poses {
		fmt.Fprintf(w, " %d", p)
	}
	fmt.Fprintln(w)
}

// Parse reads a tree previously written by Print. Writing the result again
// must reproduce the input byte-for-byte (spec.md §8 round-trip property);
// each leaf is re-inserted into the tree at its recorded position, and
// Print then emits the rebuilt leaves in its own traversal order.
func Parse(r io.Reader) (*Tree, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("quadtree: empty input")
	}
	maxDepth, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, fmt.Errorf("quadtree: parse max_depth: %w", err)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("quadtree: missing halfwidth")
	}
	halfwidth, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 64)
	if err != nil {
		return nil, fmt.Errorf("quadtree: parse halfwidth: %w", err)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("quadtree: missing root center")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 2 {
		return nil, fmt.Errorf("quadtree: malformed root center line %q", sc.Text())
	}
	cx, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("quadtree: parse root cx: %w", err)
	}
	cy, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("quadtree: parse root cy: %w", err)
	}

	res := halfwidth // root half-width halved once per level down to a base leaf
	for i := 0; i < maxDepth; i++ {
		res /= 2
	}
	t := &Tree{resolution: res}
	if halfwidth != 0 {
		t.root = &node{center: geom.Point2{X: cx, Y: cy}, halfwidth: halfwidth}
		t.maxDepth = maxDepth
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("quadtree: malformed leaf line %q", line)
		}
		x, _ := strconv.ParseFloat(fields[0], 64)
		y, _ := strconv.ParseFloat(fields[1], 64)
		nx, _ := strconv.ParseFloat(fields[2], 64)
		ny, _ := strconv.ParseFloat(fields[3], 64)
		numPoints, _ := strconv.Atoi(fields[4])
		numPoses, _ := strconv.Atoi(fields[5])

		d := newData()
		d.Average = geom.Point2{X: x, Y: y}
		d.Norm = geom.Point2{X: nx, Y: ny}
		d.NumPoints = numPoints
		for i := 0; i < numPoses && 6+i < len(fields); i++ {
			pose, _ := strconv.Atoi(fields[6+i])
			d.PoseInds[pose] = struct{}{}
		}

		// Re-insert at the recorded average position so the resulting
		// tree occupies the same leaf, preserving round-trip structure;
		// overwrite the aggregate fields directly since they already
		// represent the finished average rather than a single sample.
		leafData := t.root.insert(d.Average, t.maxDepth)
		*leafData = *d
		leafData.sumPos = d.Average.Scale(float64(numPoints))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("quadtree: scan: %w", err)
	}
	return t, nil
}
