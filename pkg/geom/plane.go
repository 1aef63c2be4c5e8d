package geom

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateCovariance is returned when a corner set is too small or too
// colinear to determine a plane.
var ErrDegenerateCovariance = errors.New("geom: degenerate covariance, cannot fit plane")

// Plane is an oriented plane in 3-space: the set of points x such that
// Normal.Dot(x-Point) == 0.
type Plane struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
}

// DistanceTo returns the signed perpendicular distance from p to the plane.
func (pl Plane) DistanceTo(p mgl64.Vec3) float64 {
	return pl.Normal.Dot(p.Sub(pl.Point))
}

// FitPlane computes the least-squares plane through corners by taking the
// least-significant right singular vector of the centred covariance matrix.
// This is the "SVD of 3x3 covariance" vocabulary shared by C1 and C8: used
// both for a first coarse fit (C8 phase 1 seed) and for recomputing a
// combined plane when two regions merge (C8 phases 2/3).
//
// Weights, when non-nil, must have the same length as corners and are used
// to weight each corner's contribution to the mean and covariance (so a
// large face contributes more than a sliver when merging combined planes).
func FitPlane(corners []mgl64.Vec3, weights []float64) (Plane, float64, error) {
	if len(corners) < 3 {
		return Plane{}, 0, ErrDegenerateCovariance
	}

	mean, totalW := weightedMean(corners, weights)

	cov := mat.NewSymDense(3, nil)
	for i, c := range corners {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		d := c.Sub(mean)
		for r := 0; r < 3; r++ {
			for cc := r; cc < 3; cc++ {
				cov.SetSym(r, cc, cov.At(r, cc)+w*componentAt(d, r)*componentAt(d, cc))
			}
		}
	}
	if totalW > 0 {
		for r := 0; r < 3; r++ {
			for cc := r; cc < 3; cc++ {
				cov.SetSym(r, cc, cov.At(r, cc)/totalW)
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(cov, mat.SVDFull); !ok {
		return Plane{}, 0, ErrDegenerateCovariance
	}

	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	// The least-significant singular vector (smallest singular value) is
	// the best-fit plane normal; SVD of a symmetric PSD matrix orders
	// values descending, so that's the last column.
	n := mgl64.Vec3{u.At(0, 2), u.At(1, 2), u.At(2, 2)}
	if n.Len() < APPROXZero {
		return Plane{}, 0, ErrDegenerateCovariance
	}
	n = n.Normalize()

	maxErr := 0.0
	for _, c := range corners {
		d := math.Abs(n.Dot(c.Sub(mean)))
		if d > maxErr {
			maxErr = d
		}
	}

	return Plane{Point: mean, Normal: n}, maxErr, nil
}

func weightedMean(pts []mgl64.Vec3, weights []float64) (mgl64.Vec3, float64) {
	sum := mgl64.Vec3{}
	total := 0.0
	for i, p := range pts {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		sum = sum.Add(p.Mul(w))
		total += w
	}
	if total == 0 {
		return mgl64.Vec3{}, 0
	}
	return sum.Mul(1 / total), total
}

func componentAt(v mgl64.Vec3, i int) float64 {
	switch i {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}

// IntersectLine returns the line of intersection of two non-parallel
// planes as a point on the line plus a unit direction vector. ok is false
// if the planes are (numerically) parallel.
func IntersectLine(a, b Plane) (point, direction mgl64.Vec3, ok bool) {
	direction = a.Normal.Cross(b.Normal)
	if direction.Len() < APPROXZero {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	direction = direction.Normalize()

	// Solve for a point on the line using the two plane equations plus a
	// third plane orthogonal to both normals through the origin, via a
	// small 3x3 linear solve (Gonum, consistent with the rest of the
	// plane-fitting machinery).
	n1, n2 := a.Normal, b.Normal
	d1 := n1.Dot(a.Point)
	d2 := n2.Dot(b.Point)

	A := mat.NewDense(3, 3, []float64{
		n1.X(), n1.Y(), n1.Z(),
		n2.X(), n2.Y(), n2.Z(),
		direction.X(), direction.Y(), direction.Z(),
	})
	rhs := mat.NewVecDense(3, []float64{d1, d2, 0})

	var x mat.VecDense
	if err := x.SolveVec(A, rhs); err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	point = mgl64.Vec3{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
	return point, direction, true
}

// IntersectThreePlanes solves for the single point common to three planes
// whose normals are linearly independent (good dihedrals). ok is false if
// the normals are (nearly) coplanar.
func IntersectThreePlanes(a, b, c Plane) (mgl64.Vec3, bool) {
	na, nb, nc := a.Normal, b.Normal, c.Normal
	det := na.Dot(nb.Cross(nc))
	if math.Abs(det) < APPROXZero {
		return mgl64.Vec3{}, false
	}

	A := mat.NewDense(3, 3, []float64{
		na.X(), na.Y(), na.Z(),
		nb.X(), nb.Y(), nb.Z(),
		nc.X(), nc.Y(), nc.Z(),
	})
	rhs := mat.NewVecDense(3, []float64{na.Dot(a.Point), nb.Dot(b.Point), nc.Dot(c.Point)})

	var x mat.VecDense
	if err := x.SolveVec(A, rhs); err != nil {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{x.AtVec(0), x.AtVec(1), x.AtVec(2)}, true
}

// ProjectOntoAxis projects p onto the plane along the given world axis
// (0=x, 1=y, 2=z), solving for the axis component that satisfies the plane
// equation. Used by C8 phase 5's |R|=1 corner snap.
func (pl Plane) ProjectOntoAxis(p mgl64.Vec3, axis int) (mgl64.Vec3, bool) {
	nComp := componentAt(pl.Normal, axis)
	if math.Abs(nComp) < APPROXZero {
		return p, false
	}
	d := pl.Normal.Dot(pl.Point)
	rest := pl.Normal.Dot(p) - nComp*componentAt(p, axis)
	value := (d - rest) / nComp
	out := p
	switch axis {
	case 0:
		out[0] = value
	case 1:
		out[1] = value
	default:
		out[2] = value
	}
	return out, true
}

// DominantAxis returns the index (0=x,1=y,2=z) of the largest-magnitude
// component of n, used by C9 to pick the projection axis for a region.
func DominantAxis(n mgl64.Vec3) int {
	ax, ay, az := math.Abs(n.X()), math.Abs(n.Y()), math.Abs(n.Z())
	if ax >= ay && ax >= az {
		return 0
	}
	if ay >= az {
		return 1
	}
	return 2
}
