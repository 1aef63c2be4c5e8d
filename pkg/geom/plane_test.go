package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFitPlaneOnZPlane(t *testing.T) {
	corners := []mgl64.Vec3{
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
	}
	plane, maxErr, err := FitPlane(corners, nil)
	if err != nil {
		t.Fatalf("FitPlane: %v", err)
	}
	if maxErr > 1e-9 {
		t.Errorf("expected near-zero max error for a coplanar set, got %f", maxErr)
	}
	if math.Abs(math.Abs(plane.Normal.Z())-1) > 1e-9 {
		t.Errorf("expected normal aligned with Z axis, got %+v", plane.Normal)
	}
}

func TestFitPlaneTooFewPoints(t *testing.T) {
	_, _, err := FitPlane([]mgl64.Vec3{{0, 0, 0}, {1, 0, 0}}, nil)
	if err != ErrDegenerateCovariance {
		t.Errorf("expected ErrDegenerateCovariance, got %v", err)
	}
}

func TestIntersectThreePlanesCorner(t *testing.T) {
	xy := Plane{Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 0, 1}}
	xz := Plane{Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{0, 1, 0}}
	yz := Plane{Point: mgl64.Vec3{0, 0, 0}, Normal: mgl64.Vec3{1, 0, 0}}

	p, ok := IntersectThreePlanes(xy, xz, yz)
	if !ok {
		t.Fatal("expected independent planes to intersect at a point")
	}
	if p.Len() > 1e-9 {
		t.Errorf("expected intersection at origin, got %+v", p)
	}
}

func TestDominantAxis(t *testing.T) {
	if DominantAxis(mgl64.Vec3{0.9, 0.1, 0.1}) != 0 {
		t.Error("expected x-dominant axis")
	}
	if DominantAxis(mgl64.Vec3{0, -0.9, 0.1}) != 1 {
		t.Error("expected y-dominant axis")
	}
	if DominantAxis(mgl64.Vec3{0.1, 0.1, -0.9}) != 2 {
		t.Error("expected z-dominant axis")
	}
}
