package geometry

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestLineFromPoints(t *testing.T) {
	l, err := LineFromPoints(Point2D{X: 0, Y: 1}, Point2D{X: 2, Y: 5})
	if err != nil {
		t.Fatal(err)
	}
	if l.A != 2 || l.B != 1 {
		t.Errorf("Expected y = 2x + 1, got y = %gx + %g", l.A, l.B)
	}

	if _, err := LineFromPoints(Point2D{X: 3, Y: 0}, Point2D{X: 3, Y: 1}); !errors.Is(err, ErrSingularGeometry) {
		t.Errorf("Expected ErrSingularGeometry for a vertical line, got %v", err)
	}
}

func TestPerpendicularAndParallel(t *testing.T) {
	l := Line{A: 2, B: 1}
	p := Point2D{X: 1, Y: 1}

	perp, err := Perpendicular(l, p)
	if err != nil {
		t.Fatal(err)
	}
	if !near(perp.A, -0.5) || !near(perp.At(1), 1) {
		t.Errorf("Unexpected perpendicular %+v", perp)
	}

	par := Parallel(l, p)
	if par.A != 2 || !near(par.At(1), 1) {
		t.Errorf("Unexpected parallel %+v", par)
	}

	if _, err := Perpendicular(Line{A: 0, B: 3}, p); !errors.Is(err, ErrSingularGeometry) {
		t.Errorf("Expected ErrSingularGeometry, got %v", err)
	}
}

func TestCommonPoint(t *testing.T) {
	p, err := CommonPoint(Line{A: 1, B: 0}, Line{A: -1, B: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.X, 2) || !near(p.Y, 2) {
		t.Errorf("Expected (2, 2), got (%g, %g)", p.X, p.Y)
	}

	if _, err := CommonPoint(Line{A: 1, B: 0}, Line{A: 1, B: 4}); !errors.Is(err, ErrSingularGeometry) {
		t.Errorf("Expected ErrSingularGeometry for parallel lines, got %v", err)
	}
}

func TestFindRotationCenter(t *testing.T) {
	center := Point2D{X: 3, Y: -2}
	a1 := Point2D{X: 7, Y: 1}
	b1 := Point2D{X: -1, Y: 4}

	rotate := func(p Point2D) Point2D {
		r := RotatePoint(Point2D{X: p.X - center.X, Y: p.Y - center.Y}, 25)
		return Point2D{X: r.X + center.X, Y: r.Y + center.Y}
	}

	got, err := FindRotationCenter(a1, b1, rotate(a1), rotate(b1))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.X-center.X) > 1e-6 || math.Abs(got.Y-center.Y) > 1e-6 {
		t.Errorf("Expected centre (%g, %g), got (%g, %g)", center.X, center.Y, got.X, got.Y)
	}
}

func TestFindRotationCenterSingular(t *testing.T) {
	// A pure translation has parallel bisectors
	a1, b1 := Point2D{X: 0, Y: 0}, Point2D{X: 5, Y: 1}
	a2, b2 := Point2D{X: 1, Y: 1}, Point2D{X: 6, Y: 2}
	if _, err := FindRotationCenter(a1, b1, a2, b2); !errors.Is(err, ErrSingularGeometry) {
		t.Errorf("Expected ErrSingularGeometry, got %v", err)
	}
}

func TestRotatePoint(t *testing.T) {
	p := RotatePoint(Point2D{X: 1, Y: 0}, 90)
	if !near(p.X, 0) || !near(p.Y, 1) {
		t.Errorf("Expected (0, 1), got (%g, %g)", p.X, p.Y)
	}
}

func TestRadiansDegrees(t *testing.T) {
	if !near(Radians(180), math.Pi) {
		t.Errorf("Expected pi, got %g", Radians(180))
	}
	if !near(Degrees(Radians(37.5)), 37.5) {
		t.Errorf("Expected 37.5, got %g", Degrees(Radians(37.5)))
	}
}

func TestNextMaxima(t *testing.T) {
	values := []float64{0, 1, 9, 8, 0, 0, 2, 7, 3, 0}
	got := NextMaxima(values, 2, 4)
	if len(got) != 2 || got[0] != 2 || got[1] != 7 {
		t.Errorf("Expected peaks [2 7], got %v", got)
	}
	if values[2] != 9 {
		t.Error("NextMaxima modified its input")
	}
	if NextMaxima(nil, 3, 4) != nil {
		t.Error("Expected no peaks for an empty profile")
	}
}
