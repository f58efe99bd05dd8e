// Package geometry provides the planar helpers used to estimate rotations
// between images: lines in slope-intercept form, their perpendiculars and
// intersections, and the rotation centre of two point pairs.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrSingularGeometry is returned when a construction has no finite answer,
// e.g. a line through two points on a vertical or the intersection of two
// parallel lines.
var ErrSingularGeometry = errors.New("singular geometry")

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the point halfway between p and other.
func (p Point2D) Midpoint(other Point2D) Point2D {
	return Point2D{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// Line is y = A*x + B.
type Line struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// LineFromPoints returns the line through p1 and p2.
func LineFromPoints(p1, p2 Point2D) (Line, error) {
	dx := p2.X - p1.X
	if dx == 0 {
		return Line{}, fmt.Errorf("%w: vertical line through x=%g", ErrSingularGeometry, p1.X)
	}
	a := (p2.Y - p1.Y) / dx
	return Line{A: a, B: p1.Y - a*p1.X}, nil
}

// LineFromSlope returns the line with slope a passing through p.
func LineFromSlope(a float64, p Point2D) Line {
	return Line{A: a, B: p.Y - a*p.X}
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.A*x + l.B
}

// Perpendicular returns the line perpendicular to l through p.
func Perpendicular(l Line, p Point2D) (Line, error) {
	if l.A == 0 {
		return Line{}, fmt.Errorf("%w: perpendicular to a horizontal line", ErrSingularGeometry)
	}
	return LineFromSlope(-1/l.A, p), nil
}

// Parallel returns the line parallel to l through p.
func Parallel(l Line, p Point2D) Line {
	return LineFromSlope(l.A, p)
}

// CommonPoint returns the intersection of l1 and l2.
func CommonPoint(l1, l2 Line) (Point2D, error) {
	da := l1.A - l2.A
	if da == 0 {
		return Point2D{}, fmt.Errorf("%w: parallel lines", ErrSingularGeometry)
	}
	x := (l2.B - l1.B) / da
	return Point2D{X: x, Y: l1.At(x)}, nil
}

// FindRotationCenter estimates the centre of the rotation that moves a1 to a2
// and b1 to b2. It is the intersection of the perpendicular bisectors of the
// segments a1a2 and b1b2.
func FindRotationCenter(a1, b1, a2, b2 Point2D) (Point2D, error) {
	aLine, err := LineFromPoints(a1, a2)
	if err != nil {
		return Point2D{}, err
	}
	bLine, err := LineFromPoints(b1, b2)
	if err != nil {
		return Point2D{}, err
	}

	aPerp, err := Perpendicular(aLine, a1.Midpoint(a2))
	if err != nil {
		return Point2D{}, err
	}
	bPerp, err := Perpendicular(bLine, b1.Midpoint(b2))
	if err != nil {
		return Point2D{}, err
	}
	return CommonPoint(aPerp, bPerp)
}

// RotatePoint rotates p about the origin by degrees, counter-clockwise in a
// y-up frame.
func RotatePoint(p Point2D, degrees float64) Point2D {
	r := math.Hypot(p.X, p.Y)
	sin, cos := math.Sincos(math.Atan2(p.Y, p.X) + Radians(degrees))
	return Point2D{X: r * cos, Y: r * sin}
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

// NextMaxima returns the indices of the n largest peaks of values. After each
// pick the window [idx-maskRange/2, idx+maskRange/2) around it is zeroed so
// the next pick lands on a different peak. values is not modified.
func NextMaxima(values []float64, n, maskRange int) []int {
	if len(values) == 0 || n <= 0 {
		return nil
	}

	work := make([]float64, len(values))
	copy(work, values)
	half := maskRange / 2

	idxs := make([]int, 0, n)
	for range n {
		idx := floats.MaxIdx(work)
		idxs = append(idxs, idx)
		lo, hi := max(idx-half, 0), min(idx+half, len(work))
		for i := lo; i < hi; i++ {
			work[i] = 0
		}
		if half == 0 {
			work[idx] = 0
		}
	}
	return idxs
}
