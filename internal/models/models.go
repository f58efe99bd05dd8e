package models

import "fmt"

// Representation names which pair of planes holds the authoritative
// complex value of an image.
type Representation int

const (
	// Polar stores amplitude and phase
	Polar Representation = iota

	// Cartesian stores real and imaginary components
	Cartesian
)

func (r Representation) String() string {
	switch r {
	case Polar:
		return "polar"
	case Cartesian:
		return "cartesian"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

// Residency tells on which medium the live planes of an image are stored.
type Residency int

const (
	// Host memory, directly addressable by gonum matrices
	Host Residency = iota

	// Device memory, only reachable by kernels
	Device
)

func (r Residency) String() string {
	switch r {
	case Host:
		return "host"
	case Device:
		return "device"
	default:
		return fmt.Sprintf("residency(%d)", int(r))
	}
}

// PlaneVariant selects one of the four planes an image can expose.
type PlaneVariant int

const (
	Amplitude PlaneVariant = iota
	Phase
	Real
	Imaginary
)

func (v PlaneVariant) String() string {
	switch v {
	case Amplitude:
		return "amplitude"
	case Phase:
		return "phase"
	case Real:
		return "real"
	case Imaginary:
		return "imaginary"
	default:
		return fmt.Sprintf("plane(%d)", int(v))
	}
}

// Representation returns the representation in which the plane is authoritative.
func (v PlaneVariant) Representation() Representation {
	if v == Amplitude || v == Phase {
		return Polar
	}
	return Cartesian
}

// Point is an integer pixel position. X addresses columns, Y addresses rows.
type Point struct {
	X int
	Y int
}

// Coords is an axis-aligned pixel box. (X0, Y0) is the top-left corner and
// (X1, Y1) the exclusive bottom-right corner.
type Coords struct {
	X0, Y0 int
	X1, Y1 int
}

// Width returns the number of columns covered by the box.
func (c Coords) Width() int { return c.X1 - c.X0 }

// Height returns the number of rows covered by the box.
func (c Coords) Height() int { return c.Y1 - c.Y0 }

// TopLeft returns the top-left corner of the box.
func (c Coords) TopLeft() Point { return Point{X: c.X0, Y: c.Y0} }

// Sides selects the edges of an image that take part in padding.
type Sides struct {
	Top    bool
	Bottom bool
	Left   bool
	Right  bool
}

// AllSides enables every edge.
var AllSides = Sides{Top: true, Bottom: true, Left: true, Right: true}

// ParseSides reads a direction string such as "t-b-" or "---r": each of the
// letters t, b, l, r enables the matching edge and any other rune is ignored.
func ParseSides(dirs string) Sides {
	var s Sides
	for _, d := range dirs {
		switch d {
		case 't':
			s.Top = true
		case 'b':
			s.Bottom = true
		case 'l':
			s.Left = true
		case 'r':
			s.Right = true
		}
	}
	return s
}
