package models

import "testing"

func TestZeroValues(t *testing.T) {
	var rep Representation
	var res Residency
	if rep != Polar {
		t.Errorf("Expected zero representation to be polar, got %s", rep)
	}
	if res != Host {
		t.Errorf("Expected zero residency to be host, got %s", res)
	}
}

func TestPlaneVariantRepresentation(t *testing.T) {
	tests := map[PlaneVariant]Representation{
		Amplitude: Polar,
		Phase:     Polar,
		Real:      Cartesian,
		Imaginary: Cartesian,
	}
	for v, want := range tests {
		if got := v.Representation(); got != want {
			t.Errorf("%s: expected %s, got %s", v, want, got)
		}
	}
}

func TestCoords(t *testing.T) {
	c := Coords{X0: 1, Y0: 2, X1: 4, Y1: 7}
	if c.Width() != 3 || c.Height() != 5 {
		t.Errorf("Expected 3x5, got %dx%d", c.Width(), c.Height())
	}
	if c.TopLeft() != (Point{X: 1, Y: 2}) {
		t.Errorf("Unexpected top-left %+v", c.TopLeft())
	}
}

func TestParseSides(t *testing.T) {
	tests := []struct {
		in   string
		want Sides
	}{
		{"tblr", AllSides},
		{"---r", Sides{Right: true}},
		{"-b--", Sides{Bottom: true}},
		{"", Sides{}},
		{"xl", Sides{Left: true}},
	}
	for _, tt := range tests {
		if got := ParseSides(tt.in); got != tt.want {
			t.Errorf("ParseSides(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}
