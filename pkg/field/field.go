// Package field implements the complex field: a pair of equal-shaped float
// planes holding either (amplitude, phase) or (real, imaginary) samples.
package field

import (
	"errors"
	"fmt"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/kernel"
)

// ErrShapeMismatch is returned when an elementwise operation receives planes
// of different dimensions.
var ErrShapeMismatch = errors.New("shape mismatch")

// Field is a pair of same-shaped planes on one medium. For a polar field A is
// the amplitude and B the phase; for a Cartesian field A is the real and B the
// imaginary part.
type Field struct {
	A *Plane
	B *Plane
}

// New allocates a zero-filled field.
func New(d *device.Device, rows, cols int, res models.Residency) *Field {
	return &Field{
		A: NewPlane(d, rows, cols, res),
		B: NewPlane(d, rows, cols, res),
	}
}

// Rows returns the field height.
func (f *Field) Rows() int { return f.A.Rows() }

// Cols returns the field width.
func (f *Field) Cols() int { return f.A.Cols() }

// Residency reports where both planes live.
func (f *Field) Residency() models.Residency { return f.A.Residency() }

// ToDevice moves both planes to the device.
func (f *Field) ToDevice() {
	f.A.ToDevice()
	f.B.ToDevice()
}

// ToHost moves both planes to the host.
func (f *Field) ToHost() {
	f.A.ToHost()
	f.B.ToHost()
}

// ToResidency moves both planes to res.
func (f *Field) ToResidency(res models.Residency) {
	f.A.ToResidency(res)
	f.B.ToResidency(res)
}

// Clone deep-copies the field, keeping its residency.
func (f *Field) Clone() *Field {
	return &Field{A: f.A.Clone(), B: f.B.Clone()}
}

// Release frees both planes.
func (f *Field) Release() {
	f.A.Release()
	f.B.Release()
}

func sameShape(a, b *Field) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}

// Conjugate returns the complex conjugate of a polar field: same amplitude,
// negated phase. The result lives where f lives; device fields go through the
// conjugate kernel, host fields through gonum.
func Conjugate(f *Field) *Field {
	d := f.A.dev
	if f.Residency() == models.Device {
		out := New(d, f.Rows(), f.Cols(), models.Device)
		kernel.Conjugate(d, f.A.Buffer(), f.B.Buffer(), out.A.Buffer(), out.B.Buffer())
		return out
	}

	out := &Field{A: f.A.Clone()}
	ph := f.B.Copy()
	ph.Scale(-1, ph)
	out.B = FromDense(d, ph)
	return out
}

// Multiply multiplies two polar fields elementwise: amplitudes multiply and
// phases add. The result lives where a lives; if b lives elsewhere a
// temporary copy of it is migrated first.
func Multiply(a, b *Field) (*Field, error) {
	if !sameShape(a, b) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}

	res := a.Residency()
	if b.Residency() != res {
		b = b.Clone()
		defer b.Release()
		b.ToResidency(res)
	}

	d := a.A.dev
	if res == models.Device {
		out := New(d, a.Rows(), a.Cols(), models.Device)
		kernel.Multiply(d, a.A.Buffer(), a.B.Buffer(), b.A.Buffer(), b.B.Buffer(), out.A.Buffer(), out.B.Buffer())
		return out, nil
	}

	am := a.A.Copy()
	am.MulElem(am, b.A.Host())
	ph := a.B.Copy()
	ph.Add(ph, b.B.Host())
	return &Field{A: FromDense(d, am), B: FromDense(d, ph)}, nil
}
