package field

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
)

func polarField(d *device.Device, res models.Residency) *Field {
	f := &Field{
		A: FromDense(d, mat.NewDense(2, 2, []float64{1, 2, 3, 4})),
		B: FromDense(d, mat.NewDense(2, 2, []float64{0, 0.5, -0.5, 1})),
	}
	f.ToResidency(res)
	return f
}

func TestPlaneMigration(t *testing.T) {
	d := device.New(nil, 0)
	p := FromDense(d, mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))

	p.ToDevice()
	p.ToDevice()
	if p.Residency() != models.Device {
		t.Fatalf("Expected device residency, got %s", p.Residency())
	}
	if d.Allocated() != 6*8 {
		t.Errorf("Expected %d device bytes, got %d", 6*8, d.Allocated())
	}

	p.ToHost()
	p.ToHost()
	if d.Allocated() != 0 {
		t.Errorf("Expected device memory released, got %d bytes", d.Allocated())
	}
	if p.Host().At(1, 2) != 6 {
		t.Errorf("Expected 6 after round trip, got %g", p.Host().At(1, 2))
	}
}

func TestPlaneWrongMediumPanics(t *testing.T) {
	d := device.New(nil, 0)
	p := NewPlane(d, 2, 2, models.Device)

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, device.ErrResidencyViolation) {
			t.Errorf("Expected residency violation, got %v", err)
		}
	}()
	p.Host()
}

func TestPlaneLoadShapeMismatch(t *testing.T) {
	d := device.New(nil, 0)
	p := NewPlane(d, 2, 2, models.Host)
	if err := p.Load(mat.NewDense(3, 2, nil)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}

	p.ToDevice()
	if err := p.Load(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := p.Copy().At(1, 1); got != 4 {
		t.Errorf("Expected 4, got %g", got)
	}
}

func TestConjugateOnBothMedia(t *testing.T) {
	d := device.New(nil, 0)
	for _, res := range []models.Residency{models.Host, models.Device} {
		f := polarField(d, res)
		c := Conjugate(f)
		if c.Residency() != res {
			t.Errorf("%s: conjugate moved to %s", res, c.Residency())
		}
		am, ph := c.A.Copy(), c.B.Copy()
		if am.At(1, 1) != 4 || ph.At(0, 1) != -0.5 || ph.At(1, 0) != 0.5 {
			t.Errorf("%s: unexpected conjugate %v / %v", res, mat.Formatted(am), mat.Formatted(ph))
		}
		if f.B.Copy().At(0, 1) != 0.5 {
			t.Errorf("%s: conjugate modified its input", res)
		}
	}
}

func TestMultiplyMixedResidency(t *testing.T) {
	d := device.New(nil, 0)
	a := polarField(d, models.Host)
	b := polarField(d, models.Device)

	out, err := Multiply(a, b)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Residency() != models.Host {
		t.Errorf("Expected host result, got %s", out.Residency())
	}
	if b.Residency() != models.Device {
		t.Error("Multiply must not migrate its operand")
	}
	if out.A.Host().At(1, 0) != 9 || math.Abs(out.B.Host().At(1, 1)-2) > 1e-15 {
		t.Errorf("Unexpected product %v / %v", mat.Formatted(out.A.Host()), mat.Formatted(out.B.Host()))
	}

	dev, err := Multiply(b, a)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !mat.Equal(dev.A.Copy(), out.A.Host()) || !mat.Equal(dev.B.Copy(), out.B.Host()) {
		t.Error("Device and host products differ")
	}
}

func TestMultiplyShapeMismatch(t *testing.T) {
	d := device.New(nil, 0)
	a := New(d, 2, 2, models.Host)
	b := New(d, 2, 3, models.Host)
	if _, err := Multiply(a, b); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch, got %v", err)
	}
}

func TestReleaseFreesDeviceMemory(t *testing.T) {
	d := device.New(nil, 0)
	f := New(d, 8, 8, models.Device)
	c := f.Clone()
	f.Release()
	c.Release()
	if d.Allocated() != 0 {
		t.Errorf("Expected no device memory after release, got %d bytes", d.Allocated())
	}
}
