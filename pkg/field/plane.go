package field

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
)

// Plane is a single float plane stored on exactly one medium: a gonum matrix
// on the host or a buffer on the device.
type Plane struct {
	dev  *device.Device
	rows int
	cols int
	host *mat.Dense
	buf  *device.Buffer
}

// NewPlane allocates a zero-filled plane on the requested medium.
func NewPlane(d *device.Device, rows, cols int, res models.Residency) *Plane {
	p := &Plane{dev: d, rows: rows, cols: cols}
	if res == models.Device {
		p.buf = d.Alloc(rows, cols)
	} else {
		p.host = mat.NewDense(rows, cols, nil)
	}
	return p
}

// FromDense wraps a host matrix as a plane. The plane takes ownership of m.
func FromDense(d *device.Device, m *mat.Dense) *Plane {
	rows, cols := m.Dims()
	return &Plane{dev: d, rows: rows, cols: cols, host: m}
}

// Rows returns the plane height.
func (p *Plane) Rows() int { return p.rows }

// Cols returns the plane width.
func (p *Plane) Cols() int { return p.cols }

// Residency reports where the plane currently lives.
func (p *Plane) Residency() models.Residency {
	if p.buf != nil {
		return models.Device
	}
	return models.Host
}

// Host returns the live host matrix. Writes through it modify the plane.
// It panics with device.ErrResidencyViolation if the plane is on the device.
func (p *Plane) Host() *mat.Dense {
	if p.host == nil {
		panic(fmt.Errorf("%w: host access to a %s plane", device.ErrResidencyViolation, p.Residency()))
	}
	return p.host
}

// Buffer returns the live device buffer. It panics with
// device.ErrResidencyViolation if the plane is on the host.
func (p *Plane) Buffer() *device.Buffer {
	if p.buf == nil {
		panic(fmt.Errorf("%w: device access to a host plane", device.ErrResidencyViolation))
	}
	return p.buf
}

// ToDevice moves the plane to device memory. No-op if it is already there.
func (p *Plane) ToDevice() {
	if p.buf != nil {
		return
	}
	p.buf = p.dev.Upload(p.Host())
	p.host = nil
}

// ToHost moves the plane to host memory. No-op if it is already there.
func (p *Plane) ToHost() {
	if p.host != nil {
		return
	}
	p.host = p.dev.Download(p.Buffer())
	p.dev.Free(p.buf)
	p.buf = nil
}

// ToResidency moves the plane to the given medium.
func (p *Plane) ToResidency(res models.Residency) {
	if res == models.Device {
		p.ToDevice()
	} else {
		p.ToHost()
	}
}

// Copy returns a host copy of the plane regardless of its residency.
func (p *Plane) Copy() *mat.Dense {
	if p.buf != nil {
		return p.dev.Download(p.buf)
	}
	return mat.DenseCopyOf(p.Host())
}

// Clone returns an independent plane with the same contents and residency.
func (p *Plane) Clone() *Plane {
	c := FromDense(p.dev, p.Copy())
	c.ToResidency(p.Residency())
	return c
}

// Load replaces the plane contents with m, keeping the residency.
func (p *Plane) Load(m *mat.Dense) error {
	rows, cols := m.Dims()
	if rows != p.rows || cols != p.cols {
		return fmt.Errorf("%w: cannot load %dx%d into %dx%d plane", ErrShapeMismatch, rows, cols, p.rows, p.cols)
	}
	if p.buf != nil {
		src := p.dev.Upload(m)
		copy(p.buf.Data(), src.Data())
		p.dev.Free(src)
		return nil
	}
	p.host.Copy(m)
	return nil
}

// Release frees the device buffer, if any, and drops the host matrix.
func (p *Plane) Release() {
	p.dev.Free(p.buf)
	p.buf = nil
	p.host = nil
}
