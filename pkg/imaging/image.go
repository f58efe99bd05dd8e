// Package imaging provides the complex electron-wave image and its
// representation/residency state machine.
//
// An Image keeps both a Cartesian (real, imaginary) and a Polar (amplitude,
// phase) field. Only the field named by Representation is authoritative; the
// other one may be stale. All live planes sit on the medium named by
// Residency. Converting between representations is only available as a device
// kernel, so ToPolar and ToCartesian hop to the device when needed and restore
// the caller's residency before returning.
package imaging

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/field"
	"latticeanalyzer/pkg/kernel"
)

// ErrInvalidDimensions is returned when an image is requested with a
// non-positive height or width.
var ErrInvalidDimensions = errors.New("invalid image dimensions")

// Params describes a new image. The zero value of Representation is Polar and
// the zero value of Residency is Host.
type Params struct {
	Height         int
	Width          int
	Representation models.Representation
	Residency      models.Residency

	// Defocus is acquisition metadata carried along, never interpreted
	Defocus float64

	// SeriesIndex is the sequential number of the image within its series
	SeriesIndex int

	// Snapshot enables the saved-amplitude buffer
	Snapshot bool
}

// Image is a 2D complex field with metadata.
type Image struct {
	dev    *device.Device
	height int
	width  int

	cart     *field.Field
	polar    *field.Field
	snapshot *field.Plane

	representation models.Representation
	residency      models.Residency

	// Defocus is opaque acquisition metadata, propagated by derived images.
	Defocus float64

	seriesIndex int
	series      *Series
	position    int
}

// New creates a zero-filled image.
func New(d *device.Device, p Params) (*Image, error) {
	if p.Height <= 0 || p.Width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, p.Height, p.Width)
	}

	img := &Image{
		dev:            d,
		height:         p.Height,
		width:          p.Width,
		cart:           field.New(d, p.Height, p.Width, p.Residency),
		polar:          field.New(d, p.Height, p.Width, p.Residency),
		representation: p.Representation,
		residency:      p.Residency,
		Defocus:        p.Defocus,
		seriesIndex:    p.SeriesIndex,
	}
	if p.Snapshot {
		img.snapshot = field.NewPlane(d, p.Height, p.Width, p.Residency)
	}
	return img, nil
}

// Height returns the number of rows.
func (img *Image) Height() int { return img.height }

// Width returns the number of columns.
func (img *Image) Width() int { return img.width }

// Device returns the device the image allocates on.
func (img *Image) Device() *device.Device { return img.dev }

// Representation returns the authoritative representation.
func (img *Image) Representation() models.Representation { return img.representation }

// Residency returns where the planes currently live.
func (img *Image) Residency() models.Residency { return img.residency }

// Field returns the field holding the given representation. Kernels use it
// to reach the raw planes; it does not convert.
func (img *Image) Field(rep models.Representation) *field.Field {
	if rep == models.Polar {
		return img.polar
	}
	return img.cart
}

// Params returns the parameters that would recreate an empty image with the
// same shape, state and metadata.
func (img *Image) Params() Params {
	return Params{
		Height:         img.height,
		Width:          img.width,
		Representation: img.representation,
		Residency:      img.residency,
		Defocus:        img.Defocus,
		SeriesIndex:    img.seriesIndex,
		Snapshot:       img.snapshot != nil,
	}
}

// ToPolar makes amplitude/phase authoritative.
func (img *Image) ToPolar() {
	if img.representation == models.Polar {
		return
	}
	res := img.residency
	img.ToDevice()
	kernel.CartesianToPolar(img.dev,
		img.cart.A.Buffer(), img.cart.B.Buffer(),
		img.polar.A.Buffer(), img.polar.B.Buffer())
	img.representation = models.Polar
	img.ToResidency(res)
}

// ToCartesian makes real/imaginary authoritative.
func (img *Image) ToCartesian() {
	if img.representation == models.Cartesian {
		return
	}
	res := img.residency
	img.ToDevice()
	kernel.PolarToCartesian(img.dev,
		img.polar.A.Buffer(), img.polar.B.Buffer(),
		img.cart.A.Buffer(), img.cart.B.Buffer())
	img.representation = models.Cartesian
	img.ToResidency(res)
}

// ToRepresentation converts to rep.
func (img *Image) ToRepresentation(rep models.Representation) {
	if rep == models.Polar {
		img.ToPolar()
	} else {
		img.ToCartesian()
	}
}

// ToDevice copies every live plane to the device.
func (img *Image) ToDevice() {
	if img.residency == models.Device {
		return
	}
	img.cart.ToDevice()
	img.polar.ToDevice()
	if img.snapshot != nil {
		img.snapshot.ToDevice()
	}
	img.residency = models.Device
}

// ToHost copies every live plane to the host.
func (img *Image) ToHost() {
	if img.residency == models.Host {
		return
	}
	img.cart.ToHost()
	img.polar.ToHost()
	if img.snapshot != nil {
		img.snapshot.ToHost()
	}
	img.residency = models.Host
}

// ToResidency moves the image to res.
func (img *Image) ToResidency(res models.Residency) {
	if res == models.Device {
		img.ToDevice()
	} else {
		img.ToHost()
	}
}

func (img *Image) plane(v models.PlaneVariant) *field.Plane {
	switch v {
	case models.Amplitude:
		return img.polar.A
	case models.Phase:
		return img.polar.B
	case models.Real:
		return img.cart.A
	default:
		return img.cart.B
	}
}

// Plane returns the live host matrix for v. The value is fresh only if the
// image is in v's representation. It panics with device.ErrResidencyViolation
// when the image is device-resident.
func (img *Image) Plane(v models.PlaneVariant) *mat.Dense {
	return img.plane(v).Host()
}

// Amplitude returns the live host amplitude plane.
func (img *Image) Amplitude() *mat.Dense { return img.Plane(models.Amplitude) }

// Phase returns the live host phase plane.
func (img *Image) Phase() *mat.Dense { return img.Plane(models.Phase) }

// Real returns the live host real plane.
func (img *Image) Real() *mat.Dense { return img.Plane(models.Real) }

// Imag returns the live host imaginary plane.
func (img *Image) Imag() *mat.Dense { return img.Plane(models.Imaginary) }

// PlaneCopy returns a host copy of v from either medium.
func (img *Image) PlaneCopy(v models.PlaneVariant) *mat.Dense {
	return img.plane(v).Copy()
}

// SetPlane overwrites v with m. It does not change the representation flag.
func (img *Image) SetPlane(v models.PlaneVariant, m *mat.Dense) error {
	return img.plane(v).Load(m)
}

// MinMax returns the extrema of plane v.
func (img *Image) MinMax(v models.PlaneVariant) (lo, hi float64) {
	data := img.PlaneCopy(v).RawMatrix().Data
	return floats.Min(data), floats.Max(data)
}

// Release frees every plane, including device memory.
func (img *Image) Release() {
	img.cart.Release()
	img.polar.Release()
	if img.snapshot != nil {
		img.snapshot.Release()
	}
}
