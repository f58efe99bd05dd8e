package imaging

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/field"
)

// ErrDegenerateScale is returned when a plane with a single value is asked to
// be stretched to a new range.
var ErrDegenerateScale = errors.New("degenerate scale: plane minimum equals maximum")

// FromIntensity builds a polar image from a raw non-negative intensity matrix
// as delivered by a detector reader: the amplitude is the square root of the
// intensity and the phase is zero. Height and Width of p are taken from the
// matrix; the snapshot is always enabled and holds the initial amplitude.
func FromIntensity(d *device.Device, intensity *mat.Dense, p Params) (*Image, error) {
	rows, cols := intensity.Dims()
	p.Height, p.Width = rows, cols
	p.Representation = models.Polar
	res := p.Residency
	p.Residency = models.Host
	p.Snapshot = true

	img, err := New(d, p)
	if err != nil {
		return nil, err
	}

	am := img.Amplitude()
	am.Apply(func(_, _ int, v float64) float64 {
		return math.Sqrt(math.Abs(v))
	}, intensity)
	img.RefreshSnapshot()
	img.ToResidency(res)
	return img, nil
}

// Copy returns a deep copy of img with the same representation, residency,
// metadata and snapshot. Series links are not copied.
func Copy(img *Image) *Image {
	c := &Image{
		dev:            img.dev,
		height:         img.height,
		width:          img.width,
		cart:           img.cart.Clone(),
		polar:          img.polar.Clone(),
		representation: img.representation,
		residency:      img.residency,
		Defocus:        img.Defocus,
		seriesIndex:    img.seriesIndex,
	}
	if img.snapshot != nil {
		c.snapshot = img.snapshot.Clone()
	}
	return c
}

// Fill sets every amplitude sample to value. The image ends up polar and
// keeps its residency.
func Fill(img *Image, value float64) {
	res := img.residency
	img.ToPolar()
	img.ToHost()
	am := img.Amplitude()
	am.Apply(func(_, _ int, _ float64) float64 { return value }, am)
	img.ToResidency(res)
}

// fromPolarField wraps a polar field as a new image with meta's metadata.
func fromPolarField(meta *Image, f *field.Field) *Image {
	return &Image{
		dev:            meta.dev,
		height:         f.Rows(),
		width:          f.Cols(),
		cart:           field.New(meta.dev, f.Rows(), f.Cols(), f.Residency()),
		polar:          f,
		representation: models.Polar,
		residency:      f.Residency(),
		Defocus:        meta.Defocus,
		seriesIndex:    meta.seriesIndex,
	}
}

// Conjugate returns the complex conjugate of img as a new polar image.
// img keeps its representation.
func Conjugate(img *Image) *Image {
	rep := img.representation
	img.ToPolar()
	out := fromPolarField(img, field.Conjugate(img.polar))
	img.ToRepresentation(rep)
	return out
}

// Multiply returns the elementwise product of a and b as a new polar image
// on a's medium. Both inputs keep their representation.
func Multiply(a, b *Image) (*Image, error) {
	repA, repB := a.representation, b.representation
	a.ToPolar()
	b.ToPolar()
	defer a.ToRepresentation(repA)
	defer b.ToRepresentation(repB)

	f, err := field.Multiply(a.polar, b.polar)
	if err != nil {
		return nil, fmt.Errorf("failed to multiply images: %w", err)
	}
	return fromPolarField(a, f), nil
}

// ScalePlane maps the value range of plane affinely onto [newMin, newMax]. The
// minimum lands exactly on newMin and the maximum exactly on newMax.
func ScalePlane(plane *mat.Dense, newMin, newMax float64) (*mat.Dense, error) {
	data := mat.DenseCopyOf(plane)
	raw := data.RawMatrix().Data
	if len(raw) == 0 {
		return data, nil
	}

	currMin, currMax := floats.Min(raw), floats.Max(raw)
	if currMin == currMax {
		return nil, fmt.Errorf("%w (%g)", ErrDegenerateScale, currMin)
	}

	span := currMax - currMin
	for i, v := range raw {
		t := (v - currMin) / span
		raw[i] = (1-t)*newMin + t*newMax
	}
	return data, nil
}
