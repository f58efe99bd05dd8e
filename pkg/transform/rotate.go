package transform

import (
	"errors"
	"fmt"
	"math"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/geometry"
	"latticeanalyzer/pkg/imaging"
	"latticeanalyzer/pkg/interpolation"
	"latticeanalyzer/pkg/kernel"
)

// ErrInvalidFactor is returned for a magnification that is not positive or
// that shrinks the image to nothing.
var ErrInvalidFactor = errors.New("invalid magnification factor")

// eps absorbs rounding noise before ceil/floor of canvas sizes, so a width
// that is mathematically integral does not grow or shrink by one.
const eps = 1e-9

// floorMod is the modulo with the sign of the divisor.
func floorMod(a, n float64) float64 {
	return a - n*math.Floor(a/n)
}

// RotatedWidth returns the side of the smallest square canvas holding a
// height x width image rotated by degrees.
func RotatedWidth(height, width int, degrees float64) int {
	const quarterPi = math.Pi / 4

	rad := geometry.Radians(degrees)
	rMax := math.Hypot(float64(width)/2, float64(height)/2)

	var angle float64
	if int(math.Floor(rad/quarterPi)+1)%2 != 0 {
		angle = quarterPi - floorMod(rad, quarterPi)
	} else {
		angle = floorMod(rad, quarterPi)
	}
	return int(math.Ceil(2*rMax*math.Cos(angle) - eps))
}

// Rotate returns img's amplitude rotated by degrees on a square canvas of
// RotatedWidth. Cells the scatter pass misses are interpolated from their
// neighbours. The result is polar with zero phase, a snapshot of the repaired
// amplitude, img's metadata and img's residency. img keeps its state.
func Rotate(img *imaging.Image, degrees float64) (*imaging.Image, error) {
	side := RotatedWidth(img.Height(), img.Width(), degrees)
	return scatter(img, side, side, func(d *device.Device, src, dst *device.Buffer, mask *device.Mask) {
		kernel.Rotate(d, src, dst, mask, geometry.Radians(degrees))
	}, true)
}

// CropCoordsAfterRotation returns the centred square box of a rotDim canvas
// that holds only pixels of an imgDim square image rotated by degrees.
func CropCoordsAfterRotation(imgDim, rotDim int, degrees float64) models.Coords {
	rad := geometry.Radians(floorMod(degrees, 90))
	newDim := int(math.Floor(float64(imgDim)/math.Sqrt2/math.Cos(rad-math.Pi/4) + eps))
	orig := int(float64(rotDim)/2 - float64(newDim)/2)
	return models.Coords{X0: orig, Y0: orig, X1: orig + newDim, Y1: orig + newDim}
}

// RotateAndCrop rotates img and cuts the rotated canvas down to the largest
// centred square free of empty corners.
func RotateAndCrop(img *imaging.Image, degrees float64) (*imaging.Image, error) {
	rot, err := Rotate(img, degrees)
	if err != nil {
		return nil, err
	}
	defer rot.Release()

	out, err := CropCoords(rot, CropCoordsAfterRotation(img.Width(), rot.Width(), degrees))
	if err != nil {
		return nil, err
	}
	out.RefreshSnapshot()
	return out, nil
}

// Magnify returns img's amplitude scaled by factor on a canvas of
// round(factor*height) x round(factor*width). Like Rotate, holes are
// interpolated. The result has no snapshot.
func Magnify(img *imaging.Image, factor float64) (*imaging.Image, error) {
	if !(factor > 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidFactor, factor)
	}
	height := int(math.Round(factor * float64(img.Height())))
	width := int(math.Round(factor * float64(img.Width())))
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %g gives a %dx%d canvas", ErrInvalidFactor, factor, height, width)
	}
	return scatter(img, height, width, func(d *device.Device, src, dst *device.Buffer, mask *device.Mask) {
		kernel.Magnify(d, src, dst, mask, factor)
	}, false)
}

type scatterFunc func(d *device.Device, src, dst *device.Buffer, mask *device.Mask)

// scatter runs a scatter kernel over img's amplitude into a fresh
// height x width canvas followed by the hole repair pass.
func scatter(img *imaging.Image, height, width int, fn scatterFunc, snapshot bool) (*imaging.Image, error) {
	st := save(img)
	img.ToPolar()
	img.ToDevice()
	defer st.restore(img)

	out, err := imaging.New(img.Device(), imaging.Params{
		Height:      height,
		Width:       width,
		Residency:   models.Device,
		Defocus:     img.Defocus,
		SeriesIndex: img.SeriesIndex(),
	})
	if err != nil {
		return nil, err
	}

	d := img.Device()
	dst := out.Field(models.Polar).A.Buffer()
	mask := d.AllocMask(height, width)
	defer d.FreeMask(mask)

	fn(d, img.Field(models.Polar).A.Buffer(), dst, mask)
	stats := interpolation.FillHoles(d, dst, mask)
	logging.Logger().Debug("transform: scatter done",
		"height", height, "width", width, "holes", stats.Holes, "unresolved", stats.Unresolved)

	if snapshot {
		out.RefreshSnapshot()
	}
	out.ToResidency(st.res)
	return out, nil
}
