// Package composite builds multi-step image operations from the imaging
// state machine and the transform kernels: padding, mosaics, seam blending,
// outlier repair and joint amplitude scaling.
package composite

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/imaging"
)

// ErrNoImages is returned by operations that need at least one input image.
var ErrNoImages = errors.New("no images")

// ErrInvalidMargin is returned for a negative padding margin or factor.
var ErrInvalidMargin = errors.New("invalid margin")

// hostAmplitude returns a host copy of img's fresh amplitude. img keeps its
// representation and residency.
func hostAmplitude(img *imaging.Image) *mat.Dense {
	rep := img.Representation()
	img.ToPolar()
	am := img.PlaneCopy(models.Amplitude)
	img.ToRepresentation(rep)
	return am
}

// Pad returns a copy of img's amplitude on a larger canvas. Every side named
// in sides gets a band margin pixels wide filled with padValue. The result is
// polar with zero phase, a refreshed snapshot and img's metadata and residency.
func Pad(img *imaging.Image, margin int, padValue float64, sides models.Sides) (*imaging.Image, error) {
	if margin < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMargin, margin)
	}

	var top, bottom, left, right int
	if sides.Top {
		top = margin
	}
	if sides.Bottom {
		bottom = margin
	}
	if sides.Left {
		left = margin
	}
	if sides.Right {
		right = margin
	}
	return padBands(img, top, bottom, left, right, padValue)
}

// PadToMultiple pads img evenly on all sides until both dimensions are
// multiples of factor. An odd remainder goes to the bottom and right bands.
func PadToMultiple(img *imaging.Image, factor int, padValue float64) (*imaging.Image, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("%w: factor %d", ErrInvalidMargin, factor)
	}

	h, w := img.Height(), img.Width()
	ph := (h + factor - 1) / factor * factor
	pw := (w + factor - 1) / factor * factor
	top, left := (ph-h)/2, (pw-w)/2
	return padBands(img, top, ph-h-top, left, pw-w-left, padValue)
}

func padBands(img *imaging.Image, top, bottom, left, right int, padValue float64) (*imaging.Image, error) {
	h, w := img.Height(), img.Width()
	ph, pw := h+top+bottom, w+left+right

	am := hostAmplitude(img)
	padded := mat.NewDense(ph, pw, nil)
	padded.Apply(func(_, _ int, _ float64) float64 { return padValue }, padded)
	padded.Slice(top, top+h, left, left+w).(*mat.Dense).Copy(am)

	out, err := imaging.New(img.Device(), imaging.Params{
		Height:      ph,
		Width:       pw,
		Defocus:     img.Defocus,
		SeriesIndex: img.SeriesIndex(),
	})
	if err != nil {
		return nil, err
	}
	if err := out.LoadAmplitude(padded); err != nil {
		return nil, err
	}
	out.ToResidency(img.Residency())
	return out, nil
}
