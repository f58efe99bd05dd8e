// Package transform orchestrates the geometric kernels on whole images:
// wraparound crop and paste, scatter rotation and magnification followed by
// hole repair.
package transform

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/imaging"
	"latticeanalyzer/pkg/kernel"
)

// ErrEmptyRegion is returned for a region of interest without pixels.
var ErrEmptyRegion = errors.New("empty region of interest")

// ErrOutOfBounds is returned when an in-bounds operation gets a region that
// leaves the image.
var ErrOutOfBounds = errors.New("region outside image")

// state remembers the caller-visible state of an image so it can be restored
// after an operation migrated or converted it.
type state struct {
	rep models.Representation
	res models.Residency
}

func save(img *imaging.Image) state {
	return state{rep: img.Representation(), res: img.Residency()}
}

func (s state) restore(img *imaging.Image) {
	img.ToRepresentation(s.rep)
	img.ToResidency(s.res)
}

// CropCoords cuts the box c out of img. Parts of the box outside the image
// wrap around to the opposite edge. The region gets img's representation,
// residency, defocus and series index.
func CropCoords(img *imaging.Image, c models.Coords) (*imaging.Image, error) {
	return crop(img, c.TopLeft(), c.Height(), c.Width(), true)
}

// Crop cuts a height x width region out of img. origin is the top-left corner
// when topLeft is set and the region centre otherwise.
func Crop(img *imaging.Image, origin models.Point, height, width int, topLeft bool) (*imaging.Image, error) {
	return crop(img, origin, height, width, topLeft)
}

func crop(img *imaging.Image, origin models.Point, height, width int, topLeft bool) (*imaging.Image, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyRegion, height, width)
	}

	st := save(img)
	img.ToCartesian()
	img.ToDevice()
	defer st.restore(img)

	roi, err := imaging.New(img.Device(), imaging.Params{
		Height:         height,
		Width:          width,
		Representation: models.Cartesian,
		Residency:      models.Device,
		Defocus:        img.Defocus,
		SeriesIndex:    img.SeriesIndex(),
	})
	if err != nil {
		return nil, err
	}

	d := img.Device()
	src, dst := img.Field(models.Cartesian), roi.Field(models.Cartesian)
	if topLeft {
		kernel.CropTopLeft(d, src.A.Buffer(), dst.A.Buffer(), origin)
		kernel.CropTopLeft(d, src.B.Buffer(), dst.B.Buffer(), origin)
	} else {
		kernel.CropCentered(d, src.A.Buffer(), dst.A.Buffer(), origin)
		kernel.CropCentered(d, src.B.Buffer(), dst.B.Buffer(), origin)
	}

	st.restore(roi)
	return roi, nil
}

// Paste returns a copy of dst with roi written at topLeft. Writes past the
// edges wrap around. With spot set only the disk inscribed in the roi is
// written. dst and roi keep their state; the result has dst's state.
func Paste(dst, roi *imaging.Image, topLeft models.Point, spot bool) *imaging.Image {
	st := save(dst)
	roiState := save(roi)
	defer roiState.restore(roi)

	out := imaging.Copy(dst)
	out.ToCartesian()
	out.ToDevice()
	roi.ToCartesian()
	roi.ToDevice()

	d := out.Device()
	to, from := out.Field(models.Cartesian), roi.Field(models.Cartesian)
	if spot {
		kernel.PasteSpot(d, to.A.Buffer(), from.A.Buffer(), topLeft)
		kernel.PasteSpot(d, to.B.Buffer(), from.B.Buffer(), topLeft)
	} else {
		kernel.Paste(d, to.A.Buffer(), from.A.Buffer(), topLeft)
		kernel.Paste(d, to.B.Buffer(), from.B.Buffer(), topLeft)
	}

	st.restore(out)
	return out
}

// CropFragment copies the in-bounds box c of the amplitude plane into a new
// host-resident polar image with a refreshed snapshot. Unlike CropCoords it
// never wraps and fails for boxes leaving the image.
func CropFragment(img *imaging.Image, c models.Coords) (*imaging.Image, error) {
	if c.Width() <= 0 || c.Height() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyRegion, c.Height(), c.Width())
	}
	if c.X0 < 0 || c.Y0 < 0 || c.X1 > img.Width() || c.Y1 > img.Height() {
		return nil, fmt.Errorf("%w: %+v in %dx%d", ErrOutOfBounds, c, img.Height(), img.Width())
	}

	st := save(img)
	img.ToPolar()
	defer st.restore(img)

	am := img.PlaneCopy(models.Amplitude)
	frag, err := imaging.New(img.Device(), imaging.Params{
		Height:      c.Height(),
		Width:       c.Width(),
		Defocus:     img.Defocus,
		SeriesIndex: img.SeriesIndex(),
	})
	if err != nil {
		return nil, err
	}
	if err := frag.LoadAmplitude(mat.DenseCopyOf(am.Slice(c.Y0, c.Y1, c.X0, c.X1))); err != nil {
		return nil, err
	}
	return frag, nil
}
