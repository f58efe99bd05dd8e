package composite

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/field"
	"latticeanalyzer/pkg/imaging"
)

// DefaultMarginFraction is the seam band width, as a fraction of the image
// size along the joining axis, used when no fraction is configured.
const DefaultMarginFraction = 0.1

// ramp fills band with a linear transition from l towards r over len(band)
// samples. Equal ends give a constant band.
func ramp(band []float64, l, r float64) {
	if l == r {
		for k := range band {
			band[k] = l
		}
		return
	}
	step := (r - l) / float64(len(band))
	for k := range band {
		band[k] = l + float64(k)*step
	}
}

// LinkSmoothlyH joins left and right side by side with a blended seam. Both
// images are padded on their facing edges by int(fraction*width) pixels and
// the padding band is replaced row by row with a ramp between the last
// column of left and the first column of right.
func LinkSmoothlyH(left, right *imaging.Image, fraction float64) (*imaging.Image, error) {
	if left.Height() != right.Height() || left.Width() != right.Width() {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", field.ErrShapeMismatch,
			left.Height(), left.Width(), right.Height(), right.Width())
	}
	b := int(fraction * float64(left.Width()))
	return link(left, right, b, models.Sides{Right: true}, models.Sides{Left: true}, JoinH,
		func(am, l, r *mat.Dense) {
			rows, cols := am.Dims()
			mid := cols / 2
			band := make([]float64, 2*b)
			for y := 0; y < rows; y++ {
				ramp(band, l.At(y, left.Width()-1), r.At(y, 0))
				for k, v := range band {
					am.Set(y, mid-b+k, v)
				}
			}
		})
}

// LinkSmoothlyV stacks top above bottom with a blended seam, column by
// column, like LinkSmoothlyH.
func LinkSmoothlyV(top, bottom *imaging.Image, fraction float64) (*imaging.Image, error) {
	if top.Height() != bottom.Height() || top.Width() != bottom.Width() {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", field.ErrShapeMismatch,
			top.Height(), top.Width(), bottom.Height(), bottom.Width())
	}
	b := int(fraction * float64(top.Height()))
	return link(top, bottom, b, models.Sides{Bottom: true}, models.Sides{Top: true}, JoinV,
		func(am, t, u *mat.Dense) {
			rows, cols := am.Dims()
			mid := rows / 2
			band := make([]float64, 2*b)
			for x := 0; x < cols; x++ {
				ramp(band, t.At(top.Height()-1, x), u.At(0, x))
				for k, v := range band {
					am.Set(mid-b+k, x, v)
				}
			}
		})
}

func link(a, b *imaging.Image, margin int, sidesA, sidesB models.Sides,
	joinFn func([]*imaging.Image) (*imaging.Image, error),
	blend func(am, amA, amB *mat.Dense)) (*imaging.Image, error) {
	if margin < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMargin, margin)
	}

	pa, err := Pad(a, margin, 0, sidesA)
	if err != nil {
		return nil, err
	}
	defer pa.Release()
	pb, err := Pad(b, margin, 0, sidesB)
	if err != nil {
		return nil, err
	}
	defer pb.Release()

	linked, err := joinFn([]*imaging.Image{pa, pb})
	if err != nil {
		return nil, err
	}
	if margin == 0 {
		return linked, nil
	}

	res := linked.Residency()
	linked.ToHost()
	blend(linked.Amplitude(), hostAmplitude(a), hostAmplitude(b))
	linked.ToResidency(res)
	return linked, nil
}
