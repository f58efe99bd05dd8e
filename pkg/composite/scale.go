package composite

import (
	"errors"
	"math"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/imaging"
)

// ScaleAmplitudes stretches the amplitude of every image to the joint range
// of all of them, so that the series shares one contrast scale. Each image
// keeps its residency and ends up polar. Images with a constant amplitude are
// left unchanged.
func ScaleAmplitudes(images []*imaging.Image) error {
	if len(images) == 0 {
		return ErrNoImages
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, img := range images {
		img.ToPolar()
		mn, mx := img.MinMax(models.Amplitude)
		lo, hi = min(lo, mn), max(hi, mx)
	}

	for _, img := range images {
		scaled, err := imaging.ScalePlane(img.PlaneCopy(models.Amplitude), lo, hi)
		if errors.Is(err, imaging.ErrDegenerateScale) {
			logging.Logger().Warn("composite: constant amplitude left unscaled",
				"series_index", img.SeriesIndex())
			continue
		}
		if err != nil {
			return err
		}
		if err := img.SetPlane(models.Amplitude, scaled); err != nil {
			return err
		}
	}
	return nil
}
