package composite

import (
	"errors"
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/imaging"
)

// ErrInvalidThresholds is returned when the outlier band is empty or not
// positive.
var ErrInvalidThresholds = errors.New("invalid outlier thresholds")

// RemoveOutliers replaces amplitude samples outside
// [minThreshold*mean, maxThreshold*mean] with the sum of their 8 neighbours
// divided by 8. Neighbours are read from the unmodified plane; neighbours
// past the border count as zero. It returns the number of repaired samples.
// img keeps its representation and residency.
func RemoveOutliers(img *imaging.Image, minThreshold, maxThreshold float64) (int, error) {
	if minThreshold < 0 || maxThreshold < minThreshold {
		return 0, fmt.Errorf("%w: [%g, %g]", ErrInvalidThresholds, minThreshold, maxThreshold)
	}

	rep, res := img.Representation(), img.Residency()
	img.ToPolar()
	img.ToHost()
	defer func() {
		img.ToRepresentation(rep)
		img.ToResidency(res)
	}()

	am := img.Amplitude()
	rows, cols := am.Dims()
	orig := img.PlaneCopy(models.Amplitude).RawMatrix()
	src := orig.Data
	dst := am.RawMatrix()

	mean := stat.Mean(src, nil)
	lo, hi := minThreshold*mean, maxThreshold*mean

	var bad atomic.Int64
	img.Device().Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		v := src[y*orig.Stride+x]
		if v >= lo && v <= hi {
			return
		}
		bad.Add(1)

		sum := 0.0
		for yy := max(y-1, 0); yy <= min(y+1, rows-1); yy++ {
			for xx := max(x-1, 0); xx <= min(x+1, cols-1); xx++ {
				if xx == x && yy == y {
					continue
				}
				sum += src[yy*orig.Stride+xx]
			}
		}
		dst.Data[y*dst.Stride+x] = sum / 8
	})

	n := int(bad.Load())
	logging.Logger().Info("composite: outliers repaired", "count", n, "mean", mean)
	return n, nil
}
