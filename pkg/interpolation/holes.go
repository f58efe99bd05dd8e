// Package interpolation repairs the output of scatter kernels.
//
// A scatter pass (rotation, magnification) leaves holes: destination cells
// that no source pixel landed on. FillHoles estimates each hole from the
// cells around it that did receive a value.
package interpolation

import (
	"sync/atomic"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/pkg/device"
)

// Stats summarises one repair pass.
type Stats struct {
	// Holes is the number of cells the scatter pass did not fill
	Holes int

	// Unresolved counts holes without a single filled neighbour. Those cells
	// keep the value they had before the scatter pass.
	Unresolved int
}

// FillHoles replaces every cell of plane not marked in mask with the mean of
// its filled 8-neighbours. The neighbourhood is clamped at the canvas border,
// never wrapped.
//
// The pass must run after the scatter pass has completed. It only reads
// filled cells and only writes unfilled ones, and the mask is not updated,
// so repaired holes never feed into their neighbours.
func FillHoles(d *device.Device, plane *device.Buffer, mask *device.Mask) Stats {
	data := plane.Data()
	rows, cols := plane.Rows(), plane.Cols()

	var holes, unresolved atomic.Int64
	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		if mask.IsSet(y*cols + x) {
			return
		}
		holes.Add(1)

		x1, x2 := max(x-1, 0), min(x+1, cols-1)
		y1, y2 := max(y-1, 0), min(y+1, rows-1)

		sum := 0.0
		n := 0
		for yy := y1; yy <= y2; yy++ {
			for xx := x1; xx <= x2; xx++ {
				i := yy*cols + xx
				if mask.IsSet(i) {
					sum += data[i]
					n++
				}
			}
		}

		if n == 0 {
			unresolved.Add(1)
			return
		}
		data[y*cols+x] = sum / float64(n)
	})

	stats := Stats{Holes: int(holes.Load()), Unresolved: int(unresolved.Load())}
	if stats.Unresolved > 0 {
		logging.Logger().Debug("interpolation: holes without filled neighbours",
			"holes", stats.Holes, "unresolved", stats.Unresolved)
	}
	return stats
}
