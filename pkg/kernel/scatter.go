package kernel

import (
	"math"

	"latticeanalyzer/pkg/device"
)

// Rotate scatters every src pixel to its rotated position in dst. The polar
// offset (r, phi) of a pixel from the src centre becomes (r, phi - radians)
// around the dst centre and is rounded to the nearest cell. Centres sit on
// the middle pixel centre, (n-1)/2 along each axis. Written cells are
// marked in mask; cells nobody writes are holes for a later repair pass.
func Rotate(d *device.Device, src, dst *device.Buffer, mask *device.Mask, radians float64) {
	s := src.Data()
	live(dst)
	rows, cols := src.Rows(), src.Cols()
	dstRows, dstCols := dst.Rows(), dst.Cols()
	cx, cy := float64(cols-1)/2, float64(rows-1)/2
	dcx, dcy := float64(dstCols-1)/2, float64(dstRows-1)/2

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		dx, dy := float64(x)-cx, float64(y)-cy
		r := math.Hypot(dx, dy)
		sin, cos := math.Sincos(math.Atan2(dy, dx) - radians)

		x1 := int(math.Round(r*cos + dcx))
		y1 := int(math.Round(r*sin + dcy))
		if x1 < 0 || x1 >= dstCols || y1 < 0 || y1 >= dstRows {
			return
		}

		i := y1*dstCols + x1
		dst.StoreAtomic(i, s[y*cols+x])
		mask.Set(i)
	})
}

// Magnify scatters every src pixel (x, y) to (round(factor*x), round(factor*y))
// in dst and marks the written cells in mask.
func Magnify(d *device.Device, src, dst *device.Buffer, mask *device.Mask, factor float64) {
	s := src.Data()
	live(dst)
	rows, cols := src.Rows(), src.Cols()
	dstRows, dstCols := dst.Rows(), dst.Cols()

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		x1 := int(math.Round(factor * float64(x)))
		y1 := int(math.Round(factor * float64(y)))
		if x1 >= dstCols || y1 >= dstRows {
			return
		}

		i := y1*dstCols + x1
		dst.StoreAtomic(i, s[y*cols+x])
		mask.Set(i)
	})
}
