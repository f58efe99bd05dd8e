package kernel

import (
	"math"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
)

// mod returns the non-negative remainder of a divided by n.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// wrapIndex maps a pixel position, possibly outside the canvas, to its
// flattened row-major index on a rows x cols canvas treated as a torus: each
// axis is recentred into range first, so stepping one full width to the
// right lands on the same pixel.
func wrapIndex(x, y, rows, cols int) int {
	return mod(y, rows)*cols + mod(x, cols)
}

// CropTopLeft fills dst with the region of src whose top-left corner is origin.
// Positions outside src wrap to the opposite edge.
func CropTopLeft(d *device.Device, src, dst *device.Buffer, origin models.Point) {
	s, o := src.Data(), dst.Data()
	srcRows, srcCols := src.Rows(), src.Cols()
	rows, cols := dst.Rows(), dst.Cols()

	d.Launch(rows, cols, func(rx, ry int) {
		if rx >= cols || ry >= rows {
			return
		}
		o[ry*cols+rx] = s[wrapIndex(origin.X+rx, origin.Y+ry, srcRows, srcCols)]
	})
}

// CropCentered fills dst with the region of src centred on mid.
func CropCentered(d *device.Device, src, dst *device.Buffer, mid models.Point) {
	origin := models.Point{X: mid.X - dst.Cols()/2, Y: mid.Y - dst.Rows()/2}
	CropTopLeft(d, src, dst, origin)
}

// Paste writes every roi sample into dst starting at topLeft, wrapping at the
// canvas edges. An roi larger than dst folds onto itself; overlapping writes
// race and one of them survives.
func Paste(d *device.Device, dst, roi *device.Buffer, topLeft models.Point) {
	r := roi.Data()
	live(dst)
	dstRows, dstCols := dst.Rows(), dst.Cols()
	rows, cols := roi.Rows(), roi.Cols()

	d.Launch(rows, cols, func(rx, ry int) {
		if rx >= cols || ry >= rows {
			return
		}
		dst.StoreAtomic(wrapIndex(topLeft.X+rx, topLeft.Y+ry, dstRows, dstCols), r[ry*cols+rx])
	})
}

// PasteSpot is Paste restricted to the disk inscribed in the roi: an roi
// offset is written only if its distance from the roi centre does not exceed
// half the roi width. Corners of the bounding box are left untouched.
func PasteSpot(d *device.Device, dst, roi *device.Buffer, topLeft models.Point) {
	r := roi.Data()
	live(dst)
	dstRows, dstCols := dst.Rows(), dst.Cols()
	rows, cols := roi.Rows(), roi.Cols()
	halfW, halfH := cols/2, rows/2
	radius := float64(halfW)

	d.Launch(rows, cols, func(rx, ry int) {
		if rx >= cols || ry >= rows {
			return
		}
		if math.Hypot(float64(halfW-rx), float64(halfH-ry)) > radius {
			return
		}
		dst.StoreAtomic(wrapIndex(topLeft.X+rx, topLeft.Y+ry, dstRows, dstCols), r[ry*cols+rx])
	})
}
