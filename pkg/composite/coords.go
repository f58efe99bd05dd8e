package composite

import "latticeanalyzer/internal/models"

// floorDiv2 halves n rounding towards negative infinity.
func floorDiv2(n int) int {
	if n < 0 {
		return -((-n + 1) / 2)
	}
	return n / 2
}

// SquareCoords trims the longer axis of c symmetrically so the box becomes
// square. When the sides differ by an odd amount the extra pixel is taken
// from the top or left.
func SquareCoords(c models.Coords) models.Coords {
	h, w := c.Height(), c.Width()
	halfDiff := max(h-w, w-h) / 2
	fix := (h + w) % 2

	switch {
	case h > w:
		return models.Coords{X0: c.X0, Y0: c.Y0 + halfDiff + fix, X1: c.X1, Y1: c.Y1 - halfDiff}
	case w > h:
		return models.Coords{X0: c.X0 + halfDiff + fix, Y0: c.Y0, X1: c.X1 - halfDiff, Y1: c.Y1}
	}
	return c
}

// CropCoordsForShift returns the part of a width x height image that stays
// inside the frame after the image is moved by shift.
func CropCoordsForShift(width, height int, shift models.Point) models.Coords {
	dx, dy := shift.X, shift.Y
	switch {
	case dx >= 0 && dy >= 0:
		return models.Coords{X0: dx, Y0: dy, X1: width, Y1: height}
	case dy < 0 && dx >= 0:
		return models.Coords{X0: dx, Y0: 0, X1: width, Y1: height + dy}
	case dx < 0 && dy >= 0:
		return models.Coords{X0: 0, Y0: dy, X1: width + dx, Y1: height}
	}
	return models.Coords{X0: 0, Y0: 0, X1: width + dx, Y1: height + dy}
}

// CropCoordsForNewWidth returns the centred newWidth square of an oldWidth
// square.
func CropCoordsForNewWidth(oldWidth, newWidth int) models.Coords {
	o := floorDiv2(oldWidth - newWidth)
	return models.Coords{X0: o, Y0: o, X1: o + newWidth, Y1: o + newWidth}
}

// CropCoordsForNewDims returns the centred newWidth x newHeight box of an
// oldWidth x oldHeight image.
func CropCoordsForNewDims(oldWidth, oldHeight, newWidth, newHeight int) models.Coords {
	ox, oy := floorDiv2(oldWidth-newWidth), floorDiv2(oldHeight-newHeight)
	return models.Coords{X0: ox, Y0: oy, X1: ox + newWidth, Y1: oy + newHeight}
}

// EqualCropCoords returns the square box that trims biggerWidth equally on
// every side so it matches smallerWidth.
func EqualCropCoords(biggerWidth, smallerWidth int) models.Coords {
	half := floorDiv2(biggerWidth - smallerWidth)
	return models.Coords{X0: half, Y0: half, X1: biggerWidth - half, Y1: biggerWidth - half}
}

// CommonArea returns the intersection of two boxes. The result has a
// non-positive width or height when they do not overlap.
func CommonArea(a, b models.Coords) models.Coords {
	return models.Coords{
		X0: max(a.X0, b.X0),
		Y0: max(a.Y0, b.Y0),
		X1: min(a.X1, b.X1),
		Y1: min(a.Y1, b.Y1),
	}
}
