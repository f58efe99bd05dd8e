package composite

import (
	"fmt"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/field"
	"latticeanalyzer/pkg/imaging"
	"latticeanalyzer/pkg/transform"
)

// checkTiles verifies that images is non-empty and that all images share the
// first one's shape.
func checkTiles(images []*imaging.Image) error {
	if len(images) == 0 {
		return ErrNoImages
	}
	h, w := images[0].Height(), images[0].Width()
	for i, img := range images[1:] {
		if img.Height() != h || img.Width() != w {
			return fmt.Errorf("%w: tile %d is %dx%d, expected %dx%d",
				field.ErrShapeMismatch, i+1, img.Height(), img.Width(), h, w)
		}
	}
	return nil
}

// JoinH places images side by side, left to right.
func JoinH(images []*imaging.Image) (*imaging.Image, error) {
	return join(images, func(idx, h, w int) models.Point {
		return models.Point{X: idx * w}
	}, 1, len(images))
}

// JoinV stacks images top to bottom.
func JoinV(images []*imaging.Image) (*imaging.Image, error) {
	return join(images, func(idx, h, w int) models.Point {
		return models.Point{Y: idx * h}
	}, len(images), 1)
}

// Join tiles images into a grid with perRow images per row, filling rows
// first. len(images) must be a multiple of perRow.
func Join(images []*imaging.Image, perRow int) (*imaging.Image, error) {
	if perRow <= 0 || len(images)%perRow != 0 {
		return nil, fmt.Errorf("cannot lay out %d images in rows of %d", len(images), perRow)
	}

	rows := make([]*imaging.Image, 0, len(images)/perRow)
	defer func() {
		for _, r := range rows {
			r.Release()
		}
	}()
	for i := 0; i < len(images); i += perRow {
		row, err := JoinH(images[i : i+perRow])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return JoinV(rows)
}

func join(images []*imaging.Image, at func(idx, h, w int) models.Point, nRows, nCols int) (*imaging.Image, error) {
	if err := checkTiles(images); err != nil {
		return nil, err
	}
	first := images[0]
	h, w := first.Height(), first.Width()

	canvas, err := imaging.New(first.Device(), imaging.Params{
		Height:      nRows * h,
		Width:       nCols * w,
		Residency:   first.Residency(),
		Defocus:     first.Defocus,
		SeriesIndex: first.SeriesIndex(),
	})
	if err != nil {
		return nil, err
	}

	for idx, img := range images {
		next := transform.Paste(canvas, img, at(idx, h, w), false)
		canvas.Release()
		canvas = next
	}
	return canvas, nil
}
