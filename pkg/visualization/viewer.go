// Package visualization renders image planes to 8-bit grayscale pictures and
// writes them as PNG or TIFF files.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/imaging"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
)

// Viewer renders and saves image planes in one output format.
type Viewer struct {
	// format is FormatPNG or FormatTIFF
	format string

	// logScale displays log10 of the samples instead of the samples
	logScale bool
}

// NewViewer creates a viewer for the given format.
func NewViewer(format string, logScale bool) (*Viewer, error) {
	switch format {
	case FormatPNG, FormatTIFF:
	case "tif":
		format = FormatTIFF
	default:
		return nil, fmt.Errorf("invalid output format: %s (must be png or tiff)", format)
	}
	return &Viewer{format: format, logScale: logScale}, nil
}

// Ext returns the file extension of the viewer's format, without the dot.
func (v *Viewer) Ext() string {
	return v.format
}

// PrepareForDisplay returns a host copy of plane variant of img stretched to
// [0, 255]. With log set the samples are replaced by their base-10
// logarithm first; non-positive samples take the smallest positive value of
// the plane. A constant plane maps to zero. img keeps its state.
func PrepareForDisplay(img *imaging.Image, variant models.PlaneVariant, log bool) *mat.Dense {
	rep := img.Representation()
	img.ToRepresentation(variant.Representation())
	plane := img.PlaneCopy(variant)
	img.ToRepresentation(rep)

	if log {
		data := plane.RawMatrix().Data
		floor := math.Inf(1)
		for _, v := range data {
			if v > 0 {
				floor = min(floor, v)
			}
		}
		if math.IsInf(floor, 1) {
			floor = 1
		}
		for i, v := range data {
			data[i] = math.Log10(max(v, floor))
		}
	}

	scaled, err := imaging.ScalePlane(plane, 0, 255)
	if errors.Is(err, imaging.ErrDegenerateScale) {
		rows, cols := plane.Dims()
		return mat.NewDense(rows, cols, nil)
	}
	return scaled
}

// Render converts a display plane in [0, 255] to a grayscale picture.
func Render(plane *mat.Dense) *image.Gray {
	rows, cols := plane.Dims()
	out := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := math.Max(0, math.Min(255, math.Round(plane.At(y, x))))
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return out
}

// Histogram returns the 256-bin histogram of a rendered picture.
func Histogram(img *image.Gray) [256]int {
	var h [256]int
	for _, p := range img.Pix {
		h[p]++
	}
	return h
}

// Mean returns the mean gray level of a rendered picture.
func Mean(img *image.Gray) float64 {
	if len(img.Pix) == 0 {
		return 0
	}
	vals := make([]float64, len(img.Pix))
	for i, p := range img.Pix {
		vals[i] = float64(p)
	}
	return floats.Sum(vals) / float64(len(vals))
}

// Save encodes pic to filename in the viewer's format.
func (v *Viewer) Save(pic image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if v.format == FormatTIFF {
		return tiff.Encode(file, pic, &tiff.Options{Compression: tiff.Deflate})
	}
	return png.Encode(file, pic)
}

// SaveImage renders plane variant of img and saves it to filename.
func (v *Viewer) SaveImage(img *imaging.Image, variant models.PlaneVariant, filename string) error {
	return v.Save(Render(PrepareForDisplay(img, variant, v.logScale)), filename)
}

// SaveSequence saves plane variant of every image into outputDir as
// <prefix>_<seriesIndex>.<ext>.
func (v *Viewer) SaveSequence(images []*imaging.Image, variant models.PlaneVariant, outputDir, prefix string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, img := range images {
		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%03d.%s", prefix, img.SeriesIndex(), v.format))
		if err := v.SaveImage(img, variant, filename); err != nil {
			return err
		}
	}
	return nil
}
