// Package pipeline runs a series of raw hologram intensities through the
// image core: loading, outlier repair, rotation and magnification, joint
// contrast scaling, seam linking and export.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/composite"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/imaging"
	"latticeanalyzer/pkg/transform"
	"latticeanalyzer/pkg/visualization"
)

// Params holds the processing parameters.
type Params struct {
	// InputDir contains the raw intensity files, ordered by the number in
	// their names.
	InputDir string

	// OutputDir receives the exported amplitude pictures.
	OutputDir string

	// DimSize is the side of every raw intensity matrix.
	DimSize int

	// NumWorkers bounds the goroutines of a kernel launch and of the
	// per-image fan-out.
	NumWorkers int

	// Sequential runs kernels on the calling goroutine.
	Sequential bool

	// BlockSize is the kernel block side.
	BlockSize int

	// RepairOutliers enables outlier repair with the thresholds below.
	RepairOutliers bool
	MinThreshold   float64
	MaxThreshold   float64

	// Rotation in degrees; 0 skips rotation.
	Rotation float64

	// CropAfterRotation trims the empty corners of rotated images.
	CropAfterRotation bool

	// Magnification factor; 1 skips magnification.
	Magnification float64

	// LinkImages writes a seam-blended link of every consecutive pair.
	LinkImages     bool
	LinkVertical   bool
	MarginFraction float64

	// MosaicColumns joins the results into a grid; 0 disables it.
	MosaicColumns int

	// Format is "png" or "tiff".
	Format string

	// LogScale displays amplitudes on a log scale.
	LogScale bool

	// SaveIntermediaryResults dumps every stage into IntermediaryDir.
	SaveIntermediaryResults bool
	IntermediaryDir         string
}

// Summary reports what a run did.
type Summary struct {
	Images           int
	Height           int
	Width            int
	OutliersRepaired int
	Links            int
	Mosaic           bool
}

// Processor runs the pipeline for one set of parameters.
type Processor struct {
	params *Params
	dev    *device.Device
	viewer *visualization.Viewer
	series *imaging.Series

	summary Summary
}

// NewProcessor creates a processor and its compute device.
func NewProcessor(params *Params) (*Processor, error) {
	viewer, err := visualization.NewViewer(params.Format, params.LogScale)
	if err != nil {
		return nil, err
	}

	var exec device.Executor = device.Sequential{}
	if !params.Sequential {
		exec = device.NewParallel(params.NumWorkers)
	}

	return &Processor{
		params: params,
		dev:    device.New(exec, params.BlockSize),
		viewer: viewer,
	}, nil
}

// Device returns the compute device of the processor.
func (p *Processor) Device() *device.Device {
	return p.dev
}

// Series returns the processed images. It is nil before Process.
func (p *Processor) Series() *imaging.Series {
	return p.series
}

// Summary returns the counters of the last run.
func (p *Processor) Summary() Summary {
	return p.summary
}

// Release frees every image of the series.
func (p *Processor) Release() {
	if p.series == nil {
		return
	}
	for _, img := range p.series.Images() {
		img.Release()
	}
}

// Process runs the complete pipeline
func (p *Processor) Process() error {
	if p.params.SaveIntermediaryResults {
		if err := os.MkdirAll(p.params.IntermediaryDir, 0755); err != nil {
			return fmt.Errorf("failed to create intermediary directory: %v", err)
		}
	}
	if err := os.MkdirAll(p.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}

	// Step 1: Load raw intensities
	fmt.Println("Step 1: Loading raw intensities...")
	if err := p.loadImages(); err != nil {
		return fmt.Errorf("failed to load images: %v", err)
	}
	p.saveStage("01_loaded")

	// Step 2: Repair outliers
	if p.params.RepairOutliers {
		fmt.Println("Step 2: Repairing outlier pixels...")
		if err := p.repairOutliers(); err != nil {
			return fmt.Errorf("failed to repair outliers: %v", err)
		}
		p.saveStage("02_repaired")
	} else {
		fmt.Println("Step 2: Outlier repair disabled, skipping")
	}

	// Step 3: Rotate and magnify
	fmt.Println("Step 3: Applying geometric transforms...")
	if err := p.transformImages(); err != nil {
		return fmt.Errorf("failed to transform images: %v", err)
	}
	p.saveStage("03_transformed")

	// Step 4: Joint contrast scaling
	fmt.Println("Step 4: Scaling amplitudes to a common range...")
	if err := composite.ScaleAmplitudes(p.series.Images()); err != nil {
		return fmt.Errorf("failed to scale amplitudes: %v", err)
	}
	p.saveStage("04_scaled")

	// Step 5: Seam-blended links
	if p.params.LinkImages {
		fmt.Println("Step 5: Linking consecutive images...")
		if err := p.linkImages(); err != nil {
			return fmt.Errorf("failed to link images: %v", err)
		}
	}

	// Step 6: Export
	fmt.Println("Step 6: Saving results...")
	if err := p.viewer.SaveSequence(p.series.Images(), models.Amplitude, p.params.OutputDir, "image"); err != nil {
		return fmt.Errorf("failed to save images: %v", err)
	}
	if p.params.MosaicColumns > 0 {
		if err := p.saveMosaic(); err != nil {
			return fmt.Errorf("failed to save mosaic: %v", err)
		}
	}

	first := p.series.At(0)
	p.summary.Images = p.series.Len()
	p.summary.Height, p.summary.Width = first.Height(), first.Width()
	fmt.Printf("Processed %d images of %dx%d\n", p.summary.Images, p.summary.Height, p.summary.Width)
	return nil
}

// loadImages reads every input file into a host-resident polar image with
// a snapshot of the initial amplitude.
func (p *Processor) loadImages() error {
	files, err := listInputs(p.params.InputDir)
	if err != nil {
		return err
	}

	images := make([]*imaging.Image, 0, len(files))
	for i, name := range files {
		intensity, err := LoadIntensity(filepath.Join(p.params.InputDir, name), p.params.DimSize)
		if err != nil {
			return err
		}
		img, err := imaging.FromIntensity(p.dev, intensity, imaging.Params{SeriesIndex: i + 1})
		if err != nil {
			return err
		}
		images = append(images, img)
	}
	p.series = imaging.NewSeries(images...)

	fmt.Printf("Loaded %d images with dimensions %dx%d\n", len(images), p.params.DimSize, p.params.DimSize)
	return nil
}

// forEachImage runs fn on every image of the series, at most NumWorkers at a
// time. Each image is touched by one goroutine only.
func (p *Processor) forEachImage(fn func(i int, img *imaging.Image) error) error {
	images := p.series.Images()
	errs := make([]error, len(images))
	sem := make(chan struct{}, max(p.params.NumWorkers, 1))

	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img *imaging.Image) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = fn(i, img)
		}(i, img)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (p *Processor) repairOutliers() error {
	counts := make([]int, p.series.Len())
	err := p.forEachImage(func(i int, img *imaging.Image) error {
		n, err := composite.RemoveOutliers(img, p.params.MinThreshold, p.params.MaxThreshold)
		counts[i] = n
		return err
	})
	for i, n := range counts {
		p.summary.OutliersRepaired += n
		fmt.Printf("Image %d: registered %d bad pixels\n", i+1, n)
	}
	return err
}

func (p *Processor) transformImages() error {
	rotate := p.params.Rotation != 0
	magnify := p.params.Magnification != 1
	if !rotate && !magnify {
		fmt.Println("No rotation or magnification requested, skipping")
		return nil
	}

	results := make([]*imaging.Image, p.series.Len())
	err := p.forEachImage(func(i int, img *imaging.Image) error {
		out, err := p.transformImage(img, rotate, magnify)
		results[i] = out
		return err
	})
	if err != nil {
		releaseResults(results, p.series.Images())
		return err
	}

	for i, out := range results {
		p.series.At(i).Release()
		p.series.Replace(i, out)
	}
	p.series.RebuildLinks()

	first := p.series.At(0)
	logging.Logger().Info("pipeline: transformed",
		"rotation", p.params.Rotation, "magnification", p.params.Magnification,
		"height", first.Height(), "width", first.Width())
	return nil
}

// transformImage rotates and magnifies img into a new image. Intermediate
// images are released, including on failure; img itself is left alone.
func (p *Processor) transformImage(img *imaging.Image, rotate, magnify bool) (*imaging.Image, error) {
	out := img
	if rotate {
		var err error
		if p.params.CropAfterRotation {
			out, err = transform.RotateAndCrop(img, p.params.Rotation)
		} else {
			out, err = transform.Rotate(img, p.params.Rotation)
		}
		if err != nil {
			return nil, err
		}
	}
	if magnify {
		mag, err := transform.Magnify(out, p.params.Magnification)
		if out != img {
			out.Release()
		}
		if err != nil {
			return nil, err
		}
		out = mag
	}
	return out, nil
}

// releaseResults frees the images of a failed stage that are not part of
// the series.
func releaseResults(results, originals []*imaging.Image) {
	for i, out := range results {
		if out != nil && out != originals[i] {
			out.Release()
		}
	}
}

func (p *Processor) linkImages() error {
	dir := filepath.Join(p.params.OutputDir, "links")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for img := p.series.At(0); img.Next() != nil; img = img.Next() {
		var linked *imaging.Image
		var err error
		if p.params.LinkVertical {
			linked, err = composite.LinkSmoothlyV(img, img.Next(), p.params.MarginFraction)
		} else {
			linked, err = composite.LinkSmoothlyH(img, img.Next(), p.params.MarginFraction)
		}
		if err != nil {
			return err
		}

		name := fmt.Sprintf("link_%03d_%03d.%s", img.SeriesIndex(), img.Next().SeriesIndex(), p.viewer.Ext())
		err = p.viewer.SaveImage(linked, models.Amplitude, filepath.Join(dir, name))
		linked.Release()
		if err != nil {
			return err
		}
		p.summary.Links++
	}
	return nil
}

func (p *Processor) saveMosaic() error {
	images := p.series.Images()
	cols := p.params.MosaicColumns
	if len(images)%cols != 0 {
		fmt.Printf("Warning: %d images do not fill rows of %d, skipping mosaic\n", len(images), cols)
		return nil
	}

	mosaic, err := composite.Join(images, cols)
	if err != nil {
		return err
	}
	defer mosaic.Release()

	if err := p.viewer.SaveImage(mosaic, models.Amplitude, filepath.Join(p.params.OutputDir, "mosaic."+p.viewer.Ext())); err != nil {
		return err
	}
	p.summary.Mosaic = true
	return nil
}

// saveStage dumps the amplitude of every image into the stage directory.
// Failures are reported and otherwise ignored.
func (p *Processor) saveStage(stage string) {
	if !p.params.SaveIntermediaryResults {
		return
	}

	fmt.Printf("Saving %s...\n", stage)
	dir := filepath.Join(p.params.IntermediaryDir, stage)
	if err := p.viewer.SaveSequence(p.series.Images(), models.Amplitude, dir, "image"); err != nil {
		fmt.Printf("Warning: Failed to save stage %s: %v\n", stage, err)
	}
}
