package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"latticeanalyzer/internal/logging"
	"latticeanalyzer/pkg/config"
	"latticeanalyzer/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "latticeanalyzer.yaml", "Path to the YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	inputDir := flag.String("input", "", "Directory containing raw intensity files (.raw, .bin)")
	outputDir := flag.String("output", "results", "Directory for the exported pictures")
	intermediaryDir := flag.String("intermediary-dir", "intermediary_results", "Directory to save intermediary results")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: from config)")
	rotation := flag.Float64("rotate", 0, "Rotation angle in degrees (default: from config)")
	magnification := flag.Float64("magnify", 0, "Magnification factor (default: from config)")
	format := flag.String("format", "", "Output format: png or tiff (default: from config)")
	verbose := flag.Bool("verbose", false, "Enable diagnostic logging")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the configuration file
	if *workers > 0 {
		cfg.Processing.NumWorkers = *workers
	}
	if *rotation != 0 {
		cfg.Transform.Rotation = *rotation
	}
	if *magnification != 0 {
		cfg.Transform.Magnification = *magnification
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Output.Verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	fmt.Println("================================")
	fmt.Println("LATTICE ANALYZER: COMPLEX ELECTRON-WAVE IMAGE PROCESSING")
	fmt.Println("================================")

	params := &pipeline.Params{
		InputDir:                *inputDir,
		OutputDir:               *outputDir,
		DimSize:                 cfg.Input.DimSize,
		NumWorkers:              cfg.Processing.NumWorkers,
		Sequential:              cfg.Processing.Executor == "sequential",
		BlockSize:               cfg.Processing.BlockSize,
		RepairOutliers:          cfg.Repair.Enabled,
		MinThreshold:            cfg.Repair.MinThreshold,
		MaxThreshold:            cfg.Repair.MaxThreshold,
		Rotation:                cfg.Transform.Rotation,
		CropAfterRotation:       cfg.Transform.CropAfterRotation,
		Magnification:           cfg.Transform.Magnification,
		LinkImages:              cfg.Link.Enabled,
		LinkVertical:            cfg.Link.Vertical,
		MarginFraction:          cfg.Link.MarginFraction,
		MosaicColumns:           cfg.Output.MosaicColumns,
		Format:                  cfg.Output.Format,
		LogScale:                cfg.Output.LogScale,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         *intermediaryDir,
	}

	processor, err := pipeline.NewProcessor(params)
	if err != nil {
		log.Fatalf("Failed to create processor: %v", err)
	}
	defer processor.Release()

	fmt.Printf("Processing with %d workers (%s executor)...\n", cfg.Processing.NumWorkers, cfg.Processing.Executor)
	startTime := time.Now()
	if err := processor.Process(); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
	processingTime := time.Since(startTime)

	summary := processor.Summary()
	fmt.Printf("\nProcessing completed successfully in %.2f seconds!\n", processingTime.Seconds())
	fmt.Printf("- Images: %d (%dx%d)\n", summary.Images, summary.Height, summary.Width)
	if cfg.Repair.Enabled {
		fmt.Printf("- Outlier pixels repaired: %d\n", summary.OutliersRepaired)
	}
	if summary.Links > 0 {
		fmt.Printf("- Linked pairs: %d\n", summary.Links)
	}
	if summary.Mosaic {
		fmt.Println("- Mosaic saved")
	}
	absOut, err := filepath.Abs(*outputDir)
	if err != nil {
		absOut = *outputDir
	}
	fmt.Printf("Results saved to: %s\n", absOut)

	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", *intermediaryDir)
		fmt.Println("The following stages were saved:")
		fmt.Println("- 01_loaded: Amplitudes as loaded")
		fmt.Println("- 02_repaired: Amplitudes after outlier repair")
		fmt.Println("- 03_transformed: Amplitudes after rotation and magnification")
		fmt.Println("- 04_scaled: Amplitudes on the common contrast range")
	}
}
