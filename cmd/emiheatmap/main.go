package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"emiheatmap/pkg/aggregation"
	"emiheatmap/pkg/config"
	"emiheatmap/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	removeBackground := pflag.StringP("remove-background", "b", "", "Directory with a background scan to subtract")
	heatmapPath := pflag.String("heatmap-path", ".", "Existing directory receiving grey/, color/ and out.png")
	aggregationName := pflag.StringP("aggregation", "a", string(aggregation.Amplitude), "Band reduction: amplitude or amplitude-squared")
	step := pflag.Float64P("step", "s", 50e6, "Frequency band width in Hz")
	configPath := pflag.StringP("config", "c", "", "YAML configuration file")
	writeConfig := pflag.String("write-config", "", "Write the default configuration to this file and exit")
	workers := pflag.IntP("workers", "w", 0, "Bands processed concurrently (default: all CPUs)")
	upsample := pflag.Int("upsample", 120, "Mesh points per scan position along each axis")
	previewColumns := pflag.Int("preview-columns", 5, "Panels per row of the preview figure")
	noManifest := pflag.Bool("no-manifest", false, "Do not write manifest.yaml")
	logLevel := pflag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := pflag.String("log-format", "console", "Log format (console or json)")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] PATH\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Builds per-band heatmaps from the x<X>_y<Y>.csv spectra found in PATH.")
		fmt.Fprintln(os.Stderr)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given explicitly take precedence over the config file
	if changed("heatmap-path") {
		cfg.Output.HeatmapPath = *heatmapPath
	}
	if changed("aggregation") {
		cfg.Processing.Aggregation = *aggregationName
	}
	if changed("step") {
		cfg.Processing.StepHz = *step
	}
	if changed("workers") {
		cfg.Processing.NumWorkers = *workers
	}
	if changed("upsample") {
		cfg.Processing.UpsampleFactor = *upsample
	}
	if changed("preview-columns") {
		cfg.Output.PreviewColumns = *previewColumns
	}
	if changed("no-manifest") {
		cfg.Output.WriteManifest = !*noManifest
	}
	if changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging.Level, cfg.Logging.Format)

	// Validate inputs
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	inputDir := pflag.Arg(0)
	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		log.Fatal().Str("path", inputDir).Msg("measurement path does not exist or is not a directory")
	}

	params := &pipeline.Params{
		InputDir:       inputDir,
		BackgroundDir:  *removeBackground,
		OutputDir:      cfg.Output.HeatmapPath,
		Policy:         aggregation.Policy(cfg.Processing.Aggregation),
		StepHz:         cfg.Processing.StepHz,
		UpsampleFactor: cfg.Processing.UpsampleFactor,
		NumWorkers:     cfg.Processing.NumWorkers,
		PreviewColumns: cfg.Output.PreviewColumns,
		WriteManifest:  cfg.Output.WriteManifest,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pipeline.NewPipeline(params).Process(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("heatmap generation failed")
	}
}

// changed reports whether a flag was set on the command line
func changed(name string) bool {
	f := pflag.Lookup(name)
	return f != nil && f.Changed
}

// setupLogging configures the global zerolog logger
func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
