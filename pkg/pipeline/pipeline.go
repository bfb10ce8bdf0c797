// Package pipeline runs one heatmap generation: it loads a scan, optionally
// removes the background measurement, splits the spectrum into bands,
// aggregates and interpolates every band and exports the result.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"emiheatmap/internal/models"
	"emiheatmap/pkg/aggregation"
	"emiheatmap/pkg/background"
	"emiheatmap/pkg/bands"
	"emiheatmap/pkg/interpolation"
	"emiheatmap/pkg/loader"
	"emiheatmap/pkg/visualization"
)

// Params holds the configuration of one run
type Params struct {
	// InputDir is the directory holding the x<X>_y<Y>.csv scan files
	InputDir string

	// BackgroundDir optionally holds a background scan taken with the same
	// layout. It is subtracted from the main scan when set.
	BackgroundDir string

	// OutputDir receives grey/, color/ and out.png. It must already exist.
	OutputDir string

	// Policy selects how each band is reduced to one value per position
	Policy aggregation.Policy

	// StepHz is the nominal band width
	StepHz float64

	// UpsampleFactor is the number of mesh points per scan position
	UpsampleFactor int

	// NumWorkers bounds how many bands are processed concurrently
	NumWorkers int

	// PreviewColumns is the number of panels per row in out.png
	PreviewColumns int

	// WriteManifest adds manifest.yaml to the outputs
	WriteManifest bool
}

// DefaultParams returns parameters for inputDir with every tunable at its default
func DefaultParams(inputDir string) *Params {
	return &Params{
		InputDir:       inputDir,
		OutputDir:      ".",
		Policy:         aggregation.Amplitude,
		StepHz:         bands.DefaultStep,
		UpsampleFactor: interpolation.DefaultUpsampleFactor,
		NumWorkers:     runtime.NumCPU(),
		PreviewColumns: visualization.DefaultPreviewColumns,
		WriteManifest:  true,
	}
}

// Pipeline turns a near-field scan into per-band heatmaps.
//
// The run is strictly ordered: load, subtract background, partition,
// aggregate and interpolate each band, then derive the shared color scale
// and export. Bands are independent until the color scale is computed, so
// they run concurrently.
type Pipeline struct {
	params *Params

	cloud   *models.PointCloud
	bands   []models.FrequencyBand
	titles  []string
	rasters []*models.Raster
	scale   models.ColorScale
}

// NewPipeline creates a pipeline for params
func NewPipeline(params *Params) *Pipeline {
	return &Pipeline{
		params: params,
		scale:  models.NewColorScale(),
	}
}

// Process runs the complete pipeline. Any error aborts the run; textures are
// only written once every band has been interpolated.
func (p *Pipeline) Process(ctx context.Context) error {
	start := time.Now()
	if err := p.validate(); err != nil {
		return err
	}
	if err := visualization.CheckOutputDir(p.params.OutputDir); err != nil {
		return err
	}

	// Step 1: Load the scan
	log.Info().Str("dir", p.params.InputDir).Msg("Step 1: loading measurements")
	cloud, err := loader.LoadPointCloud(p.params.InputDir)
	if err != nil {
		return fmt.Errorf("failed to load measurements: %w", err)
	}
	p.cloud = cloud

	// Step 2: Remove the background
	if p.params.BackgroundDir != "" {
		log.Info().Str("dir", p.params.BackgroundDir).Msg("Step 2: removing background")
		back, err := loader.LoadPointCloud(p.params.BackgroundDir)
		if err != nil {
			return fmt.Errorf("failed to load background: %w", err)
		}
		if p.cloud, err = background.Subtract(p.cloud, back); err != nil {
			return err
		}
	} else {
		log.Debug().Msg("Step 2: no background given, skipping")
	}

	// Step 3: Partition the spectrum
	lo, hi := p.cloud.FrequencySpan()
	p.bands, err = bands.Partition(lo, hi, p.params.StepHz)
	if err != nil {
		return fmt.Errorf("failed to partition %g..%g Hz: %w", lo, hi, err)
	}
	p.titles = bands.Titles(p.bands)
	xs, ys := p.cloud.Coordinates()
	log.Info().
		Int("samples", p.cloud.Len()).
		Int("xPositions", len(xs)).
		Int("yPositions", len(ys)).
		Int("bands", len(p.bands)).
		Msg("Step 3: spectrum partitioned")

	// Step 4: Aggregate and interpolate every band
	log.Info().Int("workers", p.params.NumWorkers).Msg("Step 4: interpolating bands")
	if err := p.processBands(ctx); err != nil {
		return err
	}

	// Step 5: Shared color scale
	p.scale = interpolation.ColorScaleOf(p.rasters)
	log.Info().Float64("min", p.scale.Min).Float64("max", p.scale.Max).Msg("Step 5: color scale")

	// Step 6: Export
	exporter := visualization.NewExporter(p.params.OutputDir, visualization.Options{
		PreviewColumns: p.params.PreviewColumns,
	})
	if err := exporter.Export(p.rasters, p.scale); err != nil {
		return fmt.Errorf("failed to export heatmaps: %w", err)
	}
	if p.params.WriteManifest {
		m := exporter.BuildManifest(p.rasters, p.scale)
		m.Aggregation = string(p.params.Policy)
		m.StepHz = p.params.StepHz
		m.Background = p.params.BackgroundDir != ""
		if err := exporter.SaveManifest(m); err != nil {
			return err
		}
	}
	log.Info().
		Str("output", p.params.OutputDir).
		Dur("elapsed", time.Since(start)).
		Msg("Step 6: heatmaps exported")

	return nil
}

func (p *Pipeline) validate() error {
	if p.params.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if _, err := aggregation.ParsePolicy(string(p.params.Policy)); err != nil {
		return err
	}
	if !(p.params.StepHz > 0) {
		return fmt.Errorf("band step must be positive, got %g", p.params.StepHz)
	}
	if p.params.UpsampleFactor < 1 {
		return fmt.Errorf("upsample factor must be at least 1, got %d", p.params.UpsampleFactor)
	}
	if p.params.NumWorkers < 1 {
		p.params.NumWorkers = 1
	}
	return nil
}

// processBands aggregates and interpolates the bands concurrently. Every
// worker writes only its own slot, so the result keeps band order.
func (p *Pipeline) processBands(ctx context.Context) error {
	series := aggregation.GroupByPosition(p.cloud)
	rasters := make([]*models.Raster, len(p.bands))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.params.NumWorkers)

	for i, band := range p.bands {
		i, band := i, band
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			grid, err := aggregation.AggregateBand(series, band, p.params.Policy)
			if err != nil {
				return fmt.Errorf("band %s: %w", p.titles[i], err)
			}

			raster, err := interpolation.Interpolate(grid, p.params.UpsampleFactor)
			if err != nil {
				return fmt.Errorf("band %s: %w", p.titles[i], err)
			}
			raster.Title = p.titles[i]
			rasters[i] = raster

			log.Debug().Str("band", p.titles[i]).Int("positions", len(grid.Samples)).Msg("band interpolated")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	p.rasters = rasters
	return nil
}

// Bands returns the frequency bands of the last run
func (p *Pipeline) Bands() []models.FrequencyBand {
	return p.bands
}

// Titles returns the band titles of the last run
func (p *Pipeline) Titles() []string {
	return p.titles
}

// Rasters returns the interpolated band rasters of the last run
func (p *Pipeline) Rasters() []*models.Raster {
	return p.rasters
}

// ColorScale returns the shared color scale of the last run
func (p *Pipeline) ColorScale() models.ColorScale {
	return p.scale
}
