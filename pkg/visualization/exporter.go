package visualization

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"emiheatmap/internal/models"
)

// Output layout below the heatmap directory
const (
	GreyDir     = "grey"
	ColorDir    = "color"
	PreviewFile = "out.png"
)

// DefaultPreviewColumns is the number of panels per row in the preview figure
const DefaultPreviewColumns = 5

// Options tune the exporter output
type Options struct {
	// PreviewColumns is the number of panels per preview row
	PreviewColumns int
}

// Exporter writes the band rasters of one run as texture images and a
// combined preview figure
type Exporter struct {
	outputDir string
	opts      Options
}

// NewExporter creates an exporter writing below outputDir
func NewExporter(outputDir string, opts Options) *Exporter {
	if opts.PreviewColumns <= 0 {
		opts.PreviewColumns = DefaultPreviewColumns
	}
	return &Exporter{
		outputDir: outputDir,
		opts:      opts,
	}
}

// CheckOutputDir verifies that dir exists and is a directory
func CheckOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrDirectoryUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", models.ErrDirectoryUnavailable, dir)
	}
	return nil
}

// Prepare creates the grey and color texture directories
func (e *Exporter) Prepare() error {
	if err := CheckOutputDir(e.outputDir); err != nil {
		return err
	}
	for _, sub := range []string{GreyDir, ColorDir} {
		if err := os.MkdirAll(filepath.Join(e.outputDir, sub), 0755); err != nil {
			return fmt.Errorf("%w: %v", models.ErrDirectoryUnavailable, err)
		}
	}
	return nil
}

// SanitizeTitle makes a band title usable as a file name
func SanitizeTitle(title string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, title)
}

// TexturePaths returns where the grey and color textures of a band are written
func (e *Exporter) TexturePaths(title string) (grey, color string) {
	name := SanitizeTitle(title)
	grey = filepath.Join(e.outputDir, GreyDir, name+"_grey.png")
	color = filepath.Join(e.outputDir, ColorDir, name+".png")
	return grey, color
}

// PreviewPath returns where the combined preview figure is written
func (e *Exporter) PreviewPath() string {
	return filepath.Join(e.outputDir, PreviewFile)
}

// Export writes both textures of every raster followed by the preview figure.
// All rasters are normalised to the same scale.
func (e *Exporter) Export(rasters []*models.Raster, scale models.ColorScale) error {
	if !scale.Valid() {
		return fmt.Errorf("color scale [%g, %g] is not valid", scale.Min, scale.Max)
	}
	if err := e.Prepare(); err != nil {
		return err
	}

	if err := e.SaveTextures(rasters, scale); err != nil {
		return err
	}

	return e.SavePreview(rasters, scale)
}

// SaveTextures writes the grey and color texture of each raster
func (e *Exporter) SaveTextures(rasters []*models.Raster, scale models.ColorScale) error {
	cm, err := newColorMap(scale)
	if err != nil {
		return err
	}

	for _, r := range rasters {
		greyPath, colorPath := e.TexturePaths(r.Title)

		if err := SaveImage(RenderGrey(r, scale), greyPath); err != nil {
			return fmt.Errorf("failed to save grey texture for %s: %w", r.Title, err)
		}

		img, err := RenderColor(r, cm)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", r.Title, err)
		}
		if err := SaveImage(img, colorPath); err != nil {
			return fmt.Errorf("failed to save color texture for %s: %w", r.Title, err)
		}

		log.Debug().Str("band", r.Title).Str("grey", greyPath).Str("color", colorPath).Msg("saved textures")
	}

	return nil
}

// SaveImage writes img as a PNG file
func SaveImage(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// displayRange widens a degenerate scale so colours stay defined
func displayRange(scale models.ColorScale) (lo, hi float64) {
	lo, hi = scale.Min, scale.Max
	if !(hi > lo) {
		pad := math.Max(math.Abs(lo)*1e-6, 0.5)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}

// normalize maps v into [0, 1] on the display range
func normalize(v, lo, hi float64) float64 {
	t := (v - lo) / (hi - lo)
	switch {
	case math.IsNaN(t) || t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}
