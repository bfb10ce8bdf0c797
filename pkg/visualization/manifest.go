package visualization

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"emiheatmap/internal/models"
)

// ManifestFile is the name of the run summary written next to the textures
const ManifestFile = "manifest.yaml"

// Manifest describes the outputs of one run
type Manifest struct {
	Aggregation string         `yaml:"aggregation"`
	StepHz      float64        `yaml:"stepHz"`
	Background  bool           `yaml:"backgroundRemoved"`
	ColorScale  ManifestScale  `yaml:"colorScale"`
	Preview     string         `yaml:"preview"`
	Bands       []ManifestBand `yaml:"bands"`
}

// ManifestScale is the shared value range of all textures
type ManifestScale struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ManifestBand lists one band and its textures, relative to the output directory
type ManifestBand struct {
	Title   string  `yaml:"title"`
	StartHz float64 `yaml:"startHz"`
	EndHz   float64 `yaml:"endHz"`
	Grey    string  `yaml:"grey"`
	Color   string  `yaml:"color"`

	Stats BandStats `yaml:"stats"`
}

// BandStats summarises the interpolated values of one band
type BandStats struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stdDev"`
}

// RasterStats computes the value statistics of a raster
func RasterStats(r *models.Raster) BandStats {
	rows, cols := r.Values.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, r.Values.RawRowView(i)...)
	}
	if len(data) == 0 {
		return BandStats{}
	}

	mean, std := stat.MeanStdDev(data, nil)
	return BandStats{
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Mean:   mean,
		StdDev: std,
	}
}

// ManifestPath returns where the manifest is written
func (e *Exporter) ManifestPath() string {
	return filepath.Join(e.outputDir, ManifestFile)
}

// BuildManifest describes rasters as they are laid out by this exporter
func (e *Exporter) BuildManifest(rasters []*models.Raster, scale models.ColorScale) Manifest {
	m := Manifest{
		ColorScale: ManifestScale{Min: scale.Min, Max: scale.Max},
		Preview:    PreviewFile,
		Bands:      make([]ManifestBand, 0, len(rasters)),
	}
	for _, r := range rasters {
		name := SanitizeTitle(r.Title)
		m.Bands = append(m.Bands, ManifestBand{
			Title:   r.Title,
			StartHz: r.Band.Start,
			EndHz:   r.Band.End,
			Grey:    filepath.ToSlash(filepath.Join(GreyDir, name+"_grey.png")),
			Color:   filepath.ToSlash(filepath.Join(ColorDir, name+".png")),
			Stats:   RasterStats(r),
		})
	}
	return m
}

// SaveManifest writes m as YAML into the output directory
func (e *Exporter) SaveManifest(m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(e.ManifestPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by SaveManifest
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
