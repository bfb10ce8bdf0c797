package visualization

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"emiheatmap/internal/models"
)

// newRaster builds a raster over [0, ex] × [0, ey] with nx × ny mesh points
func newRaster(title string, band models.FrequencyBand, nx, ny int, ex, ey float64, fn func(x, y float64) float64) *models.Raster {
	xs := floats.Span(make([]float64, nx), 0, ex)
	ys := floats.Span(make([]float64, ny), 0, ey)
	values := mat.NewDense(nx, ny, nil)
	for i, x := range xs {
		for j, y := range ys {
			values.Set(i, j, fn(x, y))
		}
	}
	return &models.Raster{Band: band, Title: title, Xs: xs, Ys: ys, Values: values}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	return img
}

func TestExportWritesTexturesAndPreview(t *testing.T) {
	dir := t.TempDir()
	rasters := []*models.Raster{
		newRaster("30.0 MHz - 100.0 MHz", models.FrequencyBand{Start: 30e6, End: 100e6}, 480, 480, 15, 15,
			func(x, y float64) float64 { return x + y }),
		newRaster("100.0 MHz - 150.0 MHz", models.FrequencyBand{Start: 100e6, End: 150e6}, 480, 480, 15, 15,
			func(x, y float64) float64 { return x - y }),
	}
	scale := models.ColorScale{Min: -15, Max: 30}

	e := NewExporter(dir, Options{})
	require.NoError(t, e.Export(rasters, scale))

	for _, r := range rasters {
		greyPath, colorPath := e.TexturePaths(r.Title)

		grey := decodePNG(t, greyPath)
		assert.Equal(t, image.Rect(0, 0, 480, 480), grey.Bounds())

		colored := decodePNG(t, colorPath)
		assert.Equal(t, image.Rect(0, 0, 480, 480), colored.Bounds())
	}

	_, err := os.Stat(filepath.Join(dir, PreviewFile))
	assert.NoError(t, err)
}

func TestGreyTextureOrientation(t *testing.T) {
	// Value grows with y, so the top row must be the brightest
	r := newRaster("band", models.FrequencyBand{Start: 0, End: 1}, 8, 8, 1, 1,
		func(x, y float64) float64 { return y })
	img := RenderGrey(r, models.ColorScale{Min: 0, Max: 1}).(*image.Gray16)

	assert.Equal(t, uint16(65535), img.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(0), img.Gray16At(0, 7).Y)
	assert.Equal(t, img.Gray16At(0, 3), img.Gray16At(7, 3))
}

func TestTextureFollowsAspectRatio(t *testing.T) {
	r := newRaster("band", models.FrequencyBand{Start: 0, End: 1}, 480, 600, 20, 10,
		func(x, y float64) float64 { return 0 })

	w, h := textureSize(r)
	assert.Equal(t, 600, w)
	assert.Equal(t, 300, h)
}

func TestDegenerateScaleStillRenders(t *testing.T) {
	dir := t.TempDir()
	r := newRaster("flat", models.FrequencyBand{Start: 0, End: 10}, 16, 16, 3, 3,
		func(x, y float64) float64 { return 4 })

	e := NewExporter(dir, Options{PreviewColumns: 2})
	require.NoError(t, e.Export([]*models.Raster{r}, models.ColorScale{Min: 4, Max: 4}))

	greyPath, colorPath := e.TexturePaths(r.Title)
	assert.FileExists(t, greyPath)
	assert.FileExists(t, colorPath)
	assert.FileExists(t, e.PreviewPath())
}

func TestExportRejectsEmptyScale(t *testing.T) {
	e := NewExporter(t.TempDir(), Options{})
	err := e.Export(nil, models.NewColorScale())
	assert.Error(t, err)
}

func TestOutputDirUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	e := NewExporter(missing, Options{})

	err := e.Prepare()
	assert.ErrorIs(t, err, models.ErrDirectoryUnavailable)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.ErrorIs(t, CheckOutputDir(file), models.ErrDirectoryUnavailable)
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"30.0 MHz - 100.0 MHz", "30.0 MHz - 100.0 MHz"},
		{"a/b", "a_b"},
		{`c:\d`, "c__d"},
		{"tab\there", "tab_here"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeTitle(tt.title))
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, Options{})
	rasters := []*models.Raster{
		newRaster("1.0 GHz - 1.1 GHz", models.FrequencyBand{Start: 1e9, End: 1.1e9}, 4, 4, 1, 1,
			func(x, y float64) float64 { return 0 }),
	}

	m := e.BuildManifest(rasters, models.ColorScale{Min: -3, Max: 7})
	m.Aggregation = "amplitude"
	m.StepHz = 50e6
	require.NoError(t, e.SaveManifest(m))

	loaded, err := LoadManifest(e.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
	require.Len(t, loaded.Bands, 1)
	assert.Equal(t, "grey/1.0 GHz - 1.1 GHz_grey.png", loaded.Bands[0].Grey)
	assert.Equal(t, "color/1.0 GHz - 1.1 GHz.png", loaded.Bands[0].Color)
}

func TestRasterStats(t *testing.T) {
	r := newRaster("band", models.FrequencyBand{Start: 0, End: 1}, 2, 2, 1, 1,
		func(x, y float64) float64 { return 2*x + 4*y })

	stats := RasterStats(r)
	assert.Equal(t, 0.0, stats.Min)
	assert.Equal(t, 6.0, stats.Max)
	assert.InDelta(t, 3.0, stats.Mean, 1e-12)
	// Sample standard deviation of {0, 2, 4, 6}
	assert.InDelta(t, 2.581988897, stats.StdDev, 1e-8)
}
