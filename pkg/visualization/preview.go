package visualization

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"emiheatmap/internal/models"
)

// panelSize is the edge length of one preview panel
const panelSize = 4 * vg.Inch

// rasterGrid exposes a raster as a plotter.GridXYZ
type rasterGrid struct {
	r *models.Raster
}

func (g rasterGrid) Dims() (c, r int) { return len(g.r.Xs), len(g.r.Ys) }

func (g rasterGrid) Z(c, r int) float64 { return g.r.Values.At(c, r) }

func (g rasterGrid) X(c int) float64 { return g.r.Xs[c] }

func (g rasterGrid) Y(r int) float64 { return g.r.Ys[r] }

// SavePreview draws every raster as a titled heat map panel, followed by a
// color bar panel, in rows of PreviewColumns panels and writes the figure
// to out.png
func (e *Exporter) SavePreview(rasters []*models.Raster, scale models.ColorScale) error {
	if len(rasters) == 0 {
		return fmt.Errorf("no rasters to preview")
	}

	cm, err := newColorMap(scale)
	if err != nil {
		return err
	}
	lo, hi := cm.Min(), cm.Max()
	pal := cm.Palette(256)

	cols := e.opts.PreviewColumns
	panels := len(rasters) + 1
	rows := (panels + cols - 1) / cols

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			idx := j*cols + i
			p := plot.New()

			switch {
			case idx < len(rasters):
				r := rasters[idx]
				hm := plotter.NewHeatMap(rasterGrid{r: r}, pal)
				hm.Min, hm.Max = lo, hi
				hm.Rasterized = true
				p.Add(hm)
				p.Title.Text = r.Title
				p.X.Label.Text = "x (mm)"
				p.Y.Label.Text = "y (mm)"

			case idx == len(rasters):
				p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
				p.Title.Text = "scale"
				p.HideX()

			default:
				p.HideAxes()
			}
			plots[j][i] = p
		}
	}

	img := vgimg.New(vg.Length(cols)*panelSize, vg.Length(rows)*panelSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	file, err := os.Create(e.PreviewPath())
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return file.Close()
}
