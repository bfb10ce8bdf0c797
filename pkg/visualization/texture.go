package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"emiheatmap/internal/models"
)

// newColorMap returns the color map used for color textures, spanning scale
func newColorMap(scale models.ColorScale) (palette.ColorMap, error) {
	lo, hi := displayRange(scale)
	cm := moreland.Kindlmann()
	cm.SetMin(lo)
	cm.SetMax(hi)
	if _, err := cm.At(lo); err != nil {
		return nil, fmt.Errorf("invalid color range [%g, %g]: %w", lo, hi, err)
	}
	return cm, nil
}

// textureSize returns the pixel size of a raster's texture. The longer side
// keeps the mesh resolution and the shorter one follows the physical aspect
// ratio of the scanned area.
func textureSize(r *models.Raster) (w, h int) {
	nx, ny := len(r.Xs), len(r.Ys)
	ex := r.Xs[nx-1] - r.Xs[0]
	ey := r.Ys[ny-1] - r.Ys[0]
	n := max(nx, ny)

	switch {
	case ex <= 0 || ey <= 0:
		return nx, ny
	case ex >= ey:
		return n, max(1, int(math.Round(float64(n)*ey/ex)))
	default:
		return max(1, int(math.Round(float64(n)*ex/ey))), n
	}
}

// meshIndex returns the mesh index nearest to the centre of pixel p of n
func meshIndex(p, n, meshLen int) int {
	if n <= 1 || meshLen <= 1 {
		return 0
	}
	i := int(math.Round((float64(p) + 0.5) / float64(n) * float64(meshLen-1)))
	return min(max(i, 0), meshLen-1)
}

// forEachPixel calls fn with every texture pixel and the raster value it shows.
// X grows to the right and Y grows upwards, so image row 0 is the largest Y.
func forEachPixel(r *models.Raster, fn func(px, py int, v float64)) (w, h int) {
	w, h = textureSize(r)
	nx, ny := len(r.Xs), len(r.Ys)
	for py := 0; py < h; py++ {
		j := ny - 1 - meshIndex(py, h, ny)
		for px := 0; px < w; px++ {
			i := meshIndex(px, w, nx)
			fn(px, py, r.Values.At(i, j))
		}
	}
	return w, h
}

// RenderGrey renders a raster as a 16-bit greyscale texture normalised to scale
func RenderGrey(r *models.Raster, scale models.ColorScale) image.Image {
	lo, hi := displayRange(scale)
	w, h := textureSize(r)
	img := image.NewGray16(image.Rect(0, 0, w, h))
	forEachPixel(r, func(px, py int, v float64) {
		value := uint16(math.Max(0, math.Min(65535, normalize(v, lo, hi)*65535)))
		img.SetGray16(px, py, color.Gray16{Y: value})
	})
	return img
}

// RenderColor renders a raster through a color map
func RenderColor(r *models.Raster, cm palette.ColorMap) (image.Image, error) {
	lo, hi := cm.Min(), cm.Max()
	w, h := textureSize(r)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	var err error
	forEachPixel(r, func(px, py int, v float64) {
		if err != nil {
			return
		}
		c, cerr := cm.At(math.Max(lo, math.Min(hi, v)))
		if cerr != nil {
			err = cerr
			return
		}
		img.Set(px, py, c)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}
