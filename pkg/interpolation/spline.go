package interpolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"emiheatmap/internal/models"
)

// DefaultUpsampleFactor is how many mesh points the raster gets per scan
// position along each axis
const DefaultUpsampleFactor = 120

// MinNodes is the number of distinct positions a cubic fit needs per axis
const MinNodes = 4

// Surface is a bicubic tensor-product spline through the values of one band on
// the rectangular scan grid.
//
// Both directions use not-a-knot cubic splines, which pass through every node
// and reproduce cubic polynomials exactly.
type Surface struct {
	xs, ys []float64

	// values has one row per x node and one column per y node
	values *mat.Dense

	// rows holds the spline along y through each row of values
	rows []interp.NotAKnotCubic
}

// NewSurface pivots grid onto its x/y axes and fits the spline.
// Every (x, y) combination must be present exactly once.
func NewSurface(grid models.BandSampleGrid) (*Surface, error) {
	xs := make([]float64, len(grid.Samples))
	ys := make([]float64, len(grid.Samples))
	for i, s := range grid.Samples {
		xs[i], ys[i] = s.X, s.Y
	}
	xs, ys = models.Distinct(xs), models.Distinct(ys)

	if len(xs) < MinNodes || len(ys) < MinNodes {
		return nil, fmt.Errorf("%w: %d x %d positions, need at least %d along each axis",
			models.ErrInsufficientGrid, len(xs), len(ys), MinNodes)
	}
	if len(grid.Samples) != len(xs)*len(ys) {
		return nil, fmt.Errorf("%w: %d samples do not form a %d x %d grid",
			models.ErrInsufficientGrid, len(grid.Samples), len(xs), len(ys))
	}

	xIndex := indexOf(xs)
	yIndex := indexOf(ys)
	values := mat.NewDense(len(xs), len(ys), nil)
	seen := make([]bool, len(xs)*len(ys))
	for _, s := range grid.Samples {
		i, j := xIndex[s.X], yIndex[s.Y]
		if seen[i*len(ys)+j] {
			return nil, fmt.Errorf("%w: duplicate sample at x=%g y=%g", models.ErrInsufficientGrid, s.X, s.Y)
		}
		seen[i*len(ys)+j] = true
		values.Set(i, j, s.A)
	}

	surface := &Surface{
		xs:     xs,
		ys:     ys,
		values: values,
		rows:   make([]interp.NotAKnotCubic, len(xs)),
	}
	for i := range xs {
		if err := surface.rows[i].Fit(ys, values.RawRowView(i)); err != nil {
			return nil, fmt.Errorf("fitting spline along y at x=%g: %w", xs[i], err)
		}
	}

	return surface, nil
}

// indexOf maps each coordinate to its position on the axis
func indexOf(axis []float64) map[float64]int {
	m := make(map[float64]int, len(axis))
	for i, v := range axis {
		m[v] = i
	}
	return m
}

// Bounds returns the extent of the scan grid
func (s *Surface) Bounds() (xMin, xMax, yMin, yMax float64) {
	return s.xs[0], s.xs[len(s.xs)-1], s.ys[0], s.ys[len(s.ys)-1]
}

// At evaluates the surface at one point
func (s *Surface) At(x, y float64) float64 {
	column := make([]float64, len(s.xs))
	for i := range s.rows {
		column[i] = s.rows[i].Predict(y)
	}

	var across interp.NotAKnotCubic
	if err := across.Fit(s.xs, column); err != nil {
		return math.NaN()
	}
	return across.Predict(x)
}

// Evaluate samples the surface on the mesh meshX × meshY. The result has one
// row per meshX entry and one column per meshY entry.
func (s *Surface) Evaluate(meshX, meshY []float64) (*mat.Dense, error) {
	// Along y first: one row per x node
	partial := mat.NewDense(len(s.xs), len(meshY), nil)
	for i := range s.rows {
		row := partial.RawRowView(i)
		for j, y := range meshY {
			row[j] = s.rows[i].Predict(y)
		}
	}

	// Then along x for every mesh column
	out := mat.NewDense(len(meshX), len(meshY), nil)
	column := make([]float64, len(s.xs))
	var across interp.NotAKnotCubic
	for j := range meshY {
		mat.Col(column, j, partial)
		if err := across.Fit(s.xs, column); err != nil {
			return nil, fmt.Errorf("fitting spline along x at y=%g: %w", meshY[j], err)
		}
		for i, x := range meshX {
			out.Set(i, j, across.Predict(x))
		}
	}

	return out, nil
}

// Mesh returns n evenly spaced points from lo to hi inclusive
func Mesh(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}

// Interpolate turns the sparse band values into a dense raster covering the
// scan area. Each axis gets factor mesh points per scan position.
func Interpolate(grid models.BandSampleGrid, factor int) (*models.Raster, error) {
	if factor < 1 {
		return nil, fmt.Errorf("upsample factor must be at least 1, got %d", factor)
	}

	surface, err := NewSurface(grid)
	if err != nil {
		return nil, err
	}

	xMin, xMax, yMin, yMax := surface.Bounds()
	meshX := Mesh(xMin, xMax, len(surface.xs)*factor)
	meshY := Mesh(yMin, yMax, len(surface.ys)*factor)

	values, err := surface.Evaluate(meshX, meshY)
	if err != nil {
		return nil, err
	}

	return &models.Raster{
		Band:   grid.Band,
		Xs:     meshX,
		Ys:     meshY,
		Values: values,
	}, nil
}

// ColorScaleOf returns the global minimum and maximum over all rasters
func ColorScaleOf(rasters []*models.Raster) models.ColorScale {
	scale := models.NewColorScale()
	for _, r := range rasters {
		if r == nil || r.Values == nil {
			continue
		}
		raw := r.Values.RawMatrix()
		for i := 0; i < raw.Rows; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
			scale.Update(floats.Min(row), floats.Max(row))
		}
	}
	return scale
}
