package models

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Sample is a single spectrum reading taken at one probe position
type Sample struct {
	// X and Y are the probe position in mm, taken from the file name
	X, Y float64

	// F is the frequency in Hz
	F float64

	// A is the measured amplitude in dB
	A float64
}

// PointCloud holds every sample of one scan.
// The (X, Y) pairs form a rectangular grid and every position carries the
// same frequency sweep.
type PointCloud struct {
	Samples []Sample
}

// Len returns the number of samples in the cloud
func (pc *PointCloud) Len() int {
	if pc == nil {
		return 0
	}
	return len(pc.Samples)
}

// FrequencySpan returns the lowest and highest frequency in the cloud
func (pc *PointCloud) FrequencySpan() (lo, hi float64) {
	if pc.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range pc.Samples {
		lo = math.Min(lo, s.F)
		hi = math.Max(hi, s.F)
	}
	return lo, hi
}

// Coordinates returns the sorted distinct X and Y positions of the scan grid
func (pc *PointCloud) Coordinates() (xs, ys []float64) {
	if pc.Len() == 0 {
		return nil, nil
	}
	xs = make([]float64, 0, len(pc.Samples))
	ys = make([]float64, 0, len(pc.Samples))
	for _, s := range pc.Samples {
		xs = append(xs, s.X)
		ys = append(ys, s.Y)
	}
	return Distinct(xs), Distinct(ys)
}

// Distinct sorts values in place and returns the unique ones
func Distinct(values []float64) []float64 {
	sort.Float64s(values)
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// FrequencyBand is the half-open frequency interval [Start, End) in Hz
type FrequencyBand struct {
	Start float64
	End   float64
}

// Width returns the width of the band in Hz
func (b FrequencyBand) Width() float64 {
	return b.End - b.Start
}

// Interior reports whether f lies strictly inside the band.
// Both edges are excluded.
func (b FrequencyBand) Interior(f float64) bool {
	return f > b.Start && f < b.End
}

// BandSample is the aggregated value of one band at one probe position
type BandSample struct {
	X, Y float64
	A    float64
}

// BandSampleGrid holds the aggregated values of one band over the scan grid
type BandSampleGrid struct {
	Band    FrequencyBand
	Samples []BandSample
}

// Values returns the aggregated values in sample order
func (g BandSampleGrid) Values() []float64 {
	out := make([]float64, len(g.Samples))
	for i, s := range g.Samples {
		out[i] = s.A
	}
	return out
}

// Raster is a band interpolated onto a dense regular mesh
type Raster struct {
	// Band is the frequency interval the raster was built from
	Band FrequencyBand

	// Title is the human readable label of the band
	Title string

	// Xs and Ys are the mesh coordinates in mm
	Xs []float64
	Ys []float64

	// Values has one row per Xs entry and one column per Ys entry
	Values *mat.Dense
}

// ColorScale is the shared value range used to colour every raster of a run
type ColorScale struct {
	Min float64
	Max float64
}

// NewColorScale returns an empty scale ready to be updated
func NewColorScale() ColorScale {
	return ColorScale{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Update widens the scale to include values. NaNs are ignored.
func (c *ColorScale) Update(values ...float64) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < c.Min {
			c.Min = v
		}
		if v > c.Max {
			c.Max = v
		}
	}
}

// Valid reports whether the scale has seen at least one value
func (c ColorScale) Valid() bool {
	return !math.IsInf(c.Min, 0) && !math.IsInf(c.Max, 0) && c.Min <= c.Max
}
