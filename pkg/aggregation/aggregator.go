// Package aggregation reduces the spectrum of every probe position to one
// value per frequency band.
package aggregation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"emiheatmap/internal/models"
)

// Policy selects how the amplitude curve inside a band is reduced
type Policy string

const (
	// Amplitude integrates a over f and divides by π
	Amplitude Policy = "amplitude"

	// AmplitudeSquared integrates a² over f
	AmplitudeSquared Policy = "amplitude-squared"
)

// ParsePolicy validates a policy name
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(name); p {
	case Amplitude, AmplitudeSquared:
		return p, nil
	default:
		return "", fmt.Errorf("unknown aggregation %q (must be %q or %q)", name, Amplitude, AmplitudeSquared)
	}
}

// Series is the frequency-sorted spectrum recorded at one probe position
type Series struct {
	X, Y float64
	F    []float64
	A    []float64
}

func (s *Series) Len() int           { return len(s.F) }
func (s *Series) Less(i, j int) bool { return s.F[i] < s.F[j] }
func (s *Series) Swap(i, j int) {
	s.F[i], s.F[j] = s.F[j], s.F[i]
	s.A[i], s.A[j] = s.A[j], s.A[i]
}

// GroupByPosition splits the cloud into one series per (x, y), ordered by x
// then y
func GroupByPosition(cloud *models.PointCloud) []Series {
	type key struct{ x, y float64 }
	index := make(map[key]int)
	var series []Series

	for _, s := range cloud.Samples {
		k := key{s.X, s.Y}
		i, ok := index[k]
		if !ok {
			i = len(series)
			index[k] = i
			series = append(series, Series{X: s.X, Y: s.Y})
		}
		series[i].F = append(series[i].F, s.F)
		series[i].A = append(series[i].A, s.A)
	}

	for i := range series {
		sort.Stable(&series[i])
	}
	sort.Slice(series, func(i, j int) bool {
		if series[i].X != series[j].X {
			return series[i].X < series[j].X
		}
		return series[i].Y < series[j].Y
	})
	return series
}

// interior returns the part of the series strictly inside band
func (s *Series) interior(band models.FrequencyBand) (f, a []float64) {
	lo := sort.Search(len(s.F), func(i int) bool { return s.F[i] > band.Start })
	hi := sort.Search(len(s.F), func(i int) bool { return s.F[i] >= band.End })
	if hi < lo {
		hi = lo
	}
	return s.F[lo:hi], s.A[lo:hi]
}

// Reduce integrates one amplitude curve according to the policy
func (p Policy) Reduce(f, a []float64) float64 {
	if len(f) < 2 {
		// The trapezoid of a single point has no area
		return 0
	}
	switch p {
	case AmplitudeSquared:
		sq := make([]float64, len(a))
		floats.MulTo(sq, a, a)
		return integrate.Trapezoidal(f, sq)
	default:
		return integrate.Trapezoidal(f, a) / math.Pi
	}
}

// AggregateBand reduces every series to the value of one band.
// A position without any sample strictly inside the band is an error.
func AggregateBand(series []Series, band models.FrequencyBand, policy Policy) (models.BandSampleGrid, error) {
	grid := models.BandSampleGrid{
		Band:    band,
		Samples: make([]models.BandSample, 0, len(series)),
	}

	for i := range series {
		s := &series[i]
		f, a := s.interior(band)
		if len(f) == 0 {
			return models.BandSampleGrid{}, fmt.Errorf("%w: [%g Hz, %g Hz) at x=%g y=%g",
				models.ErrEmptyBand, band.Start, band.End, s.X, s.Y)
		}
		grid.Samples = append(grid.Samples, models.BandSample{X: s.X, Y: s.Y, A: policy.Reduce(f, a)})
	}

	return grid, nil
}

// Aggregate reduces the cloud for every band of a partition
func Aggregate(cloud *models.PointCloud, bands []models.FrequencyBand, policy Policy) ([]models.BandSampleGrid, error) {
	series := GroupByPosition(cloud)
	grids := make([]models.BandSampleGrid, len(bands))
	for i, band := range bands {
		grid, err := AggregateBand(series, band, policy)
		if err != nil {
			return nil, err
		}
		grids[i] = grid
	}
	return grids, nil
}
