// Package background removes a no-DUT noise floor measurement from a scan.
package background

import (
	"fmt"
	"math"

	"emiheatmap/internal/models"
)

// RoundFrequency rounds f to one decimal digit. Frequency bins of two
// independent sweeps rarely match exactly; this is the matching tolerance.
func RoundFrequency(f float64) float64 {
	return math.RoundToEven(f*10) / 10
}

// Subtract returns a copy of main with the background amplitude removed and
// every frequency rounded to one decimal digit.
//
// Rows are paired by position: both clouds must come from the same scan order
// and sweep, so after rounding row i of main and row i of back describe the
// same (x, y, f). Any deviation is reported as ErrBackgroundMismatch instead of
// subtracting misaligned rows.
func Subtract(main, back *models.PointCloud) (*models.PointCloud, error) {
	if main.Len() != back.Len() {
		return nil, fmt.Errorf("%w: %d main rows, %d background rows",
			models.ErrBackgroundMismatch, main.Len(), back.Len())
	}

	out := &models.PointCloud{Samples: make([]models.Sample, main.Len())}
	for i, m := range main.Samples {
		b := back.Samples[i]
		mf, bf := RoundFrequency(m.F), RoundFrequency(b.F)
		if m.X != b.X || m.Y != b.Y || mf != bf {
			return nil, fmt.Errorf("%w: row %d is (x=%g, y=%g, f=%g) in main but (x=%g, y=%g, f=%g) in background",
				models.ErrBackgroundMismatch, i, m.X, m.Y, mf, b.X, b.Y, bf)
		}
		out.Samples[i] = models.Sample{X: m.X, Y: m.Y, F: mf, A: m.A - b.A}
	}

	return out, nil
}
