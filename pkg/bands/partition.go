// Package bands splits the observed frequency span into the bands that get one
// heatmap each, and labels them.
package bands

import (
	"fmt"
	"math"

	"emiheatmap/internal/models"
)

// DefaultStep is the default band width in Hz
const DefaultStep = 50e6

// Partition splits [start, end] into contiguous bands of width step.
//
// When start is not a multiple of step, the first band runs from start to
// twice the next step boundary (ceil(start/step)*step*2), absorbing the low end
// remainder. When start is a multiple of step, the first band covers the whole
// span. Full-width bands follow the first one and a shorter band takes any
// remainder at the top.
func Partition(start, end, step float64) ([]models.FrequencyBand, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("band step must be a positive finite number, got %g", step)
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return nil, fmt.Errorf("frequency span [%g, %g] is not finite", start, end)
	}
	if end < start {
		return nil, fmt.Errorf("frequency span [%g, %g] is inverted", start, end)
	}

	end1 := end
	if math.Mod(start, step) != 0 {
		end1 = math.Ceil(start/step) * step * 2
	}
	bands := []models.FrequencyBand{{Start: start, End: end1}}

	// The doubled edge may already cover the whole span
	if end1 >= end {
		return bands, nil
	}

	n := floorDiv(end-end1, step)
	for i := 0; i < int(n); i++ {
		bands = append(bands, models.FrequencyBand{
			Start: end1 + float64(i)*step,
			End:   end1 + float64(i+1)*step,
		})
	}
	if last := end1 + n*step; last < end {
		bands = append(bands, models.FrequencyBand{Start: last, End: end})
	}

	return bands, nil
}

// floorDiv is floored float division computed from the remainder, so that
// a/b landing just above an integer does not gain an extra band
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div--
	}
	if div == 0 {
		return 0
	}
	q := math.Floor(div)
	if div-q > 0.5 {
		q++
	}
	return q
}

// FormatFrequency renders hz with one decimal digit in Hz, kHz, MHz or GHz
func FormatFrequency(hz float64) string {
	switch {
	case hz >= 1e9:
		return fmt.Sprintf("%.1f GHz", hz/1e9)
	case hz >= 1e6:
		return fmt.Sprintf("%.1f MHz", hz/1e6)
	case hz >= 1e3:
		return fmt.Sprintf("%.1f kHz", hz/1e3)
	default:
		return fmt.Sprintf("%.1f Hz", hz)
	}
}

// Title returns the human readable label of a band, e.g. "30.0 MHz - 80.0 MHz"
func Title(band models.FrequencyBand) string {
	return FormatFrequency(band.Start) + " - " + FormatFrequency(band.End)
}

// Titles labels every band of a partition
func Titles(bands []models.FrequencyBand) []string {
	titles := make([]string, len(bands))
	for i, b := range bands {
		titles[i] = Title(b)
	}
	return titles
}
