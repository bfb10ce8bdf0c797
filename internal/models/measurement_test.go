package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointCloudSpanAndCoordinates(t *testing.T) {
	pc := &PointCloud{Samples: []Sample{
		{X: 5, Y: 0, F: 10, A: 1},
		{X: 0, Y: 5, F: 30, A: 1},
		{X: 0, Y: 0, F: 20, A: 1},
		{X: 5, Y: 5, F: 0, A: 1},
		{X: 5, Y: 0, F: 20, A: 1},
	}}

	lo, hi := pc.FrequencySpan()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 30.0, hi)

	xs, ys := pc.Coordinates()
	assert.Equal(t, []float64{0, 5}, xs)
	assert.Equal(t, []float64{0, 5}, ys)
	assert.Equal(t, 5, pc.Len())
}

func TestEmptyPointCloud(t *testing.T) {
	var pc *PointCloud
	assert.Equal(t, 0, pc.Len())

	lo, hi := (&PointCloud{}).FrequencySpan()
	assert.True(t, math.IsNaN(lo))
	assert.True(t, math.IsNaN(hi))
}

func TestFrequencyBandInteriorExcludesEdges(t *testing.T) {
	b := FrequencyBand{Start: 10, End: 20}
	assert.False(t, b.Interior(10))
	assert.True(t, b.Interior(10.0001))
	assert.True(t, b.Interior(19.9999))
	assert.False(t, b.Interior(20))
	assert.Equal(t, 10.0, b.Width())
}

func TestColorScaleUpdate(t *testing.T) {
	scale := NewColorScale()
	assert.False(t, scale.Valid())

	scale.Update(3, math.NaN(), -2, 7)
	scale.Update()
	assert.True(t, scale.Valid())
	assert.Equal(t, -2.0, scale.Min)
	assert.Equal(t, 7.0, scale.Max)
}
