package bands

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emiheatmap/internal/models"
)

func TestPartitionDoublesFirstBoundary(t *testing.T) {
	bands, err := Partition(30e6, 1e9, 50e6)
	require.NoError(t, err)
	require.Len(t, bands, 19)

	assert.Equal(t, models.FrequencyBand{Start: 30e6, End: 100e6}, bands[0])
	assert.Equal(t, models.FrequencyBand{Start: 100e6, End: 150e6}, bands[1])
	assert.Equal(t, models.FrequencyBand{Start: 950e6, End: 1e9}, bands[18])
}

func TestPartitionTopRemainder(t *testing.T) {
	bands, err := Partition(30e6, 1.02e9, 50e6)
	require.NoError(t, err)
	require.Len(t, bands, 20)
	assert.Equal(t, models.FrequencyBand{Start: 1e9, End: 1.02e9}, bands[19])
}

func TestPartitionStartOnStepBoundary(t *testing.T) {
	// A start that is a multiple of the step yields one band over the whole span
	bands, err := Partition(0, 30, 15)
	require.NoError(t, err)
	assert.Equal(t, []models.FrequencyBand{{Start: 0, End: 30}}, bands)

	bands, err = Partition(100e6, 1e9, 50e6)
	require.NoError(t, err)
	assert.Equal(t, []models.FrequencyBand{{Start: 100e6, End: 1e9}}, bands)
}

func TestPartitionDoubledEdgeBeyondSpan(t *testing.T) {
	bands, err := Partition(30, 60, 50)
	require.NoError(t, err)
	assert.Equal(t, []models.FrequencyBand{{Start: 30, End: 100}}, bands)
}

func TestPartitionIsContiguousAndCovering(t *testing.T) {
	spans := []struct{ start, end, step float64 }{
		{30e6, 1e9, 50e6},
		{30e6, 1.02e9, 50e6},
		{9e3, 3e9, 100e6},
		{1.5, 97.25, 7},
		{0.1, 1, 0.1},
		{12, 13, 5},
		{150e3, 30e6, 1e6},
		{0, 30, 15},
	}

	for _, s := range spans {
		t.Run(fmt.Sprintf("%g-%g/%g", s.start, s.end, s.step), func(t *testing.T) {
			bands, err := Partition(s.start, s.end, s.step)
			require.NoError(t, err)
			require.NotEmpty(t, bands)

			assert.LessOrEqual(t, bands[0].Start, s.start)
			assert.GreaterOrEqual(t, bands[len(bands)-1].End, s.end)
			for i := 0; i+1 < len(bands); i++ {
				assert.Equal(t, bands[i].End, bands[i+1].Start, "gap or overlap after band %d", i)
				assert.Less(t, bands[i].Start, bands[i].End, "band %d is empty", i)
			}
		})
	}
}

func TestPartitionRejectsBadInput(t *testing.T) {
	_, err := Partition(0, 10, 0)
	assert.Error(t, err)
	_, err = Partition(0, 10, -1)
	assert.Error(t, err)
	_, err = Partition(10, 0, 1)
	assert.Error(t, err)
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{0, "0.0 Hz"},
		{999, "999.0 Hz"},
		{1e3, "1.0 kHz"},
		{150e3, "150.0 kHz"},
		{30e6, "30.0 MHz"},
		{80e6, "80.0 MHz"},
		{999.9e6, "999.9 MHz"},
		{1e9, "1.0 GHz"},
		{2.4e9, "2.4 GHz"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFrequency(tt.hz), "FormatFrequency(%g)", tt.hz)
	}
}

func TestTitles(t *testing.T) {
	titles := Titles([]models.FrequencyBand{{Start: 30e6, End: 80e6}, {Start: 80e6, End: 1.2e9}})
	assert.Equal(t, []string{"30.0 MHz - 80.0 MHz", "80.0 MHz - 1.2 GHz"}, titles)
}
