package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	xs := []float64{50, 52, 450}
	assert.InDelta(t, 184.0, Mean(xs), 1e-9)
	assert.InDelta(t, 230.36, SampleStdDev(xs), 0.01)
	assert.InDelta(t, 188.09, PopulationStdDev(xs), 0.01)

	assert.Zero(t, SampleStdDev([]float64{42}))
	assert.Zero(t, Mean(nil))
	assert.Zero(t, PopulationStdDev(nil))
}

func TestMinMax(t *testing.T) {
	xs := []float64{3, -1, 7, 2}
	assert.Equal(t, 7.0, Max(xs))
	assert.Equal(t, -1.0, Min(xs))
	assert.Zero(t, Max(nil))
	assert.Zero(t, Min(nil))
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 1.006, want: 1.01},
		{in: 2.344, want: 2.34},
		{in: -2.346, want: -2.35},
		{in: 33.333333, want: 33.33},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "round(%v)", tt.in)
	}
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 50.0, PercentChange(200, 300), 1e-9)
	assert.InDelta(t, -25.0, PercentChange(400, 300), 1e-9)
	assert.Zero(t, PercentChange(0, 300))
}
