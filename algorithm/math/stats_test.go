package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanStdDevMatchesTextbook(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean, std := MeanStdDev(x, true)
	assert.InDelta(t, 5, mean, 1e-12)
	assert.InDelta(t, 2, std, 1e-12)

	_, sample := MeanStdDev(x, false)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sample, 1e-12)
}

func TestMeanStdDevHugeValuesStayFinite(t *testing.T) {
	x := []float64{1e200, 3e200, 5e200, math.MaxFloat64}

	mean, std := MeanStdDev(x, false)
	assert.False(t, math.IsNaN(mean) || math.IsInf(mean, 0))
	assert.False(t, math.IsNaN(std) || math.IsInf(std, 0))
	assert.Greater(t, std, 0.0)

	mean, std = MeanStdDev([]float64{1e200, 3e200}, true)
	assert.InEpsilon(t, 2e200, mean, 1e-12)
	assert.InEpsilon(t, 1e200, std, 1e-12)
}

func TestMeanStdDevDegenerateInputs(t *testing.T) {
	mean, std := MeanStdDev([]float64{7}, false)
	assert.InDelta(t, 7, mean, 0)
	assert.Zero(t, std)

	mean, std = MeanStdDev([]float64{0, 0, 0}, false)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, _ = MeanStdDev(nil, false)
	assert.True(t, math.IsNaN(mean))
}
