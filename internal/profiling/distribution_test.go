package profiling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 100, math.NaN()}

	summary, err := Summarize(values)
	require.NoError(t, err)

	assert.Equal(t, 9, summary.Count)
	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, 1.0, summary.Min)
	assert.Equal(t, 100.0, summary.Max)
	assert.Equal(t, 5.0, summary.Median)
	assert.Equal(t, 1, summary.Outliers, "100 lies beyond the upper fence")
	assert.Greater(t, summary.Skewness, 0.0)
	assert.Greater(t, summary.Q3, summary.Q1)
}

func TestSummarize_Constant(t *testing.T) {
	summary, err := Summarize([]float64{38, 38, 38, 38})
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.StdDev)
	assert.Equal(t, 0.0, summary.Skewness)
	assert.Equal(t, 0, summary.Outliers)
}

func TestSummarize_SingleValue(t *testing.T) {
	summary, err := Summarize([]float64{65})
	require.NoError(t, err)

	assert.Equal(t, 65.0, summary.Q1)
	assert.Equal(t, 65.0, summary.Q3)
	assert.Equal(t, 0.0, summary.StdDev)
}

func TestSummarize_NoValues(t *testing.T) {
	_, err := Summarize([]float64{math.NaN()})
	assert.Error(t, err)
}

func TestDropMissing(t *testing.T) {
	kept, dropped := DropMissing([]float64{1, math.NaN(), math.Inf(1), 2})
	assert.Equal(t, []float64{1, 2}, kept)
	assert.Equal(t, 2, dropped)
}
