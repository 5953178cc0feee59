package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"heartdash/internal/errors"
)

// Summary describes the distribution of one plotted variable
type Summary struct {
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"` // beyond 1.5 IQR from the quartiles
}

// DropMissing returns the finite values and the number of values dropped
func DropMissing(values []float64) ([]float64, int) {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out, len(values) - len(out)
}

// Summarize computes descriptive statistics, ignoring missing values
func Summarize(values []float64) (Summary, error) {
	data, missing := DropMissing(values)
	summary := Summary{Count: len(data), Missing: missing}
	if len(data) == 0 {
		return summary, errors.InvalidInput("no values to summarize")
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}

	// Quartiles and sample deviation need at least two observations
	if len(data) < 2 {
		summary.Q1, summary.Q3 = summary.Median, summary.Median
		return summary, nil
	}

	if summary.StdDev, err = stats.StandardDeviationSample(data); err != nil {
		return summary, err
	}

	quartiles, err := stats.Quartile(data)
	if err != nil {
		return summary, err
	}
	summary.Q1, summary.Q3 = quartiles.Q1, quartiles.Q3
	summary.Outliers = countOutliers(data, summary.Q1, summary.Q3)
	summary.Skewness = calculateSkewness(data, summary.Mean, summary.StdDev)

	return summary, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// countOutliers counts values outside the 1.5 IQR fences
func countOutliers(data []float64, q1, q3 float64) int {
	iqr := q3 - q1
	lowerBound := q1 - 1.5*iqr
	upperBound := q3 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
