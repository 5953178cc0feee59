package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// constantTolerance absorbs the rounding left in the deviation of a column
// whose values are all equal.
const constantTolerance = 1e-12

// Scaler holds the per-feature location and scale used to standardize.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Standardize returns a copy of x with every column rescaled to zero mean and
// unit variance, using the population standard deviation. A constant column
// keeps scale 1, so its standardized values are all 0.
func Standardize(x mat.Matrix) (*mat.Dense, Scaler) {
	rows, cols := x.Dims()
	scaler := Scaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}

	z := mat.NewDense(rows, cols, nil)
	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, x)
		mean, std := stat.PopMeanStdDev(column, nil)
		constant := std <= constantTolerance*math.Max(math.Abs(mean), 1)
		if constant {
			std = 1
		}
		scaler.Mean[j] = mean
		scaler.Scale[j] = std

		if constant {
			continue // column stays zero
		}
		for i, v := range column {
			z.Set(i, j, (v-mean)/std)
		}
	}
	return z, scaler
}
