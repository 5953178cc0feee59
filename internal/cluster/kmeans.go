package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"heartdash/internal/errors"
)

// KMeansConfig controls one K-Means fit
type KMeansConfig struct {
	K       int     `json:"k" yaml:"k"`
	Seed    int64   `json:"seed" yaml:"seed"`
	MaxIter int     `json:"max_iter" yaml:"max_iter"`
	NInit   int     `json:"n_init" yaml:"n_init"`
	Tol     float64 `json:"tol" yaml:"tol"`
}

// DefaultKMeansConfig returns k=3 with seed 42
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:       3,
		Seed:    42,
		MaxIter: 300,
		NInit:   10,
		Tol:     1e-4,
	}
}

// Validate checks the configuration before any data is touched
func (c KMeansConfig) Validate() error {
	if c.K < 1 {
		return errors.InvalidInput(fmt.Sprintf("k must be at least 1, got %d", c.K))
	}
	if c.MaxIter < 1 {
		return errors.InvalidInput(fmt.Sprintf("max_iter must be at least 1, got %d", c.MaxIter))
	}
	if c.NInit < 1 {
		return errors.InvalidInput(fmt.Sprintf("n_init must be at least 1, got %d", c.NInit))
	}
	if c.Tol < 0 {
		return errors.InvalidInput(fmt.Sprintf("tol must not be negative, got %g", c.Tol))
	}
	return nil
}

// Model is a fitted K-Means partition
type Model struct {
	Centers    *mat.Dense
	Labels     []int
	Inertia    float64
	Iterations int
}

// FitKMeans partitions the rows of x into cfg.K clusters. Centres are seeded
// with greedy k-means++ and refined with Lloyd iterations; the best of
// cfg.NInit runs (lowest inertia) wins. A single generator seeded with
// cfg.Seed drives every run, so equal inputs give equal labels.
func FitKMeans(x mat.Matrix, cfg KMeansConfig) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	if rows < cfg.K {
		return nil, errors.InvalidInput(fmt.Sprintf("n_samples=%d should be >= k=%d", rows, cfg.K))
	}

	points := rowsOf(x)
	tol := absoluteTolerance(x, cfg.Tol)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var best *Model
	for run := 0; run < cfg.NInit; run++ {
		centers := seedPlusPlus(points, cfg.K, rng)
		model := lloyd(points, centers, cfg.MaxIter, tol)
		if best == nil || model.Inertia < best.Inertia {
			best = model
		}
	}
	return best, nil
}

func rowsOf(x mat.Matrix) [][]float64 {
	rows, cols := x.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		mat.Row(out[i], i, x)
	}
	return out
}

// absoluteTolerance scales tol by the mean per-feature variance of x
func absoluteTolerance(x mat.Matrix, tol float64) float64 {
	rows, cols := x.Dims()
	column := make([]float64, rows)
	total := 0.0
	for j := 0; j < cols; j++ {
		mat.Col(column, j, x)
		_, variance := stat.PopMeanVariance(column, nil)
		total += variance
	}
	return tol * total / float64(cols)
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// seedPlusPlus picks k initial centres. Each step samples 2+ln(k) candidates
// with probability proportional to squared distance and keeps the one that
// lowers the potential most. When every point coincides with a chosen centre
// the potential is zero and candidates are drawn uniformly.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	first := rng.Intn(n)
	centers = append(centers, append([]float64(nil), points[first]...))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, points[first])
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	candidateDist := make([]float64, n)
	bestDist := make([]float64, n)
	for len(centers) < k {
		bestCandidate := -1
		bestPotential := math.Inf(1)

		floats.CumSum(cumulative, closest)
		for t := 0; t < trials; t++ {
			var candidate int
			if potential > 0 {
				target := rng.Float64() * potential
				candidate = sort.SearchFloat64s(cumulative, target)
				if candidate >= n {
					candidate = n - 1
				}
			} else {
				candidate = rng.Intn(n)
			}

			for i, p := range points {
				candidateDist[i] = math.Min(closest[i], sqDist(p, points[candidate]))
			}
			if pot := floats.Sum(candidateDist); pot < bestPotential {
				bestPotential = pot
				bestCandidate = candidate
				copy(bestDist, candidateDist)
			}
		}

		centers = append(centers, append([]float64(nil), points[bestCandidate]...))
		copy(closest, bestDist)
		potential = bestPotential
	}
	return centers
}

// assign labels each point with its nearest centre; ties go to the lower index
func assign(points, centers [][]float64) ([]int, float64) {
	labels := make([]int, len(points))
	inertia := 0.0
	for i, p := range points {
		bestLabel := 0
		bestDist := math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestDist {
				bestDist = d
				bestLabel = c
			}
		}
		labels[i] = bestLabel
		inertia += bestDist
	}
	return labels, inertia
}

func lloyd(points, centers [][]float64, maxIter int, tol float64) *Model {
	k := len(centers)
	dims := len(points[0])

	var labels []int
	iterations := 0
	for iterations < maxIter {
		iterations++
		next, _ := assign(points, centers)

		updated := make([][]float64, k)
		counts := make([]int, k)
		for c := range updated {
			updated[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(updated[next[i]], p)
			counts[next[i]]++
		}
		for c := range updated {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), updated[c])
			}
		}
		relocateEmpty(points, centers, updated, next, counts)

		shift := 0.0
		for c := range centers {
			shift += sqDist(centers[c], updated[c])
		}
		centers = updated

		if labels != nil && equalLabels(labels, next) {
			labels = next
			break
		}
		labels = next
		if shift <= tol {
			break
		}
	}

	final, inertia := assign(points, centers)
	dense := mat.NewDense(k, dims, nil)
	for c, center := range centers {
		dense.SetRow(c, center)
	}
	return &Model{
		Centers:    dense,
		Labels:     final,
		Inertia:    inertia,
		Iterations: iterations,
	}
}

// relocateEmpty moves each empty cluster onto the point farthest from the
// centre it was assigned to, never reusing a point.
func relocateEmpty(points, old, updated [][]float64, labels, counts []int) {
	var empty []int
	for c, n := range counts {
		if n == 0 {
			empty = append(empty, c)
		}
	}
	if len(empty) == 0 {
		return
	}

	order := make([]int, len(points))
	dist := make([]float64, len(points))
	for i, p := range points {
		order[i] = i
		dist[i] = sqDist(p, old[labels[i]])
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] > dist[order[b]] })

	for idx, c := range empty {
		if idx >= len(order) {
			break
		}
		copy(updated[c], points[order[idx]])
	}
}

func equalLabels(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
