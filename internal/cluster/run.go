package cluster

import (
	"fmt"
	"log"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"heartdash/domain/patient"
	"heartdash/internal/errors"
)

// DefaultFeatures are the clinical measurements the patient profiles are built from.
var DefaultFeatures = []string{
	patient.ColSerumCreatinine,
	patient.ColEjectionFraction,
	patient.ColPlatelets,
}

// Result is one clustering pass over the current table. Label identity is
// whatever K-Means produced; it is not remapped to a canonical order.
type Result struct {
	Features   []string       `json:"features"`
	K          int            `json:"k"`
	Seed       int64          `json:"seed"`
	Labels     []int          `json:"-"`
	Counts     []int          `json:"counts"`
	Centers    [][]float64    `json:"centers"`
	Inertia    float64        `json:"inertia"`
	Iterations int            `json:"iterations"`
	Scaler     Scaler         `json:"scaler"`
	Table      *patient.Table `json:"-"`
}

// Total is the number of clustered patients.
func (r *Result) Total() int {
	return len(r.Labels)
}

// Run standardizes the feature columns, fits K-Means and returns the table
// with the derived cluster column.
func Run(table *patient.Table, features []string, cfg KMeansConfig) (*Result, error) {
	if len(features) == 0 {
		return nil, errors.InvalidInput("clustering needs at least one feature")
	}
	if err := table.Require(features...); err != nil {
		return nil, errors.Wrap(err, "clustering input is not usable")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := table.Len()
	if n < cfg.K {
		return nil, errors.InvalidInput(fmt.Sprintf("n_samples=%d should be >= k=%d", n, cfg.K))
	}

	x := mat.NewDense(n, len(features), nil)
	for j, feature := range features {
		values, err := table.Complete(feature)
		if err != nil {
			return nil, errors.Wrap(err, "clustering input is not usable")
		}
		x.SetCol(j, values)
	}

	z, scaler := Standardize(x)
	model, err := FitKMeans(z, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "k-means failed")
	}

	clustered, err := table.WithColumn(patient.ColCluster, model.Labels)
	if err != nil {
		return nil, err
	}

	counts := make([]int, cfg.K)
	for _, label := range model.Labels {
		counts[label]++
	}

	centers := make([][]float64, cfg.K)
	for c := range centers {
		centers[c] = mat.Row(nil, c, model.Centers)
	}

	log.Printf("[Cluster] k=%d seed=%d n=%d fitted in %.2fms (%d iterations, inertia %.3f, counts %v)",
		cfg.K, cfg.Seed, n, float64(time.Since(start).Nanoseconds())/1e6, model.Iterations, model.Inertia, counts)

	return &Result{
		Features:   append([]string(nil), features...),
		K:          cfg.K,
		Seed:       cfg.Seed,
		Labels:     model.Labels,
		Counts:     counts,
		Centers:    centers,
		Inertia:    model.Inertia,
		Iterations: model.Iterations,
		Scaler:     scaler,
		Table:      clustered,
	}, nil
}

// Profile summarizes one cluster in raw clinical units
type Profile struct {
	Cluster      int       `json:"cluster"`
	Patients     int       `json:"patients"`
	Share        float64   `json:"share"`
	FeatureMeans []float64 `json:"feature_means"`
	DeathRate    *float64  `json:"death_rate,omitempty"`
}

// Profiles returns one profile per cluster index, ascending. The death rate is
// only reported when the table carries the outcome flag.
func (r *Result) Profiles() ([]Profile, error) {
	raw := make([][]float64, len(r.Features))
	for j, feature := range r.Features {
		values, err := r.Table.Complete(feature)
		if err != nil {
			return nil, err
		}
		raw[j] = values
	}

	var outcome []float64
	if r.Table.Has(patient.ColDeathEvent) {
		if values, err := r.Table.Complete(patient.ColDeathEvent); err == nil {
			outcome = values
		} else {
			log.Printf("[Cluster] Outcome column unusable for profiles: %v", err)
		}
	}

	profiles := make([]Profile, r.K)
	for c := range profiles {
		profiles[c] = Profile{
			Cluster:      c,
			Patients:     r.Counts[c],
			FeatureMeans: make([]float64, len(r.Features)),
		}
		if r.Total() > 0 {
			profiles[c].Share = float64(r.Counts[c]) / float64(r.Total())
		}
		if r.Counts[c] == 0 {
			continue
		}

		for j := range r.Features {
			mean, err := stats.Mean(members(raw[j], r.Labels, c))
			if err != nil {
				return nil, errors.Wrapf(err, "failed to profile cluster %d", c)
			}
			profiles[c].FeatureMeans[j] = mean
		}
		if outcome != nil {
			rate, err := stats.Mean(members(outcome, r.Labels, c))
			if err != nil {
				return nil, errors.Wrapf(err, "failed to profile cluster %d", c)
			}
			profiles[c].DeathRate = &rate
		}
	}
	return profiles, nil
}

func members(values []float64, labels []int, cluster int) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(values))
	for i, label := range labels {
		if label == cluster {
			out = append(out, values[i])
		}
	}
	return out
}
