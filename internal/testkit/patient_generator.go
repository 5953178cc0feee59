package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"heartdash/domain/patient"
)

// PatientGeneratorConfig configures the synthetic heart-failure record generator
type PatientGeneratorConfig struct {
	Rows   int   `json:"rows"`
	Deaths int   `json:"deaths"` // exact number of rows with DEATH_EVENT=1
	Seed   int64 `json:"seed"`
}

// DefaultPatientConfig matches the shape of the clinical records dataset:
// 299 patients, 96 of whom died during follow-up.
func DefaultPatientConfig() PatientGeneratorConfig {
	return PatientGeneratorConfig{
		Rows:   299,
		Deaths: 96,
		Seed:   42,
	}
}

// PatientDataGenerator generates plausible heart-failure clinical records
type PatientDataGenerator struct {
	config PatientGeneratorConfig
	rng    *rand.Rand
}

// NewPatientDataGenerator creates a new generator seeded from the config
func NewPatientDataGenerator(config PatientGeneratorConfig) *PatientDataGenerator {
	return &PatientDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateRecords returns a header row followed by one record per patient
func (g *PatientDataGenerator) GenerateRecords() ([][]string, error) {
	if g.config.Rows <= 0 {
		return nil, fmt.Errorf("rows must be positive, got %d", g.config.Rows)
	}
	if g.config.Deaths < 0 || g.config.Deaths > g.config.Rows {
		return nil, fmt.Errorf("deaths must be within [0, %d], got %d", g.config.Rows, g.config.Deaths)
	}

	died := make([]bool, g.config.Rows)
	for _, idx := range g.rng.Perm(g.config.Rows)[:g.config.Deaths] {
		died[idx] = true
	}

	records := make([][]string, 0, g.config.Rows+1)
	records = append(records, append([]string(nil), patient.DatasetColumns...))
	for i := 0; i < g.config.Rows; i++ {
		records = append(records, g.patientRecord(died[i]))
	}
	return records, nil
}

// patientRecord draws one row. Patients who died skew older, with lower
// ejection fraction, higher creatinine and shorter follow-up.
func (g *PatientDataGenerator) patientRecord(died bool) []string {
	shift := 0.0
	if died {
		shift = 1.0
	}

	age := g.clamp(math.Round(60+5*shift+g.rng.NormFloat64()*11.5), 40, 95)
	ejection := g.clamp(math.Round(40-6*shift+g.rng.NormFloat64()*11), 14, 80)
	creatinine := g.clamp(math.Exp(0.15+0.35*shift+g.rng.NormFloat64()*0.4), 0.5, 9.4)
	platelets := g.clamp(263000+g.rng.NormFloat64()*97000, 25100, 850000)
	sodium := g.clamp(math.Round(137-1.5*shift+g.rng.NormFloat64()*4.2), 113, 148)
	cpk := g.clamp(math.Round(math.Exp(5.8+g.rng.NormFloat64()*0.9)), 23, 7861)
	followUp := g.clamp(math.Round(150-80*shift+g.rng.NormFloat64()*60), 4, 285)

	return []string{
		strconv.FormatFloat(age, 'f', 0, 64),
		g.flag(0.43),
		strconv.FormatFloat(cpk, 'f', 0, 64),
		g.flag(0.42),
		strconv.FormatFloat(ejection, 'f', 0, 64),
		g.flag(0.35),
		strconv.FormatFloat(platelets, 'f', 2, 64),
		strconv.FormatFloat(creatinine, 'f', 2, 64),
		strconv.FormatFloat(sodium, 'f', 0, 64),
		g.flag(0.65),
		g.flag(0.32),
		strconv.FormatFloat(followUp, 'f', 0, 64),
		boolFlag(died),
	}
}

// GenerateTable generates records and loads them into a patient table
func (g *PatientDataGenerator) GenerateTable() (*patient.Table, error) {
	records, err := g.GenerateRecords()
	if err != nil {
		return nil, err
	}
	return patient.FromRecords(records)
}

// WriteCSV writes generated records in CSV form
func (g *PatientDataGenerator) WriteCSV(w io.Writer) error {
	records, err := g.GenerateRecords()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// ConstantRecords returns rows in which every measurement is identical, the
// degenerate input for standardization.
func ConstantRecords(rows int) [][]string {
	records := [][]string{append([]string(nil), patient.DatasetColumns...)}
	for i := 0; i < rows; i++ {
		records = append(records, []string{
			"65", "0", "250", "0", "38", "0", "262000.00", "1.10", "137", "1", "0", "120", strconv.Itoa(i % 2),
		})
	}
	return records
}

func (g *PatientDataGenerator) flag(p float64) string {
	return boolFlag(g.rng.Float64() < p)
}

func (g *PatientDataGenerator) clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
