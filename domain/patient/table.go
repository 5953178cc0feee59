package patient

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"heartdash/internal/errors"
)

// Column names of the heart-failure clinical records dataset.
const (
	ColAge                     = "age"
	ColAnaemia                 = "anaemia"
	ColCreatininePhosphokinase = "creatinine_phosphokinase"
	ColDiabetes                = "diabetes"
	ColEjectionFraction        = "ejection_fraction"
	ColHighBloodPressure       = "high_blood_pressure"
	ColPlatelets               = "platelets"
	ColSerumCreatinine         = "serum_creatinine"
	ColSerumSodium             = "serum_sodium"
	ColSex                     = "sex"
	ColSmoking                 = "smoking"
	ColTime                    = "time"
	ColDeathEvent              = "DEATH_EVENT"

	// ColCluster is derived on every render and never read from the source.
	ColCluster = "cluster"
)

// DatasetColumns lists the dataset columns in their canonical order.
var DatasetColumns = []string{
	ColAge,
	ColAnaemia,
	ColCreatininePhosphokinase,
	ColDiabetes,
	ColEjectionFraction,
	ColHighBloodPressure,
	ColPlatelets,
	ColSerumCreatinine,
	ColSerumSodium,
	ColSex,
	ColSmoking,
	ColTime,
	ColDeathEvent,
}

// Table is the in-memory patient-records table. It is immutable: derived
// columns produce a new Table.
type Table struct {
	df dataframe.DataFrame
}

// FromRecords builds a table from string records whose first row is the header.
// Column types are detected from the values.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) < 2 {
		return nil, errors.InvalidInput("table must have a header row and at least one data row")
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan", "<nil>"}),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "failed to build patient table")
	}

	return &Table{df: df}, nil
}

// Len returns the number of patients.
func (t *Table) Len() int {
	return t.df.Nrow()
}

// Columns returns the column names in source order.
func (t *Table) Columns() []string {
	return t.df.Names()
}

// Has reports whether the table carries the column.
func (t *Table) Has(col string) bool {
	for _, name := range t.df.Names() {
		if name == col {
			return true
		}
	}
	return false
}

// Require fails on the first column the table does not carry.
func (t *Table) Require(cols ...string) error {
	for _, col := range cols {
		if !t.Has(col) {
			return errors.MissingColumn(col)
		}
	}
	return nil
}

// Numeric returns the column as float64 values. Missing cells are NaN.
func (t *Table) Numeric(col string) ([]float64, error) {
	if !t.Has(col) {
		return nil, errors.MissingColumn(col)
	}

	s := t.df.Col(col)
	if s.Err != nil {
		return nil, errors.Wrapf(s.Err, "failed to read column %q", col)
	}

	switch s.Type() {
	case series.Int, series.Float:
		return s.Float(), nil
	default:
		return nil, errors.NonNumeric(col, "is not numeric")
	}
}

// Complete is Numeric for columns that must not contain missing values.
func (t *Table) Complete(col string) ([]float64, error) {
	values, err := t.Numeric(col)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NonNumeric(col, missingAt(i))
		}
	}
	return values, nil
}

// WithColumn returns a copy of the table with an integer column added or
// replaced.
func (t *Table) WithColumn(name string, values []int) (*Table, error) {
	if len(values) != t.Len() {
		return nil, errors.InvalidInput("derived column length does not match table length")
	}

	df := t.df.Copy().Mutate(series.New(values, series.Int, name))
	if df.Err != nil {
		return nil, errors.Wrapf(df.Err, "failed to add column %q", name)
	}
	return &Table{df: df}, nil
}

// Ints returns an integer column such as the derived cluster assignment.
func (t *Table) Ints(col string) ([]int, error) {
	if !t.Has(col) {
		return nil, errors.MissingColumn(col)
	}
	s := t.df.Col(col)
	if s.Type() != series.Int {
		return nil, errors.NonNumeric(col, "is not an integer column")
	}
	values, err := s.Int()
	if err != nil {
		return nil, errors.NonNumeric(col, "has missing values")
	}
	return values, nil
}

func missingAt(row int) string {
	return "has a missing or non-finite value at row " + strconv.Itoa(row+1)
}
