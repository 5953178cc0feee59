package migration

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"heartdash/domain/patient"
	"heartdash/internal/errors"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the patient-records table read by the postgres
// source and loads records into it.
type MigrationRunner struct {
	version string
	table   string
}

// NewRunner creates a new migration runner for the given table
func NewRunner(table string) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		table:   table,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, createRecordsTableSQL(r.table)); err != nil {
		return errors.DataSource(fmt.Sprintf("failed to create %s table", r.table), err)
	}
	return nil
}

// Import inserts string records (header first) in one transaction. Empty
// cells become NULL. With replace set the table is emptied first.
func (r *MigrationRunner) Import(ctx context.Context, db *sqlx.DB, records [][]string, replace bool) (int, error) {
	if len(records) < 2 {
		return 0, errors.InvalidInput("nothing to import: need a header and at least one row")
	}
	header := records[0]
	for _, col := range header {
		if !knownColumn(col) {
			return 0, errors.InvalidInput(fmt.Sprintf("column %q is not part of the patient records table", col))
		}
	}

	start := time.Now()
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.DataSource("failed to begin import", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(r.table)); err != nil {
			return 0, errors.DataSource(fmt.Sprintf("failed to empty %s", r.table), err)
		}
	}

	stmt, err := tx.PreparexContext(ctx, insertSQL(r.table, header))
	if err != nil {
		return 0, errors.DataSource("failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, row := range records[1:] {
		if _, err := stmt.ExecContext(ctx, rowArgs(row, len(header))...); err != nil {
			return 0, errors.DataSource(fmt.Sprintf("failed to insert row %d", i+1), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.DataSource("failed to commit import", err)
	}

	imported := len(records) - 1
	log.Printf("[Migration] Imported %d rows into %s in %.2fms", imported, r.table, float64(time.Since(start).Nanoseconds())/1e6)
	return imported, nil
}

// flagColumns are stored as integers, every other measurement as double
var flagColumns = map[string]bool{
	patient.ColAnaemia:           true,
	patient.ColDiabetes:          true,
	patient.ColHighBloodPressure: true,
	patient.ColSex:               true,
	patient.ColSmoking:           true,
	patient.ColDeathEvent:        true,
}

func knownColumn(col string) bool {
	for _, c := range patient.DatasetColumns {
		if c == col {
			return true
		}
	}
	return false
}

func createRecordsTableSQL(table string) string {
	cols := make([]string, len(patient.DatasetColumns))
	for i, col := range patient.DatasetColumns {
		kind := "DOUBLE PRECISION"
		if flagColumns[col] {
			kind = "INTEGER"
		}
		cols[i] = pq.QuoteIdentifier(col) + " " + kind
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", pq.QuoteIdentifier(table), strings.Join(cols, ",\n\t"))
}

func insertSQL(table string, header []string) string {
	cols := make([]string, len(header))
	params := make([]string, len(header))
	for i, col := range header {
		cols[i] = pq.QuoteIdentifier(col)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func rowArgs(row []string, width int) []interface{} {
	args := make([]interface{}, width)
	for i := range args {
		if i < len(row) && strings.TrimSpace(row[i]) != "" {
			args[i] = strings.TrimSpace(row[i])
		}
	}
	return args
}
