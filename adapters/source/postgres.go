package source

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"heartdash/domain/patient"
	"heartdash/internal/errors"
)

// OpenPostgres connects to PostgreSQL and verifies the connection
func OpenPostgres(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required for the postgres data source")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, errors.DataSource("failed to connect to database", err)
	}
	return db, nil
}

// PostgresReader reads the patient table from a PostgreSQL table
type PostgresReader struct {
	db    *sqlx.DB
	table string
}

// NewPostgresReader creates a reader over an open connection pool
func NewPostgresReader(db *sqlx.DB, table string) *PostgresReader {
	return &PostgresReader{db: db, table: table}
}

// Describe names the table for logs
func (r *PostgresReader) Describe() string {
	return "postgres:" + r.table
}

// Load selects every row of the table and builds the patient table
func (r *PostgresReader) Load(ctx context.Context) (*patient.Table, error) {
	start := time.Now()
	query := "SELECT * FROM " + pq.QuoteIdentifier(r.table)

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.DataSource(fmt.Sprintf("failed to query %s", r.table), err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, errors.DataSource(fmt.Sprintf("failed to read %s", r.table), err)
	}
	log.Printf("[PostgresReader] %s read in %.2fms (%d rows)", r.table, float64(time.Since(start).Nanoseconds())/1e6, len(records)-1)

	table, err := patient.FromRecords(records)
	if err != nil {
		return nil, errors.DataSource(fmt.Sprintf("failed to load %s", r.Describe()), err)
	}
	return table, nil
}

// rowScanner is the subset of *sqlx.Rows used to turn a result set into records
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	SliceScan() ([]interface{}, error)
	Err() error
}

func scanRecords(rows rowScanner) ([][]string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := [][]string{columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatCell(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// formatCell renders a driver value the way it would appear in the CSV export.
// NULL becomes an empty cell, which the table loads as missing.
func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
