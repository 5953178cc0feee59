package migration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartdash/internal/errors"
)

func TestCreateRecordsTableSQL(t *testing.T) {
	sql := createRecordsTableSQL("heart_failure_records")

	assert.True(t, strings.HasPrefix(sql, `CREATE TABLE IF NOT EXISTS "heart_failure_records" (`))
	assert.Contains(t, sql, `"age" DOUBLE PRECISION`)
	assert.Contains(t, sql, `"DEATH_EVENT" INTEGER`)
	assert.Contains(t, sql, `"platelets" DOUBLE PRECISION`)
	assert.Equal(t, 7, strings.Count(sql, "DOUBLE PRECISION"))
	assert.Equal(t, 6, strings.Count(sql, "INTEGER"))
}

func TestInsertSQL(t *testing.T) {
	sql := insertSQL("records", []string{"age", "DEATH_EVENT"})
	assert.Equal(t, `INSERT INTO "records" ("age", "DEATH_EVENT") VALUES ($1, $2)`, sql)
}

func TestRowArgs(t *testing.T) {
	args := rowArgs([]string{"75", " ", "1.9"}, 4)
	assert.Equal(t, []interface{}{"75", nil, "1.9", nil}, args)
}

func TestImport_RejectsInput(t *testing.T) {
	r := NewRunner("records")

	_, err := r.Import(context.Background(), nil, [][]string{{"age"}}, false)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = r.Import(context.Background(), nil, [][]string{{"age", "weight"}, {"70", "80"}}, false)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, "1.0.0", r.Version())
}
