package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"heartdash/adapters/source"
	"heartdash/internal/migration"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <records_file> [table]")
	}

	databaseURL := os.Args[1]
	recordsFile := os.Args[2]
	table := "heart_failure_records"
	if len(os.Args) > 3 {
		table = os.Args[3]
	}

	log.Printf("Starting import of %s into table %s", recordsFile, table)

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	records, err := source.NewDataReader(recordsFile).ReadRecords(ctx)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", recordsFile, err)
	}

	runner := migration.NewRunner(table)
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration %s failed: %v", runner.Version(), err)
	}

	imported, err := runner.Import(ctx, db, records, true)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Migration complete: %d rows in %s", imported, table)
}
