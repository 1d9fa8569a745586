package models

import (
	"fmt"
	"io"
	"sort"

	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Query generation and column report.

GenerateQueries writes typed query helpers for every blog model into outPath
(run with `blogicum gen models`). ColumnReport compares the live schema with
the models and lists columns present in the database but unknown to Go:

	=== COLUMN MISMATCH REPORT ===
	--- Table: posts ---
	Found 1 columns not accounted for in model:
	  - legacy_slug

	=== SUMMARY ===
	Total mismatched columns across all tables: 1
*/

// GenerateQueries runs gorm/gen for the blog models.
func GenerateQueries(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()
	return nil
}

// ColumnReport writes the mismatch report to w and returns the number of
// unaccounted columns. Tables that do not exist yet are reported and skipped.
func ColumnReport(db *gorm.DB, w io.Writer) (int, error) {
	fmt.Fprintln(w, "=== COLUMN MISMATCH REPORT ===")

	total := 0
	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return total, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table
		fmt.Fprintf(w, "--- Table: %s ---\n", table)

		if !db.Migrator().HasTable(model) {
			fmt.Fprintln(w, "Table does not exist yet (will be created during migration)")
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return total, fmt.Errorf("columns of %s: %w", table, err)
		}
		dbColumns := make([]string, 0, len(columnTypes))
		for _, ct := range columnTypes {
			dbColumns = append(dbColumns, ct.Name())
		}

		mismatches := findColumnMismatches(dbColumns, stmt.Schema.DBNames)
		if len(mismatches) == 0 {
			fmt.Fprintln(w, "All columns are accounted for in the model.")
			continue
		}
		fmt.Fprintf(w, "Found %d columns not accounted for in model:\n", len(mismatches))
		for _, col := range mismatches {
			fmt.Fprintf(w, "  - %s\n", col)
		}
		total += len(mismatches)
	}

	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Total mismatched columns across all tables: %d\n", total)
	return total, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	known := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		known[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !known[col] {
			mismatches = append(mismatches, col)
		}
	}
	sort.Strings(mismatches)
	return mismatches
}
