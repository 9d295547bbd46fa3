package models

import (
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Schema tooling

GENERATE_MODELS=true migrates the schema, prints the column mismatch report and
writes typed query helpers with gorm/gen into ./query.

GENERATE_COLUMN_REPORT=true only prints the report: columns that exist in the
database but are not mapped by any model field, table by table.

	--- Table: posts ---
	Found 1 column(s) not accounted for in model:
	  - legacy_views
*/

// All returns every persisted model in dependency order.
func All() []any {
	return []any{&User{}, &Category{}, &Tag{}, &Post{}, &PostTag{}}
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Post{}, "Tags", &PostTag{}); err != nil {
		return fmt.Errorf("setting up post_tags join table: %w", err)
	}
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("migrating models: %w", err)
	}
	return nil
}

func GenerateModels(db *gorm.DB, outPath string, logger zerolog.Logger, w io.Writer) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	logger.Info().Msg("migrating models")
	if err := Migrate(db.Session(&gorm.Session{SkipDefaultTransaction: true})); err != nil {
		return err
	}

	if err := PrintColumnMismatchReport(db, w); err != nil {
		return err
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()

	logger.Info().Str("outPath", outPath).Msg("query helpers generated")
	return nil
}

// ColumnMismatches maps table name to the columns the models do not know about.
// Tables that do not exist yet are skipped.
func ColumnMismatches(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)
	migrator := db.Migrator()

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parsing model %T: %w", model, err)
		}
		table := stmt.Schema.Table
		if !migrator.HasTable(table) {
			continue
		}

		columns, err := migrator.ColumnTypes(table)
		if err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", table, err)
		}

		known := make(map[string]bool, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			known[name] = true
		}

		var missing []string
		for _, col := range columns {
			if !known[col.Name()] {
				missing = append(missing, col.Name())
			}
		}
		report[table] = missing
	}

	return report, nil
}

func PrintColumnMismatchReport(db *gorm.DB, w io.Writer) error {
	report, err := ColumnMismatches(db)
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(report))
	for table := range report {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	fmt.Fprintln(w, "=== COLUMN MISMATCH REPORT ===")
	total := 0
	for _, table := range tables {
		fmt.Fprintf(w, "\n--- Table: %s ---\n", table)
		missing := report[table]
		if len(missing) == 0 {
			fmt.Fprintln(w, "All columns are accounted for in the model.")
			continue
		}
		fmt.Fprintf(w, "Found %d column(s) not accounted for in model:\n", len(missing))
		for _, col := range missing {
			fmt.Fprintf(w, "  - %s\n", col)
		}
		total += len(missing)
	}
	fmt.Fprintf(w, "\n=== SUMMARY ===\nTotal mismatched columns across all tables: %d\n", total)
	return nil
}
