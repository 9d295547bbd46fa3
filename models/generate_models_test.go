package models

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrateCreatesEveryTable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "categories", "tags", "posts", "post_tags"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&Post{}, "idx_posts_slug"))
}

func TestColumnMismatchReport(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Exec("ALTER TABLE tags ADD COLUMN legacy_color TEXT").Error)

	report, err := ColumnMismatches(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy_color"}, report["tags"])
	assert.Empty(t, report["posts"])

	var out bytes.Buffer
	require.NoError(t, PrintColumnMismatchReport(db, &out))
	assert.Contains(t, out.String(), "--- Table: tags ---")
	assert.Contains(t, out.String(), "  - legacy_color")
	assert.Contains(t, out.String(), "Total mismatched columns across all tables: 1")
}

func TestColumnMismatchReportSkipsMissingTables(t *testing.T) {
	db := openTestDB(t)

	report, err := ColumnMismatches(db)
	require.NoError(t, err)
	assert.Empty(t, report)
}
