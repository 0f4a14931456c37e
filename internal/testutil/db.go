// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"query-advisor/internal/config"
	"query-advisor/internal/db"
	"query-advisor/internal/observability"
)

// NewDB opens a private in-memory SQLite database that lives until the test
// ends. Set TEST_DATABASE_URL to run against PostgreSQL instead.
func NewDB(t *testing.T) *db.DB {
	t.Helper()

	cfg := config.Defaults()
	cfg.LogLevel = "error"
	cfg.DatabaseURL = TestDatabaseURL(t)

	dbx, err := db.New(cfg, observability.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbx.Close() })
	return dbx
}

// TestDatabaseURL returns TEST_DATABASE_URL when set, else a unique
// shared-cache in-memory SQLite DSN.
func TestDatabaseURL(t *testing.T) string {
	t.Helper()
	if v := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL")); v != "" {
		return v
	}
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
}

// CleanTables removes all rows from the given tables. Only matters when
// TEST_DATABASE_URL points at a shared database.
func CleanTables(t *testing.T, dbx *db.DB, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if err := dbx.Gorm.Exec("DELETE FROM " + table).Error; err != nil {
			// Log but don't fail test - table might not exist
			t.Logf("Warning: could not clean table %s: %v", table, err)
		}
	}
}
