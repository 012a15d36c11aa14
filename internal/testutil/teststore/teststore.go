// Package teststore provides SQLite-backed helpers for storage tests.
//
// Every call to New creates a fresh database file inside the test's temp
// directory, migrated with the embedded schema and closed on cleanup.
package teststore

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/emilianohg/skilltracker/internal/db"
)

// New opens an isolated, fully migrated database for a single test.
func New(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "skilltracker.sqlite")
	database, err := db.OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("teststore: open %s: %v", path, err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}
