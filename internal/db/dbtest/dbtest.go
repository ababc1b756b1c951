// Package dbtest opens migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/garnizeh/fixmate/db"
	dbpkg "github.com/garnizeh/fixmate/internal/db"
	"github.com/garnizeh/fixmate/internal/repository/sqlite"
)

// Open returns a migrated database in a per-test temp dir, closed on cleanup.
func Open(t testing.TB) *dbpkg.DB {
	t.Helper()
	ctx := context.Background()

	d, err := dbpkg.New(ctx, filepath.Join(t.TempDir(), "fixmate.db"), nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, db.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

// Repo returns a SQLite repository over a fresh migrated database.
func Repo(t testing.TB) (*sqlite.SQLiteRepo, *dbpkg.DB) {
	t.Helper()
	d := Open(t)
	return sqlite.New(d, nil), d
}
