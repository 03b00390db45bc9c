// Package test provides a disposable sqlite-backed store for tests.
package test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/auralabs/auraglow/internal/profile"
	"github.com/auralabs/auraglow/store"
	"github.com/auralabs/auraglow/store/db"
)

// NewTestingStore creates a migrated store on a throwaway sqlite database.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "auraglow_test.db"),
		Data:   dir,
	}

	dbDriver, err := db.NewDBDriver(testProfile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	st := store.New(dbDriver, testProfile)
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
