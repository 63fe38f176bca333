package testsupport

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-catalog-cache/internal/storage"
)

// NewTestDB opens a migrated in-memory sqlite store that is closed when the
// test ends. A single connection keeps the in-memory database alive.
func NewTestDB(t testing.TB) *bun.DB {
	t.Helper()

	db, err := storage.Open(context.Background(), storage.Options{
		Driver:       storage.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		Migrate:      true,
		Logger:       zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	return db
}

// Seed inserts records one by one so each receives its own id in order.
func Seed[T any](t testing.TB, db bun.IDB, records []T) []T {
	t.Helper()

	ctx := context.Background()
	for i := range records {
		if _, err := db.NewInsert().Model(&records[i]).Exec(ctx); err != nil {
			t.Fatalf("failed to seed record %d: %v", i, err)
		}
	}
	return records
}
