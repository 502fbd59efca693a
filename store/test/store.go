package test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/internal/version"
	"github.com/fayaz1010/Iqra/store"
	"github.com/fayaz1010/Iqra/store/db"
)

// NewTestingStore returns a migrated store backed by a fresh SQLite file, or by the PostgreSQL
// database in POSTGRES_TEST_DSN when DRIVER=postgres.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	return newTestingStoreWithMode(ctx, t, "prod")
}

func newTestingStoreWithMode(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()
	profile := getTestingProfile(t, mode)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver, error: %+v", err)
	}

	ts := store.New(dbDriver, profile)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db, error: %+v", err)
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}

func getTestingProfile(t *testing.T, mode string) *profile.Profile {
	t.Helper()
	dir := t.TempDir()
	driver := getDriverFromEnv()

	p := &profile.Profile{
		Mode:    mode,
		Data:    dir,
		Driver:  driver,
		Version: version.GetCurrentVersion(mode),
	}
	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(dir, "iqra_"+mode+".db")
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		t.Fatalf("unsupported test driver %q", driver)
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}
