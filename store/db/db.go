package db

import (
	"github.com/pkg/errors"

	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/store"
	"github.com/fayaz1010/Iqra/store/db/postgres"
	"github.com/fayaz1010/Iqra/store/db/sqlite"
)

// Both drivers implement the full store.Driver interface. SQLite is the default for single
// instance deployments; PostgreSQL is used when several server instances share one database.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
