package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/store"
	"github.com/hrygo/arisu/store/db/file"
	"github.com/hrygo/arisu/store/db/memory"
	"github.com/hrygo/arisu/store/db/postgres"
	"github.com/hrygo/arisu/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "", "file":
		driver, err = file.NewDB(profile)
	case "memory":
		driver = memory.NewDB()
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'file', 'memory', 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
