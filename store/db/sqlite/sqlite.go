package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
	key        TEXT NOT NULL PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_ts INTEGER NOT NULL
)`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a new instance of the database with the SQLite driver.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil || profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// Connect to the database with some sane settings:
	// - No shared-cache: it's obsolete; WAL journal mode is a better solution.
	// - Disable foreign key checks: snapshots have no relations.
	// - Busy timeout set to 10000ms to wait on a competing writer.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	// A single connection serializes writers, which is all a snapshot store needs.
	sqliteDB.SetMaxOpenConns(1)

	if _, err := sqliteDB.Exec(schema); err != nil {
		_ = sqliteDB.Close()
		return nil, errors.Wrap(err, "failed to migrate snapshot table")
	}

	return &DB{db: sqliteDB, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := d.db.QueryRowContext(ctx, `SELECT data FROM snapshot WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get snapshot %s", key)
	}
	return data, nil
}

func (d *DB) UpsertSnapshot(ctx context.Context, key string, data []byte) error {
	stmt := `
		INSERT INTO snapshot (key, data, updated_ts) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_ts = excluded.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, key, data, time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to upsert snapshot %s", key)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
