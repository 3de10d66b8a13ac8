package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/hrygo/arisu/internal/profile"
)

// Snapshot keys. The file driver uses them as file names, which keeps the
// on-disk layout compatible with chat-history.json and members.json.
const (
	ChatHistoryKey = "chat-history"
	MembersKey     = "members"
)

// SnapshotCorruptError reports a stored snapshot that exists but cannot be parsed.
type SnapshotCorruptError struct {
	Key string
	Err error
}

func (e *SnapshotCorruptError) Error() string {
	return fmt.Sprintf("snapshot %q is corrupt: %v", e.Key, e.Err)
}

func (e *SnapshotCorruptError) Unwrap() error {
	return e.Err
}

// Store provides snapshot access on top of a driver.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// ReadJSON decodes the snapshot stored under key into out.
// It reports false when nothing has been stored yet, and a *SnapshotCorruptError
// when the stored bytes do not decode.
func (s *Store) ReadJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.driver.GetSnapshot(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read snapshot %s", key)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &SnapshotCorruptError{Key: key, Err: err}
	}
	return true, nil
}

// WriteJSON encodes v as indented JSON and replaces the snapshot stored under key.
func (s *Store) WriteJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode snapshot %s", key)
	}
	data = append(data, '\n')
	if err := s.driver.UpsertSnapshot(ctx, key, data); err != nil {
		return errors.Wrapf(err, "failed to write snapshot %s", key)
	}
	return nil
}
