// Package file stores every snapshot as a JSON document on the local disk.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/store"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// DB writes one <key>.json file per snapshot key under the data directory.
type DB struct {
	dir string
}

// NewDB creates a file driver rooted at profile.Data.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if err := os.MkdirAll(profile.Data, dirPerm); err != nil {
		return nil, errors.Wrapf(err, "failed to create data dir %s", profile.Data)
	}
	return &DB{dir: profile.Data}, nil
}

func (d *DB) path(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", errors.Errorf("invalid snapshot key %q", key)
	}
	return filepath.Join(d.dir, key+".json"), nil
}

func (d *DB) GetSnapshot(_ context.Context, key string) ([]byte, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}

// UpsertSnapshot replaces the file through a temp file and rename, so readers
// never observe a half-written document.
func (d *DB) UpsertSnapshot(_ context.Context, key string, data []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", path)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write temp file for %s", path)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync temp file for %s", path)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return errors.Wrapf(err, "failed to chmod temp file for %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close temp file for %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

func (*DB) Close() error {
	return nil
}
