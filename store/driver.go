package store

import "context"

// Driver is an interface for store driver.
// A driver persists whole snapshot documents addressed by key; every write
// replaces the previous document for that key.
type Driver interface {
	// GetSnapshot returns the stored document, or nil when the key was never written.
	GetSnapshot(ctx context.Context, key string) ([]byte, error)
	// UpsertSnapshot overwrites the document stored under key.
	UpsertSnapshot(ctx context.Context, key string, data []byte) error

	Close() error
}
