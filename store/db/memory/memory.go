// Package memory keeps snapshots in process memory. It backs the demo mode
// and tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"
)

type DB struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// Writes counts successful UpsertSnapshot calls per key.
	writes map[string]int
}

func NewDB() *DB {
	return &DB{
		docs:   make(map[string][]byte),
		writes: make(map[string]int),
	}
}

func (d *DB) GetSnapshot(_ context.Context, key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, ok := d.docs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (d *DB) UpsertSnapshot(_ context.Context, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[key] = append([]byte(nil), data...)
	d.writes[key]++
	return nil
}

// Writes returns how many times key has been written.
func (d *DB) Writes(key string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes[key]
}

func (*DB) Close() error {
	return nil
}
