package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDriver struct {
	mu   sync.Mutex
	docs map[string][]byte
	err  error
}

func newMemoryDriver() *memoryDriver {
	return &memoryDriver{docs: map[string][]byte{}}
}

func (d *memoryDriver) GetSnapshot(_ context.Context, key string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.docs[key], nil
}

func (d *memoryDriver) UpsertSnapshot(_ context.Context, key string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.docs[key] = append([]byte(nil), data...)
	return nil
}

func (d *memoryDriver) Close() error { return nil }

func TestStore_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newMemoryDriver(), nil)

	type doc struct {
		Registered []string `json:"registered"`
	}

	var out doc
	found, err := s.ReadJSON(ctx, MembersKey, &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.WriteJSON(ctx, MembersKey, doc{Registered: []string{"628"}}))

	found, err = s.ReadJSON(ctx, MembersKey, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"628"}, out.Registered)
}

func TestStore_ReadJSONCorrupt(t *testing.T) {
	ctx := context.Background()
	driver := newMemoryDriver()
	driver.docs[ChatHistoryKey] = []byte("{not json")
	s := New(driver, nil)

	var out map[string]any
	found, err := s.ReadJSON(ctx, ChatHistoryKey, &out)
	assert.False(t, found)

	var corrupt *SnapshotCorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, ChatHistoryKey, corrupt.Key)
}

func TestStore_BlankSnapshotIsEmpty(t *testing.T) {
	driver := newMemoryDriver()
	driver.docs[ChatHistoryKey] = []byte("  \n")
	s := New(driver, nil)

	var out map[string]any
	found, err := s.ReadJSON(context.Background(), ChatHistoryKey, &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_DriverErrorsAreWrapped(t *testing.T) {
	boom := errors.New("disk gone")
	driver := newMemoryDriver()
	driver.err = boom
	s := New(driver, nil)

	_, err := s.ReadJSON(context.Background(), MembersKey, &struct{}{})
	assert.ErrorIs(t, err, boom)

	err = s.WriteJSON(context.Background(), MembersKey, struct{}{})
	assert.ErrorIs(t, err, boom)
}
