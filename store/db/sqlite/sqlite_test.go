package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/store"
)

func TestSQLiteDriver(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "arisu_test.db")
	driver, err := NewDB(&profile.Profile{DSN: dsn})
	require.NoError(t, err)
	defer driver.Close()

	data, err := driver.GetSnapshot(ctx, store.ChatHistoryKey)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, driver.UpsertSnapshot(ctx, store.ChatHistoryKey, []byte(`{"a":[]}`)))
	require.NoError(t, driver.UpsertSnapshot(ctx, store.ChatHistoryKey, []byte(`{"b":[]}`)))

	data, err = driver.GetSnapshot(ctx, store.ChatHistoryKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":[]}`, string(data))
}

func TestSQLiteDriver_RequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{})
	assert.Error(t, err)
}
