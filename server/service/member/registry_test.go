package member

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/arisu/store"
	"github.com/hrygo/arisu/store/db/memory"
)

func newTestRegistry(t *testing.T, seed string) (*Registry, *memory.DB) {
	t.Helper()
	driver := memory.NewDB()
	if seed != "" {
		require.NoError(t, driver.UpsertSnapshot(context.Background(), store.MembersKey, []byte(seed)))
	}
	r := NewRegistry(store.New(driver, nil))
	require.NoError(t, r.Load(context.Background()))
	return r, driver
}

func TestRegistry_LoadEmpty(t *testing.T) {
	r, _ := newTestRegistry(t, "")
	assert.Empty(t, r.Registered())
	assert.Empty(t, r.Unregistered())
	assert.False(t, r.IsRegistered("628111"))
}

func TestRegistry_LoadLegacyEntries(t *testing.T) {
	r, _ := newTestRegistry(t, `{
		"registered": ["628111", {"number": "628222"}, {"number": 628333}, "+62 811-1", "628111"],
		"unregistered": ["628222", "628444"]
	}`)

	assert.Equal(t, []string{"628111", "628222", "628333"}, r.Registered())
	// A number in both sets counts as registered.
	assert.Equal(t, []string{"628444"}, r.Unregistered())
	assert.True(t, r.IsRegistered("628222@c.us"))
}

func TestRegistry_LoadCorrupt(t *testing.T) {
	driver := memory.NewDB()
	require.NoError(t, driver.UpsertSnapshot(context.Background(), store.MembersKey, []byte("[oops")))

	err := NewRegistry(store.New(driver, nil)).Load(context.Background())
	var corrupt *store.SnapshotCorruptError
	assert.ErrorAs(t, err, &corrupt)
}

func TestRegistry_RegisterIfAbsent(t *testing.T) {
	ctx := context.Background()
	r, driver := newTestRegistry(t, "")

	wasNew, err := r.MarkSeenUnregistered(ctx, "628111@c.us")
	require.NoError(t, err)
	assert.True(t, wasNew)
	assert.Equal(t, []string{"628111"}, r.Unregistered())

	added, err := r.RegisterIfAbsent(ctx, "62 811-1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, r.IsRegistered("628111"))
	assert.Empty(t, r.Unregistered(), "registered and unregistered stay disjoint")

	added, err = r.RegisterIfAbsent(ctx, "628111")
	require.NoError(t, err)
	assert.False(t, added)

	data, err := driver.GetSnapshot(ctx, store.MembersKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"registered": ["628111"], "unregistered": []}`, string(data))
	assert.Equal(t, 2, driver.Writes(store.MembersKey))
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	r, _ := newTestRegistry(t, "")
	_, err := r.RegisterIfAbsent(context.Background(), "bukan nomor")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestRegistry_MarkSeenUnregistered(t *testing.T) {
	ctx := context.Background()

	t.Run("new only once per process", func(t *testing.T) {
		r, driver := newTestRegistry(t, "")
		first, err := r.MarkSeenUnregistered(ctx, "628999")
		require.NoError(t, err)
		second, err := r.MarkSeenUnregistered(ctx, "628999")
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
		assert.Equal(t, 1, driver.Writes(store.MembersKey))
	})

	t.Run("persisted unregistered is notified again after restart", func(t *testing.T) {
		r, driver := newTestRegistry(t, `{"registered": [], "unregistered": ["628999"]}`)
		wasNew, err := r.MarkSeenUnregistered(ctx, "628999")
		require.NoError(t, err)
		assert.True(t, wasNew)
		assert.Equal(t, 1, driver.Writes(store.MembersKey), "already persisted, no new write")
	})

	t.Run("registered numbers are ignored", func(t *testing.T) {
		r, _ := newTestRegistry(t, `{"registered": ["628111"], "unregistered": []}`)
		wasNew, err := r.MarkSeenUnregistered(ctx, "628111")
		require.NoError(t, err)
		assert.False(t, wasNew)
		assert.Empty(t, r.Unregistered())
	})
}
