package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "pos.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	store, err := New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	value, found, err := store.Get(context.Background(), "autoparts_orders")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, value)
}

func TestStorePutOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "autoparts_products", []byte(`[{"id":"p1"}]`)))
	require.NoError(t, store.Put(ctx, "autoparts_products", []byte(`[]`)))

	value, found, err := store.Get(ctx, "autoparts_products")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `[]`, string(value))

	var count int64
	require.NoError(t, store.db.Model(&Entry{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestStorePing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Ping(context.Background()))
}
