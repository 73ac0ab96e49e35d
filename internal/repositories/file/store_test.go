package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pos.json")
	ctx := context.Background()

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "autoparts_customers", []byte(`[{"id":"c1"}]`)))
	require.NoError(t, store.Put(ctx, "autoparts_customers", []byte(`[]`)))
	require.NoError(t, store.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	value, found, err := reopened.Get(ctx, "autoparts_customers")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `[]`, string(value))

	_, found, err = reopened.Get(ctx, "autoparts_orders")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreKeepsUndecodableValuesVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.json")
	store, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Put(context.Background(), "autoparts_orders", []byte(`{not json`)))
	value, found, err := store.Get(context.Background(), "autoparts_orders")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{not json`, string(value))
}

func TestOpenMovesCorruptSnapshotAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"entries": {"a": `), 0o600))

	fixed := time.Unix(1700000000, 0)
	store, err := Open(path, zap.NewNop(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	backup, err := os.ReadFile(path + ".corrupt.1700000000")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(backup), `{"entries"`))

	_, found, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "pos.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Put(ctx, "k", []byte("v")), context.Canceled)
}
