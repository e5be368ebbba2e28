package cartstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func nullLogger() logrus.FieldLogger {
	log, _ := logtest.NewNullLogger()
	return log
}

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Initialize(ctx))
	require.True(t, store.Ping(ctx))

	_, err := store.Get(ctx, DefaultKey)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`[{"id":"A","quantity":1}]`)))
	got, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.Equal(t, `[{"id":"A","quantity":1}]`, string(got))

	// Set overwrites, never merges.
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`[]`)))
	got, err = store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	require.NoError(t, store.Set(ctx, "device:id", []byte(`abc`)))
	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{DefaultKey, "device:id"}, keys)
}

func TestLocalCartStore(t *testing.T) {
	store := NewLocalCartStore(nullLogger())
	defer store.Close()
	exerciseStore(t, store)
}

func TestLocalCartStore_CopiesValues(t *testing.T) {
	store := NewLocalCartStore(nullLogger())
	ctx := context.Background()

	value := []byte(`[]`)
	require.NoError(t, store.Set(ctx, DefaultKey, value))
	value[0] = 'x'

	got, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(got))

	got[0] = 'y'
	again, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.Equal(t, `[]`, string(again))
}

func TestBuntCartStore_Memory(t *testing.T) {
	store := NewBuntCartStore(MemoryPath, nullLogger())
	defer store.Close()
	exerciseStore(t, store)
}

func TestBuntCartStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	store := NewBuntCartStore(path, nullLogger())
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`[{"id":"X","quantity":3}]`)))
	require.NoError(t, store.Close())
	require.False(t, store.Ping(ctx))

	reopened := NewBuntCartStore(path, nullLogger())
	require.NoError(t, reopened.Initialize(ctx))
	defer reopened.Close()

	got, err := reopened.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.Equal(t, `[{"id":"X","quantity":3}]`, string(got))
}

func TestBuntCartStore_NotInitialized(t *testing.T) {
	store := NewBuntCartStore(MemoryPath, nullLogger())
	ctx := context.Background()

	require.False(t, store.Ping(ctx))
	_, err := store.Get(ctx, DefaultKey)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Error(t, store.Set(ctx, DefaultKey, []byte(`[]`)))
	require.NoError(t, store.Close())
}
