package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

func newTestStore(t *testing.T) *DurableStore {
	t.Helper()
	return NewDurableStore(newMemoryBackend(t), logger.Nop())
}

func TestDurableStore_PutThenGetReturnsLastWritten(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutOne(ctx, CollectionBooks, models.Record{"id": "b-1", "title": "Dune"}))
	require.NoError(t, s.PutOne(ctx, CollectionBooks, models.Record{"id": "b-1", "title": "Dune Messiah"}))

	got, err := s.Get(ctx, CollectionBooks, "b-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune Messiah", got["title"])
}

func TestDurableStore_SkipsRecordsWithoutId(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Put(ctx, CollectionBooks, []models.Record{
		{"title": "no id"},
		{"id": 42.0, "title": "numeric id"},
		{"id": "b-1", "title": "valid"},
	}, false)
	require.NoError(t, err)

	all, err := s.GetAll(ctx, CollectionBooks)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b-1", all[0]["id"])
}

func TestDurableStore_PutOnlyInvalidRecordsIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, CollectionBooks, []models.Record{{"title": "no id"}}, false))

	all, err := s.GetAll(ctx, CollectionBooks)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDurableStore_ReplaceSemantics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Put(ctx, CollectionBooks, []models.Record{{"id": "a", "title": "X"}}, true))
	require.NoError(t, s.Put(ctx, CollectionBooks, []models.Record{{"id": "b", "title": "Y"}}, true))

	all, err := s.GetAll(ctx, CollectionBooks)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0]["id"])
	assert.Equal(t, "Y", all[0]["title"])
}

func TestDurableStore_GetMissReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(context.Background(), CollectionBooks, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDurableStore_UnknownCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Put(ctx, "sessions", []models.Record{{"id": "x"}}, false)
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = s.Get(ctx, "sessions", "x")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = s.GetAll(ctx, "sessions")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

// NewClientStorages must never fail: when the database path cannot be
// opened it degrades to the flat backend and round-trips still succeed.
func TestNewClientStorages_DegradesToFlatBackend(t *testing.T) {
	ctx := context.Background()

	// a directory is not a valid SQLite database file
	cfg := config.Storage{DB: config.DB{DSN: t.TempDir()}}
	storages := NewClientStorages(cfg, logger.Nop())
	require.NotNil(t, storages)

	assert.False(t, storages.Store.Persistent())

	require.NoError(t, storages.Store.PutOne(ctx, CollectionBooks, models.Record{"id": "b-1", "title": "Dune"}))
	got, err := storages.Store.Get(ctx, CollectionBooks, "b-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dune", got["title"])
}

func TestNewClientStorages_FallbackFileIsUsed(t *testing.T) {
	ctx := context.Background()

	fallbackPath := filepath.Join(t.TempDir(), "fallback.json")
	cfg := config.Storage{
		DB:           config.DB{DSN: t.TempDir()}, // unopenable
		FallbackPath: fallbackPath,
	}

	storages := NewClientStorages(cfg, logger.Nop())
	require.NoError(t, storages.Store.PutOne(ctx, CollectionUser, models.Record{"id": "u-1", "name": "Alice"}))

	reopened := NewClientStorages(cfg, logger.Nop())
	got, err := reopened.Store.Get(ctx, CollectionUser, "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got["name"])
}
