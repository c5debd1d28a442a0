package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

func newMemoryBackend(t *testing.T) StorageBackend {
	t.Helper()
	b, err := NewFlatBackend("", logger.Nop())
	require.NoError(t, err)
	return b
}

func TestFlatBackend_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)

	record := models.Record{"id": "b-1", "title": "Dune", "status": "available"}
	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{record}, false))

	got, err := b.Get(ctx, CollectionBooks, "b-1")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestFlatBackend_GetMiss(t *testing.T) {
	b := newMemoryBackend(t)

	_, err := b.Get(context.Background(), CollectionBooks, "absent")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestFlatBackend_MergeOverwritesById(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)

	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{{"id": "b-1", "title": "Dune"}}, false))
	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{
		{"id": "b-1", "title": "Dune Messiah"},
		{"id": "b-2", "title": "Hyperion"},
	}, false))

	all, err := b.GetAll(ctx, CollectionBooks)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := b.Get(ctx, CollectionBooks, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got["title"])
}

func TestFlatBackend_ReplaceClearsCollection(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)

	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{{"id": "a", "title": "X"}}, true))
	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{{"id": "b", "title": "Y"}}, true))

	all, err := b.GetAll(ctx, CollectionBooks)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0]["id"])
}

func TestFlatBackend_Delete(t *testing.T) {
	ctx := context.Background()
	b := newMemoryBackend(t)

	require.NoError(t, b.Put(ctx, CollectionBooks, []models.Record{{"id": "b-1"}}, false))
	require.NoError(t, b.Delete(ctx, CollectionBooks, "b-1"))

	_, err := b.Get(ctx, CollectionBooks, "b-1")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	// deleting an absent id is a no-op
	assert.NoError(t, b.Delete(ctx, CollectionBooks, "b-1"))
}

func TestFlatBackend_FilePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fallback.json")

	first, err := NewFlatBackend(path, logger.Nop())
	require.NoError(t, err)
	require.True(t, first.Persistent())
	require.NoError(t, first.Put(ctx, CollectionWishlist, []models.Record{{"id": "w-1", "title": "Solaris"}}, false))

	// a fresh backend over the same file sees the data
	second, err := NewFlatBackend(path, logger.Nop())
	require.NoError(t, err)

	got, err := second.Get(ctx, CollectionWishlist, "w-1")
	require.NoError(t, err)
	assert.Equal(t, "Solaris", got["title"])
}

func TestFlatBackend_InMemoryIsNotPersistent(t *testing.T) {
	b := newMemoryBackend(t)
	assert.False(t, b.Persistent())
}
