package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

// DurableStore is the local cache of server resources, organized as named
// collections keyed by record id. It enforces the schema and the record-id
// invariant on top of whichever StorageBackend was selected at
// initialization.
type DurableStore struct {
	backend StorageBackend
	logger  *logger.Logger
}

func NewDurableStore(backend StorageBackend, logger *logger.Logger) *DurableStore {
	return &DurableStore{backend: backend, logger: logger}
}

// Put stores one or many records under collection.
//
// When replace is true the entire collection content is cleared first, then
// repopulated, the "authoritative full refresh" path. Otherwise merge
// semantics apply: a record with a matching id overwrites the existing
// entry, new ids are appended. Records without a resolvable string id are
// skipped with a warning and never cause an error.
func (s *DurableStore) Put(ctx context.Context, collection string, records []models.Record, replace bool) error {
	log := logger.FromContext(ctx)

	if !KnownCollection(collection) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	valid := make([]models.Record, 0, len(records))
	for _, record := range records {
		if _, ok := record.ID(); !ok {
			log.Warn().
				Str("func", "DurableStore.Put").
				Str("collection", collection).
				Msg("skipped record without valid id")
			continue
		}
		valid = append(valid, record)
	}

	if len(valid) == 0 && !replace {
		return nil
	}

	if err := s.backend.Put(ctx, collection, valid, replace); err != nil {
		return fmt.Errorf("durable store put (%s): %w", collection, err)
	}

	return nil
}

// PutOne stores a single record under collection with merge semantics.
func (s *DurableStore) PutOne(ctx context.Context, collection string, record models.Record) error {
	return s.Put(ctx, collection, []models.Record{record}, false)
}

// Get returns the record with the given id, or nil when absent. A cache
// miss is not an error.
func (s *DurableStore) Get(ctx context.Context, collection, id string) (models.Record, error) {
	if !KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	record, err := s.backend.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("durable store get (%s/%s): %w", collection, id, err)
	}

	return record, nil
}

// GetAll returns the full collection as an unordered list; empty when the
// collection holds nothing.
func (s *DurableStore) GetAll(ctx context.Context, collection string) ([]models.Record, error) {
	if !KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	records, err := s.backend.GetAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("durable store get all (%s): %w", collection, err)
	}

	return records, nil
}

// Delete removes the record with the given id from the local copy of
// collection. Used for the eager local delete that keeps UI lists in step
// with a queued DELETE.
func (s *DurableStore) Delete(ctx context.Context, collection, id string) error {
	if !KnownCollection(collection) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	if err := s.backend.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("durable store delete (%s/%s): %w", collection, id, err)
	}

	return nil
}

// Persistent reports whether the selected backend survives restarts.
func (s *DurableStore) Persistent() bool {
	return s.backend.Persistent()
}
