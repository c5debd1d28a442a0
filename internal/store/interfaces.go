package store

import (
	"context"

	"github.com/p2pbooks/exchange-client/models"
)

// StorageBackend is the persistence engine behind the durable store. Two
// implementations exist: the SQLite-backed one used in normal operation, and
// a flat in-memory/JSON-file one selected at initialization when the
// database cannot be opened.
type StorageBackend interface {
	// Put stores records under collection. When replace is true the whole
	// collection content is cleared first, then repopulated.
	Put(ctx context.Context, collection string, records []models.Record, replace bool) error
	// Get returns the record with the given id, or ErrRecordNotFound.
	Get(ctx context.Context, collection, id string) (models.Record, error)
	// GetAll returns the full collection as an unordered list.
	GetAll(ctx context.Context, collection string) ([]models.Record, error)
	// Delete removes a single record; deleting an absent id is a no-op.
	Delete(ctx context.Context, collection, id string) error
	// Persistent reports whether data survives a process restart.
	Persistent() bool
}

// ActionLogRepository is the persisted queue of mutation intents recorded
// while the client was offline.
type ActionLogRepository interface {
	// Append adds a new entry to the log.
	Append(ctx context.Context, action models.PendingAction) error
	// ListPending returns all pending entries sorted ascending by
	// timestamp (oldest first).
	ListPending(ctx context.Context) ([]models.PendingAction, error)
	// List returns every entry regardless of status, sorted ascending by
	// timestamp.
	List(ctx context.Context) ([]models.PendingAction, error)
	// Update persists the current state of an entry, matched by id.
	Update(ctx context.Context, action models.PendingAction) error
	// Cleanup deletes all entries whose status is in statuses and returns
	// the number removed.
	Cleanup(ctx context.Context, statuses []models.ActionStatus) (int64, error)
}
