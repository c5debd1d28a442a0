package store

import (
	"context"

	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
)

// ClientStorages groups the durable store and the pending-action log behind
// a single value that can be passed around the service layer.
type ClientStorages struct {
	// Store is the local cache of server resources.
	Store *DurableStore

	// Actions is the persisted queue of offline mutations.
	Actions ActionLogRepository
}

// NewClientStorages initialises the client storage layer. It attempts to
// open the embedded SQLite database and run migrations; when either step
// fails the layer silently degrades to the flat backend (JSON file or pure
// in-memory, depending on cfg.FallbackPath) so callers never observe a
// storage initialization error, only weaker persistence guarantees.
func NewClientStorages(cfg config.Storage, log *logger.Logger) *ClientStorages {
	log.Info().Msg("creating client storages...")

	backend, actions := selectBackend(cfg, log)

	return &ClientStorages{
		Store:   NewDurableStore(backend, log),
		Actions: actions,
	}
}

func selectBackend(cfg config.Storage, log *logger.Logger) (StorageBackend, ActionLogRepository) {
	db, err := NewConnectSQLite(context.Background(), cfg.DB, log)
	if err == nil {
		if err = db.Migrate(); err == nil {
			return NewSQLiteBackend(db, log), NewSQLActionRepository(db, log)
		}
		log.Warn().Err(err).Msg("migration failed, degrading to flat storage")
		db.Close()
	} else {
		log.Warn().Err(err).Msg("embedded database unavailable, degrading to flat storage")
	}

	flat, err := NewFlatBackend(cfg.FallbackPath, log)
	if err != nil {
		log.Warn().Err(err).Msg("fallback file unreadable, degrading to in-memory storage")
		// in-memory construction cannot fail
		flat, _ = NewFlatBackend("", log)
	}

	return flat, NewFlatActionRepository(flat, log)
}
