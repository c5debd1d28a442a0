// Package service implements the client's offline-first behavior on top of
// the transport and storage layers: connectivity-gated reads with cache
// fallback, queued writes with optimistic local results, and the sync that
// replays the queue once the network returns.
package service

import (
	"time"

	"github.com/p2pbooks/exchange-client/internal/adapter"
	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/store"
	"github.com/p2pbooks/exchange-client/internal/utils"
)

// ClientServices groups the offline layer's services behind one value for
// dependency injection into workers and the application shell.
type ClientServices struct {
	API     *OfflineAPIService
	Actions *ActionLogService
}

// NewClientServices wires the service layer. notifier may be nil, in which
// case events go to the structured log.
func NewClientServices(
	transport adapter.Transport,
	storages *store.ClientStorages,
	gate ConnectivityGate,
	cfg config.Sync,
	notifier Notifier,
	log *logger.Logger,
) *ClientServices {
	log.Info().Msg("creating client services...")

	if notifier == nil {
		notifier = NewLogNotifier(log)
	}

	retry := RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff}
	if retry.MaxRetries > 0 && retry.Backoff <= 0 {
		retry.Backoff = time.Minute
	}

	actions := NewActionLogService(storages.Actions, utils.NewUUIDGenerator(), retry, notifier, log)
	api := NewOfflineAPIService(transport, storages.Store, actions, gate, notifier, log)

	return &ClientServices{API: api, Actions: actions}
}
