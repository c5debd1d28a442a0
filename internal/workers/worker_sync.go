package workers

import (
	"context"
	"sync"
	"time"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/service"
)

// Syncer drains the pending-action log. Satisfied by the offline API
// service.
type Syncer interface {
	Sync(ctx context.Context) (service.SyncReport, error)
}

// OnlineEvents exposes online-transition subscription. Satisfied by the
// network monitor.
type OnlineEvents interface {
	OnOnline(hook func())
}

// SyncWorker replays queued offline mutations in the background. It syncs
// on every offline-to-online transition and, when interval is positive,
// also periodically while running, picking up actions re-queued by the
// retry policy.
type SyncWorker struct {
	syncer   Syncer
	interval time.Duration

	trigger chan struct{}
	once    sync.Once

	logger *logger.Logger
}

// NewSyncWorker wires the worker to the monitor's online transitions.
// Construct before the monitor starts so no transition is missed.
func NewSyncWorker(syncer Syncer, events OnlineEvents, interval time.Duration, logger *logger.Logger) *SyncWorker {
	w := &SyncWorker{
		syncer:   syncer,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   logger,
	}

	events.OnOnline(w.Trigger)

	return w
}

// Trigger requests a sync without blocking. Coalesces with a pending
// request.
func (w *SyncWorker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run implements Worker. Safe to call once; subsequent calls are no-ops.
func (w *SyncWorker) Run(ctx context.Context) {
	w.once.Do(func() {
		go w.loop(ctx)
	})
}

func (w *SyncWorker) loop(ctx context.Context) {
	var tick <-chan time.Time
	if w.interval > 0 {
		t := time.NewTicker(w.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			w.sync(ctx)
		case <-tick:
			w.sync(ctx)
		}
	}
}

func (w *SyncWorker) sync(ctx context.Context) {
	report, err := w.syncer.Sync(ctx)
	if err != nil {
		// offline again before the sync ran; the next transition retriggers
		w.logger.Debug().Err(err).Str("func", "SyncWorker.sync").Msg("background sync skipped")
		return
	}

	if report.Completed > 0 || report.Failed > 0 {
		w.logger.Info().
			Str("func", "SyncWorker.sync").
			Int("completed", report.Completed).
			Int("failed", report.Failed).
			Msg("background sync finished")
	}
}
