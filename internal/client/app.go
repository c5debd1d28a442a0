// Package client wires the exchange client's layers (storage, transport,
// session, connectivity monitoring, offline services, background sync and
// the realtime channel) into a single process lifecycle.
package client

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/p2pbooks/exchange-client/internal/adapter"
	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/monitor"
	"github.com/p2pbooks/exchange-client/internal/realtime"
	"github.com/p2pbooks/exchange-client/internal/service"
	"github.com/p2pbooks/exchange-client/internal/session"
	"github.com/p2pbooks/exchange-client/internal/store"
	"github.com/p2pbooks/exchange-client/internal/workers"
)

// App owns every long-lived component of the client process.
type App struct {
	cfg *config.ClientConfig

	Session  *session.Session
	Storages *store.ClientStorages
	Services *service.ClientServices
	Monitor  *monitor.Monitor
	Realtime *realtime.Client

	workers *workers.Workers

	logger *logger.Logger
}

// NewApp builds the full dependency graph from cfg. Construction order
// matters: the session feeds tokens to the transport, the transport feeds
// probes to the monitor, and the sync worker must register its online hook
// before the monitor starts.
func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	sess := session.NewSession(log)

	transport, err := adapter.NewHTTPTransport(cfg.Adapter, sess.Token, log)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	transport.SetOnUnauthorized(sess.Logout)

	storages := store.NewClientStorages(cfg.Storage, log)
	netMonitor := monitor.NewMonitor(transport, cfg.Monitor, log)

	services := service.NewClientServices(transport, storages, netMonitor, cfg.Sync, nil, log)

	syncWorker := workers.NewSyncWorker(services.API, netMonitor, cfg.Sync.Interval, log)

	app := &App{
		cfg:      cfg,
		Session:  sess,
		Storages: storages,
		Services: services,
		Monitor:  netMonitor,
		workers:  workers.NewWorkers(syncWorker),
		logger:   log,
	}

	if cfg.Adapter.WSURL != "" {
		app.Realtime = realtime.NewClient(realtime.Config{
			URL:           cfg.Adapter.WSURL,
			AutoReconnect: true,
		}, sess.Token, log)

		netMonitor.OnOnline(app.Realtime.Reset)
		sess.OnLogout(func() { _ = app.Realtime.Disconnect() })
	}

	return app, nil
}

// Run starts the background machinery and blocks until the process receives
// an interrupt or termination signal.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)
	defer a.Shutdown()

	a.logger.Info().Msg("exchange client running")
	<-ctx.Done()
	a.logger.Info().Msg("shutting down")

	return nil
}

// Start launches the monitor, the background workers, and the realtime
// channel when one is configured. Separated from Run so embedding
// applications (a UI shell, tests) can drive the lifecycle themselves.
func (a *App) Start(ctx context.Context) {
	a.Monitor.Start(ctx)
	a.workers.Run(ctx)

	if a.Realtime != nil {
		if err := a.Realtime.Connect(ctx); err != nil {
			// non-fatal: the offline layer works without the event channel
			a.logger.Warn().Err(err).Msg("event channel unavailable")
		}
	}
}

// Shutdown stops the background machinery in reverse start order.
func (a *App) Shutdown() {
	if a.Realtime != nil {
		_ = a.Realtime.Disconnect()
	}
	a.Monitor.Stop()
}
