// Package monitor tracks backend reachability. It probes the server's
// lightweight ping endpoint on a ticker and keeps three observable facts:
// whether the client is online, whether the connection is fast, and when
// the server was last seen. Transition callbacks let other components react
// to the network coming back without polling.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/p2pbooks/exchange-client/internal/config"
	"github.com/p2pbooks/exchange-client/internal/logger"
)

// Prober measures reachability of the backend. Satisfied by the adapter's
// HTTP transport.
type Prober interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Status is a snapshot of the monitor's view of the network.
type Status struct {
	Online         bool
	ConnectionFast bool
	LastOnline     time.Time
}

// Monitor polls a Prober and maintains connectivity state. The zero state
// is optimistic: a freshly constructed monitor reports online with a fast
// connection until the first probe says otherwise, matching the assumption
// an app makes before its first request.
type Monitor struct {
	prober Prober
	cfg    config.Monitor

	stateMu        sync.RWMutex
	online         bool
	connectionFast bool
	lastOnline     time.Time

	onOnline  []func()
	onOffline []func()

	jobMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

func NewMonitor(prober Prober, cfg config.Monitor, logger *logger.Logger) *Monitor {
	return &Monitor{
		prober:         prober,
		cfg:            cfg,
		online:         true,
		connectionFast: true,
		lastOnline:     time.Now(),
		logger:         logger,
	}
}

// Online reports whether the backend was reachable at the last probe.
func (m *Monitor) Online() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.online
}

// ConnectionFast reports whether the last successful probe round trip came
// in under the configured threshold.
func (m *Monitor) ConnectionFast() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.connectionFast
}

// StatusSnapshot returns the current connectivity state as one consistent
// read.
func (m *Monitor) StatusSnapshot() Status {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return Status{
		Online:         m.online,
		ConnectionFast: m.connectionFast,
		LastOnline:     m.lastOnline,
	}
}

// OnOnline registers a callback fired once per offline-to-online transition.
// Must be called during wiring, before Start.
func (m *Monitor) OnOnline(hook func()) {
	m.onOnline = append(m.onOnline, hook)
}

// OnOffline registers a callback fired once per online-to-offline transition.
// Must be called during wiring, before Start.
func (m *Monitor) OnOffline(hook func()) {
	m.onOffline = append(m.onOffline, hook)
}

// SetOnline force-marks the client online. Components that complete a real
// request can call this to shortcut the next probe.
func (m *Monitor) SetOnline() {
	m.transition(true, m.ConnectionFast())
}

// SetOffline force-marks the client offline. Components that hit a
// connectivity error can call this without waiting for the prober.
func (m *Monitor) SetOffline() {
	m.transition(false, false)
}

// Probe runs a single reachability check and updates state. A probe failure
// of any kind means offline; a slow but successful probe keeps the client
// online with connectionFast unset.
func (m *Monitor) Probe(ctx context.Context) Status {
	rtt, err := m.prober.Ping(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Str("func", "Monitor.Probe").Msg("probe failed")
		m.transition(false, false)
		return m.StatusSnapshot()
	}

	fast := rtt < m.cfg.FastThreshold
	m.logger.Debug().Dur("rtt", rtt).Bool("fast", fast).Str("func", "Monitor.Probe").Msg("probe succeeded")
	m.transition(true, fast)

	return m.StatusSnapshot()
}

func (m *Monitor) transition(online, fast bool) {
	m.stateMu.Lock()
	wasOnline := m.online
	m.online = online
	m.connectionFast = fast
	if online {
		m.lastOnline = time.Now()
	}
	m.stateMu.Unlock()

	if online == wasOnline {
		return
	}

	if online {
		m.logger.Info().Str("func", "Monitor.transition").Msg("network restored")
		for _, hook := range m.onOnline {
			hook()
		}
	} else {
		m.logger.Warn().Str("func", "Monitor.transition").Msg("network lost")
		for _, hook := range m.onOffline {
			hook()
		}
	}
}

// Start launches the background probe loop. It stops any previously running
// loop first, probes once immediately, then keeps probing on the configured
// interval until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	interval := m.cfg.ProbeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m.Stop()

	m.jobMu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.jobMu.Unlock()

	go func() {
		defer m.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		m.Probe(jobCtx)

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				m.Probe(jobCtx)
			}
		}
	}()
}

// Stop cancels the probe loop and blocks until it has exited. Safe to call
// when the loop is not running.
func (m *Monitor) Stop() {
	m.jobMu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.jobMu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}
