package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/p2pbooks/exchange-client/models"
)

// EventHandler is the generic event callback type.
type EventHandler func(eventType string, payload json.RawMessage)

type eventDispatcher struct {
	mu              sync.RWMutex
	generic         map[string][]EventHandler
	onAuthenticated []func(AuthenticatedPayload)
	onNotification  []func(models.Notification)
	onMessageNew    []func(models.Message)
	onError         []func(ErrorPayload)
	onConnected     []func()
	onDisconnected  []func(reason string)
	onReconnecting  []func(attempt int, delay time.Duration)
}

func newEventDispatcher() *eventDispatcher {
	return &eventDispatcher{
		generic: make(map[string][]EventHandler),
	}
}

func (d *eventDispatcher) dispatch(env Envelope) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch env.Type {
	case EventAuthenticated:
		var p AuthenticatedPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onAuthenticated {
				go h(p)
			}
		}
	case EventNotification:
		var p models.Notification
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onNotification {
				go h(p)
			}
		}
	case EventMessageNew:
		var p models.Message
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onMessageNew {
				go h(p)
			}
		}
	case EventError:
		var p ErrorPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			for _, h := range d.onError {
				go h(p)
			}
		}
	}

	for _, h := range d.generic[env.Type] {
		handler := h // capture
		go handler(env.Type, env.Payload)
	}
}

func (d *eventDispatcher) emitConnected() {
	d.mu.RLock()
	handlers := append([]func(){}, d.onConnected...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h()
	}
}

func (d *eventDispatcher) emitDisconnected(reason string) {
	d.mu.RLock()
	handlers := append([]func(string){}, d.onDisconnected...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h(reason)
	}
}

func (d *eventDispatcher) emitReconnecting(attempt int, delay time.Duration) {
	d.mu.RLock()
	handlers := append([]func(int, time.Duration){}, d.onReconnecting...)
	d.mu.RUnlock()
	for _, h := range handlers {
		go h(attempt, delay)
	}
}
