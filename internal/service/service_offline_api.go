package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/p2pbooks/exchange-client/internal/adapter"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/store"
	"github.com/p2pbooks/exchange-client/models"
)

// ConnectivityGate is the offline layer's view of the network monitor.
type ConnectivityGate interface {
	Online() bool
	SetOnline()
	SetOffline()
}

// OfflineAPIService wraps the HTTP transport with offline behavior: reads
// fall back to the durable store when the network is down, and writes are
// queued with an optimistic local result instead of failing.
//
// The fallback is strictly connectivity-gated. A reachable server that
// returns an error (500, 404, 401) propagates that error; cached data never
// masks a live server's answer.
type OfflineAPIService struct {
	transport adapter.Transport
	cache     *store.DurableStore
	actions   *ActionLogService
	gate      ConnectivityGate
	notifier  Notifier

	// set when WentOffline was emitted, cleared when BackOnline is; keeps
	// the pair balanced across concurrent requests
	offlineNotified atomic.Bool

	logger *logger.Logger
}

func NewOfflineAPIService(
	transport adapter.Transport,
	cache *store.DurableStore,
	actions *ActionLogService,
	gate ConnectivityGate,
	notifier Notifier,
	logger *logger.Logger,
) *OfflineAPIService {
	return &OfflineAPIService{
		transport: transport,
		cache:     cache,
		actions:   actions,
		gate:      gate,
		notifier:  notifier,
		logger:    logger,
	}
}

// Get fetches endpoint from the server, network first. A successful
// response refreshes the local cache for routed endpoints and is returned
// as-is. On a connectivity failure, or when the client already knows it is
// offline, the cached representation is served instead and flagged through
// the notifier; when the cache is empty too, fallback is returned if
// non-nil, otherwise ErrNoCachedData (ErrUnknownEndpoint for endpoints with
// no local collection).
func (s *OfflineAPIService) Get(ctx context.Context, endpoint string, fallback json.RawMessage) (json.RawMessage, error) {
	if !s.gate.Online() {
		return s.serveFromCache(ctx, endpoint, fallback)
	}

	body, err := s.transport.Get(ctx, endpoint)
	if err != nil {
		if !adapter.IsConnectivity(err) {
			return nil, err
		}

		s.logger.Warn().
			Str("func", "OfflineAPIService.Get").
			Str("endpoint", endpoint).
			Err(err).
			Msg("request failed, serving cached data")
		s.markOffline()

		return s.serveFromCache(ctx, endpoint, fallback)
	}

	s.markOnline()
	s.refreshCache(ctx, endpoint, body)

	return body, nil
}

// Post creates a resource. Online, the server response is cached and
// returned. Offline, the create is queued and an optimistic placeholder
// record (temp id, kind-specific defaults) is returned; the placeholder is
// never written to the cache, since nothing could reconcile it with the
// server record once the real id is known. When the endpoint's route has no
// known optimistic shape the action is still queued but ErrQueuedOffline is
// returned.
func (s *OfflineAPIService) Post(ctx context.Context, endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	if s.gate.Online() {
		body, err := s.transport.Post(ctx, endpoint, payload)
		if err == nil {
			s.markOnline()
			s.cacheSingle(ctx, endpoint, body)
			return body, nil
		}
		if !adapter.IsConnectivity(err) {
			return nil, err
		}
		s.markOffline()
	}

	return s.queueCreate(ctx, endpoint, payload)
}

// Patch partially updates a resource. Offline, the patch is queued and also
// merged into the cached record with a refreshed updatedAt stamp, so local
// reads observe the change immediately. Without a cached baseline the patch
// is still queued but ErrQueuedOffline is returned; there is no record to
// merge into.
func (s *OfflineAPIService) Patch(ctx context.Context, endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	if s.gate.Online() {
		body, err := s.transport.Patch(ctx, endpoint, payload)
		if err == nil {
			s.markOnline()
			s.cacheSingle(ctx, endpoint, body)
			return body, nil
		}
		if !adapter.IsConnectivity(err) {
			return nil, err
		}
		s.markOffline()
	}

	return s.queuePatch(ctx, endpoint, payload)
}

// Delete removes a resource. Offline, the delete is queued and the record
// is removed from the cache eagerly, trusting the replay to succeed.
func (s *OfflineAPIService) Delete(ctx context.Context, endpoint string) error {
	if s.gate.Online() {
		err := s.transport.Delete(ctx, endpoint)
		if err == nil {
			s.markOnline()
			s.evictCached(ctx, endpoint)
			return nil
		}
		if !adapter.IsConnectivity(err) {
			return err
		}
		s.markOffline()
	}

	action, err := s.actions.Enqueue(ctx, models.VerbDelete, endpoint, nil)
	if err != nil {
		return err
	}
	s.notifier.ActionQueued(action)

	s.evictCached(ctx, endpoint)

	return nil
}

// Sync drains the pending-action log against the live server, then purges
// the completed entries. Refused while offline: replaying against a dead
// network would only convert pending actions into failed ones.
func (s *OfflineAPIService) Sync(ctx context.Context) (SyncReport, error) {
	if !s.gate.Online() {
		return SyncReport{}, ErrSyncOffline
	}

	report, err := s.actions.Drain(ctx, s.transport)
	if err != nil {
		return report, fmt.Errorf("drain action log: %w", err)
	}

	if _, err = s.actions.PurgeCompleted(ctx); err != nil {
		return report, fmt.Errorf("purge completed actions: %w", err)
	}

	s.markOnline()
	s.notifier.SyncFinished(report)

	return report, nil
}

func (s *OfflineAPIService) markOffline() {
	if s.gate.Online() && s.offlineNotified.CompareAndSwap(false, true) {
		s.notifier.WentOffline()
	}
	s.gate.SetOffline()
}

func (s *OfflineAPIService) markOnline() {
	s.gate.SetOnline()
	if s.offlineNotified.CompareAndSwap(true, false) {
		s.notifier.BackOnline()
	}
}

func (s *OfflineAPIService) queueCreate(ctx context.Context, endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	action, err := s.actions.Enqueue(ctx, models.VerbPost, endpoint, payload)
	if err != nil {
		return nil, err
	}
	s.notifier.ActionQueued(action)

	r, _, ok := resolveRoute(endpoint)
	if !ok {
		return nil, ErrQueuedOffline
	}

	optimistic, err := buildOptimisticRecord(r.kind, action.ID, payload)
	if err != nil || optimistic == nil {
		return nil, ErrQueuedOffline
	}

	return json.Marshal(optimistic)
}

func (s *OfflineAPIService) queuePatch(ctx context.Context, endpoint string, payload json.RawMessage) (json.RawMessage, error) {
	action, err := s.actions.Enqueue(ctx, models.VerbPatch, endpoint, payload)
	if err != nil {
		return nil, err
	}
	s.notifier.ActionQueued(action)

	r, id, ok := splitResourceEndpoint(endpoint)
	if !ok {
		return nil, ErrQueuedOffline
	}

	current, err := s.cache.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("read cached record: %w", err)
	}
	if current == nil {
		return nil, ErrQueuedOffline
	}

	patch := models.Record{}
	if len(payload) > 0 {
		if err = json.Unmarshal(payload, &patch); err != nil {
			return nil, fmt.Errorf("decode patch payload: %w", err)
		}
	}
	patch["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	merged := current.Merge(patch)

	if err = s.cache.PutOne(ctx, r.collection, merged); err != nil {
		s.logger.Warn().
			Str("func", "OfflineAPIService.queuePatch").
			Str("collection", r.collection).
			Err(err).
			Msg("failed to cache patched record")
	}

	return json.Marshal(merged)
}

// refreshCache stores a successful GET response locally. Collection roots
// replace the whole cached collection; single-resource endpoints upsert one
// record. Unrouted endpoints and non-JSON bodies are served but not cached.
func (s *OfflineAPIService) refreshCache(ctx context.Context, endpoint string, body json.RawMessage) {
	r, id, ok := splitAnyEndpoint(endpoint)
	if !ok {
		return
	}

	var err error
	switch {
	case id == "":
		var records []models.Record
		if jsonErr := json.Unmarshal(body, &records); jsonErr != nil {
			// a single-object response on a root endpoint (e.g. /user)
			record := models.Record{}
			if json.Unmarshal(body, &record) != nil {
				return
			}
			err = s.cache.Put(ctx, r.collection, []models.Record{record}, true)
		} else {
			err = s.cache.Put(ctx, r.collection, records, true)
		}
	default:
		record := models.Record{}
		if json.Unmarshal(body, &record) != nil {
			return
		}
		if _, hasID := record.ID(); !hasID {
			record["id"] = id
		}
		err = s.cache.PutOne(ctx, r.collection, record)
	}

	if err != nil {
		s.logger.Warn().
			Str("func", "OfflineAPIService.refreshCache").
			Str("endpoint", endpoint).
			Err(err).
			Msg("failed to refresh cache")
	}
}

// cacheSingle upserts one mutation response into the cache when it carries
// an id.
func (s *OfflineAPIService) cacheSingle(ctx context.Context, endpoint string, body json.RawMessage) {
	r, _, ok := splitAnyEndpoint(endpoint)
	if !ok {
		return
	}

	record := models.Record{}
	if json.Unmarshal(body, &record) != nil {
		return
	}
	if _, hasID := record.ID(); !hasID {
		return
	}

	if err := s.cache.PutOne(ctx, r.collection, record); err != nil {
		s.logger.Warn().
			Str("func", "OfflineAPIService.cacheSingle").
			Str("endpoint", endpoint).
			Err(err).
			Msg("failed to cache response")
	}
}

func (s *OfflineAPIService) evictCached(ctx context.Context, endpoint string) {
	r, id, ok := splitResourceEndpoint(endpoint)
	if !ok {
		return
	}

	if err := s.cache.Delete(ctx, r.collection, id); err != nil {
		s.logger.Warn().
			Str("func", "OfflineAPIService.evictCached").
			Str("endpoint", endpoint).
			Err(err).
			Msg("failed to evict cached record")
	}
}

// serveFromCache answers a read from the durable store, flagging the
// degraded result through the notifier so callers can tell stale data from
// a live answer.
func (s *OfflineAPIService) serveFromCache(ctx context.Context, endpoint string, fallback json.RawMessage) (json.RawMessage, error) {
	r, id, ok := splitAnyEndpoint(endpoint)
	if !ok {
		if fallback != nil {
			s.notifier.UsedFallbackData(endpoint)
			return fallback, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	if id == "" {
		records, err := s.cache.GetAll(ctx, r.collection)
		if err != nil {
			return nil, fmt.Errorf("read cached collection: %w", err)
		}
		if len(records) == 0 {
			return s.orFallback(endpoint, fallback)
		}
		s.notifier.ServedCachedData(endpoint)
		return json.Marshal(records)
	}

	record, err := s.cache.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("read cached record: %w", err)
	}
	if record == nil {
		return s.orFallback(endpoint, fallback)
	}

	s.notifier.ServedCachedData(endpoint)
	return json.Marshal(record)
}

func (s *OfflineAPIService) orFallback(endpoint string, fallback json.RawMessage) (json.RawMessage, error) {
	if fallback != nil {
		s.notifier.UsedFallbackData(endpoint)
		return fallback, nil
	}
	return nil, ErrNoCachedData
}

// splitResourceEndpoint resolves endpoint to a route plus a single-segment
// resource id. Sub-resource paths (an id containing "/") do not qualify.
func splitResourceEndpoint(endpoint string) (route, string, bool) {
	r, id, ok := resolveRoute(endpoint)
	if !ok || id == "" || strings.Contains(id, "/") {
		return route{}, "", false
	}
	return r, id, true
}

// splitAnyEndpoint is like splitResourceEndpoint but also accepts
// collection roots (empty id). Sub-resource paths still do not qualify.
func splitAnyEndpoint(endpoint string) (route, string, bool) {
	r, id, ok := resolveRoute(endpoint)
	if !ok || strings.Contains(id, "/") {
		return route{}, "", false
	}
	return r, id, true
}
