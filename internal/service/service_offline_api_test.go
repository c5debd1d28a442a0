package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p2pbooks/exchange-client/internal/adapter"
	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/internal/store"
	"github.com/p2pbooks/exchange-client/internal/utils"
	"github.com/p2pbooks/exchange-client/models"
)

// fakeTransport scripts per-endpoint responses and records replayed actions.
type fakeTransport struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	replayed  []executedCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: map[string]json.RawMessage{},
		errs:      map[string]error{},
	}
}

func (f *fakeTransport) Get(_ context.Context, endpoint string) (json.RawMessage, error) {
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.responses[endpoint], nil
}

func (f *fakeTransport) Post(_ context.Context, endpoint string, _ any) (json.RawMessage, error) {
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.responses[endpoint], nil
}

func (f *fakeTransport) Patch(_ context.Context, endpoint string, _ any) (json.RawMessage, error) {
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.responses[endpoint], nil
}

func (f *fakeTransport) Delete(_ context.Context, endpoint string) error {
	return f.errs[endpoint]
}

func (f *fakeTransport) Do(_ context.Context, verb models.ActionVerb, endpoint string, _ json.RawMessage) error {
	if err := f.errs[endpoint]; err != nil {
		return err
	}
	f.replayed = append(f.replayed, executedCall{verb: verb, endpoint: endpoint})
	return nil
}

func (f *fakeTransport) Ping(_ context.Context) (time.Duration, error) {
	if err := f.errs["ping"]; err != nil {
		return 0, err
	}
	return 10 * time.Millisecond, nil
}

// fakeGate is a settable ConnectivityGate.
type fakeGate struct {
	online bool
}

func (g *fakeGate) Online() bool { return g.online }
func (g *fakeGate) SetOnline()   { g.online = true }
func (g *fakeGate) SetOffline()  { g.online = false }

func connectivityErr() error {
	return adapter.NewConnectivityError(errors.New("dial tcp: connection refused"))
}

// spyNotifier records offline-layer events on top of the logging default.
type spyNotifier struct {
	Notifier
	cachedServes   []string
	fallbackServes []string
	completed      []string
	failed         []string
	wentOffline    int
	backOnline     int
}

func newSpyNotifier() *spyNotifier {
	return &spyNotifier{Notifier: NewLogNotifier(logger.Nop())}
}

func (n *spyNotifier) ServedCachedData(endpoint string) {
	n.cachedServes = append(n.cachedServes, endpoint)
}

func (n *spyNotifier) UsedFallbackData(endpoint string) {
	n.fallbackServes = append(n.fallbackServes, endpoint)
}

func (n *spyNotifier) ActionCompleted(action models.PendingAction) {
	n.completed = append(n.completed, action.Endpoint)
}

func (n *spyNotifier) ActionFailed(action models.PendingAction) {
	n.failed = append(n.failed, action.Endpoint)
}

func (n *spyNotifier) WentOffline() { n.wentOffline++ }
func (n *spyNotifier) BackOnline()  { n.backOnline++ }

type apiFixture struct {
	api       *OfflineAPIService
	actions   *ActionLogService
	cache     *store.DurableStore
	transport *fakeTransport
	gate      *fakeGate
	notifier  *spyNotifier
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	flat, err := store.NewFlatBackend("", logger.Nop())
	require.NoError(t, err)

	cache := store.NewDurableStore(flat, logger.Nop())
	notifier := newSpyNotifier()
	actions := NewActionLogService(store.NewFlatActionRepository(flat, logger.Nop()), utils.NewUUIDGenerator(), RetryPolicy{}, notifier, logger.Nop())
	transport := newFakeTransport()
	gate := &fakeGate{online: true}

	api := NewOfflineAPIService(transport, cache, actions, gate, notifier, logger.Nop())

	return &apiFixture{api: api, actions: actions, cache: cache, transport: transport, gate: gate, notifier: notifier}
}

func TestOfflineAPI_Get_OnlineRefreshesCache(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.transport.responses["/books"] = json.RawMessage(`[{"id":"b-1","title":"Dune"}]`)

	body, err := f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b-1","title":"Dune"}]`, string(body))

	cached, err := f.cache.Get(ctx, store.CollectionBooks, "b-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Dune", cached["title"])
}

func TestOfflineAPI_Get_ConnectivityFailureFallsBack(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	// seed the cache with an earlier successful read
	f.transport.responses["/books"] = json.RawMessage(`[{"id":"b-1","title":"Dune"}]`)
	_, err := f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)

	// network dies
	f.transport.errs["/books"] = connectivityErr()

	body, err := f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b-1","title":"Dune"}]`, string(body))
	assert.False(t, f.gate.Online(), "connectivity failure must flip the gate offline")
}

func TestOfflineAPI_Get_ServerErrorPropagates(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	// cache holds data, but the server answers with an error while online
	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{"id": "b-1"}))
	f.transport.errs["/books"] = &adapter.StatusError{Code: http.StatusInternalServerError, Body: "boom"}

	_, err := f.api.Get(ctx, "/books", nil)
	require.Error(t, err)

	var statusErr *adapter.StatusError
	assert.ErrorAs(t, err, &statusErr, "a live server's error must never be masked by the cache")
	assert.True(t, f.gate.Online())
}

func TestOfflineAPI_Get_OfflineNoCacheUsesFallback(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false

	body, err := f.api.Get(context.Background(), "/books", json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
	assert.Equal(t, []string{"/books"}, f.notifier.fallbackServes, "fallback serve must be flagged")
}

func TestOfflineAPI_Get_OfflineCachedServeNotifies(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{"id": "b-1", "title": "Dune"}))
	f.gate.online = false

	_, err := f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/books"}, f.notifier.cachedServes, "cached serve must be flagged")
	assert.Empty(t, f.notifier.fallbackServes)

	_, err = f.api.Get(ctx, "/books/b-1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/books", "/books/b-1"}, f.notifier.cachedServes)
}

func TestOfflineAPI_Get_OfflineUnroutedEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false
	ctx := context.Background()

	// no local collection exists for this endpoint and no fallback was given
	_, err := f.api.Get(ctx, "/exchanges/pending", nil)
	assert.ErrorIs(t, err, ErrUnknownEndpoint)

	body, err := f.api.Get(ctx, "/exchanges/pending", json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
	assert.Equal(t, []string{"/exchanges/pending"}, f.notifier.fallbackServes)
}

func TestOfflineAPI_Get_OfflineNoCacheNoFallback(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false

	_, err := f.api.Get(context.Background(), "/books", nil)
	assert.ErrorIs(t, err, ErrNoCachedData)
}

func TestOfflineAPI_Get_OfflineSingleResource(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{"id": "b-7", "title": "Solaris"}))
	f.gate.online = false

	body, err := f.api.Get(ctx, "/books/b-7", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b-7","title":"Solaris"}`, string(body))
}

func TestOfflineAPI_Post_OfflineQueuesOptimistic(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false
	ctx := context.Background()

	body, err := f.api.Post(ctx, "/books", json.RawMessage(`{"title":"Dune"}`))
	require.NoError(t, err)

	var rec models.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	id, ok := rec.ID()
	require.True(t, ok)
	assert.Contains(t, id, "temp-")
	assert.Equal(t, "available", rec["status"])

	// the placeholder stays out of the durable store: once the real record
	// arrives via a merge refresh it would linger as a phantom duplicate
	cached, err := f.cache.Get(ctx, store.CollectionBooks, id)
	require.NoError(t, err)
	assert.Nil(t, cached, "temp record must not be persisted")

	all, err := f.cache.GetAll(ctx, store.CollectionBooks)
	require.NoError(t, err)
	assert.Empty(t, all)

	pending, err := f.actions.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.VerbPost, pending[0].Verb)
	assert.Equal(t, "/books", pending[0].Endpoint)
}

func TestOfflineAPI_Post_OfflineUnroutedStillQueues(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false
	ctx := context.Background()

	_, err := f.api.Post(ctx, "/exchanges/request", json.RawMessage(`{"bookId":"b-1"}`))
	assert.ErrorIs(t, err, ErrQueuedOffline)

	pending, err := f.actions.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "the action must be queued even without an optimistic shape")
}

func TestOfflineAPI_Post_ConnectivityFailureFallsBackToQueue(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.transport.errs["/books"] = connectivityErr()

	body, err := f.api.Post(ctx, "/books", json.RawMessage(`{"title":"Dune"}`))
	require.NoError(t, err)
	assert.Contains(t, string(body), "temp-")
	assert.False(t, f.gate.Online())
}

func TestOfflineAPI_Post_ServerErrorPropagates(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.transport.errs["/books"] = &adapter.StatusError{Code: http.StatusBadRequest, Body: "missing title"}

	_, err := f.api.Post(ctx, "/books", json.RawMessage(`{}`))
	require.Error(t, err)

	pending, listErr := f.actions.Pending(ctx)
	require.NoError(t, listErr)
	assert.Empty(t, pending, "a rejected request must not be queued")
}

func TestOfflineAPI_Patch_OfflineMergesIntoCache(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{
		"id": "b-1", "title": "Dune", "status": "available",
	}))
	f.gate.online = false

	body, err := f.api.Patch(ctx, "/books/b-1", json.RawMessage(`{"status":"reserved"}`))
	require.NoError(t, err)

	var rec models.Record
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "reserved", rec["status"])
	assert.Equal(t, "Dune", rec["title"], "untouched fields survive the merge")
	assert.NotEmpty(t, rec["updatedAt"])

	cached, err := f.cache.Get(ctx, store.CollectionBooks, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "reserved", cached["status"])
}

func TestOfflineAPI_Patch_OfflineUncachedQueuesWithoutResult(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false
	ctx := context.Background()

	_, err := f.api.Patch(ctx, "/books/b-9", json.RawMessage(`{"status":"reserved"}`))
	assert.ErrorIs(t, err, ErrQueuedOffline, "no cached baseline to merge into")

	pending, listErr := f.actions.Pending(ctx)
	require.NoError(t, listErr)
	require.Len(t, pending, 1, "the patch must still replay on sync")
	assert.Equal(t, models.VerbPatch, pending[0].Verb)

	// no fabricated record appears locally
	cached, err := f.cache.Get(ctx, store.CollectionBooks, "b-9")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestOfflineAPI_Delete_OfflineEvictsEagerly(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{"id": "b-1", "title": "Dune"}))
	f.gate.online = false

	require.NoError(t, f.api.Delete(ctx, "/books/b-1"))

	cached, err := f.cache.Get(ctx, store.CollectionBooks, "b-1")
	require.NoError(t, err)
	assert.Nil(t, cached, "deleted record must disappear from local reads immediately")

	pending, err := f.actions.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.VerbDelete, pending[0].Verb)
}

func TestOfflineAPI_Sync_ReportsFailedAction(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.gate.online = false
	_, err := f.api.Post(ctx, "/books", json.RawMessage(`{"title":"Dune"}`))
	require.NoError(t, err)

	f.gate.online = true
	f.transport.errs["/books"] = &adapter.StatusError{Code: http.StatusUnprocessableEntity, Body: "bad"}

	report, err := f.api.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"/books"}, f.notifier.failed)
	assert.Empty(t, f.notifier.completed)
}

func TestOfflineAPI_OfflineOnlineEdgeEvents(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.transport.errs["/books"] = connectivityErr()

	_, err := f.api.Get(ctx, "/books", json.RawMessage(`[]`))
	require.NoError(t, err)
	_, err = f.api.Get(ctx, "/books", json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.wentOffline, "one event per offline edge")
	assert.Equal(t, 0, f.notifier.backOnline)

	delete(f.transport.errs, "/books")
	f.transport.responses["/books"] = json.RawMessage(`[]`)
	f.gate.online = true

	_, err = f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)
	_, err = f.api.Get(ctx, "/books", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.backOnline, "one event per online edge")
}

func TestOfflineAPI_Sync_RefusedOffline(t *testing.T) {
	f := newAPIFixture(t)
	f.gate.online = false

	_, err := f.api.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSyncOffline)
}

// Full offline round trip: three mutations recorded offline drain in order
// on sync and the log ends up empty of completed entries.
func TestOfflineAPI_OfflineMutationsThenSync(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.PutOne(ctx, store.CollectionBooks, models.Record{"id": "b-1", "title": "Dune"}))
	require.NoError(t, f.cache.PutOne(ctx, store.CollectionWishlist, models.Record{"id": "w-1", "title": "Neuromancer"}))

	f.gate.online = false

	_, err := f.api.Post(ctx, "/books", json.RawMessage(`{"title":"Hyperion"}`))
	require.NoError(t, err)
	_, err = f.api.Patch(ctx, "/books/b-1", json.RawMessage(`{"status":"reserved"}`))
	require.NoError(t, err)
	require.NoError(t, f.api.Delete(ctx, "/wishlist/w-1"))

	pending, err := f.actions.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	// network returns
	f.gate.online = true

	report, err := f.api.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncReport{Completed: 3}, report)

	assert.Equal(t, []executedCall{
		{verb: models.VerbPost, endpoint: "/books"},
		{verb: models.VerbPatch, endpoint: "/books/b-1"},
		{verb: models.VerbDelete, endpoint: "/wishlist/w-1"},
	}, f.transport.replayed, "replay must follow enqueue order")
	assert.Equal(t, []string{"/books", "/books/b-1", "/wishlist/w-1"}, f.notifier.completed,
		"each synced action is reported")

	all, err := f.actions.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "completed actions are purged after sync")
}
