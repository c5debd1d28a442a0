package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/p2pbooks/exchange-client/internal/logger"
	"github.com/p2pbooks/exchange-client/models"
)

func TestDispatcher_TypedAndGenericHandlers(t *testing.T) {
	d := newEventDispatcher()

	notifications := make(chan models.Notification, 1)
	generic := make(chan string, 1)

	d.onNotification = append(d.onNotification, func(n models.Notification) { notifications <- n })
	d.generic[EventNotification] = append(d.generic[EventNotification], func(eventType string, _ json.RawMessage) {
		generic <- eventType
	})

	d.dispatch(Envelope{
		Type:    EventNotification,
		Payload: json.RawMessage(`{"id":"n-1","type":"wishlist_match","title":"Match found"}`),
	})

	select {
	case n := <-notifications:
		assert.Equal(t, "n-1", n.ID)
		assert.Equal(t, models.NotificationWishlistMatch, n.Type)
	case <-time.After(time.Second):
		t.Fatal("typed handler not invoked")
	}

	select {
	case eventType := <-generic:
		assert.Equal(t, EventNotification, eventType)
	case <-time.After(time.Second):
		t.Fatal("generic handler not invoked")
	}
}

func TestDispatcher_MalformedPayloadIgnored(t *testing.T) {
	d := newEventDispatcher()

	called := make(chan struct{}, 1)
	d.onMessageNew = append(d.onMessageNew, func(models.Message) { called <- struct{}{} })

	d.dispatch(Envelope{Type: EventMessageNew, Payload: json.RawMessage(`"not an object"`)})

	select {
	case <-called:
		t.Fatal("handler must not fire for an undecodable payload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReconnector_Backoff(t *testing.T) {
	r := newReconnector(&Config{
		ReconnectBaseDelay:   time.Second,
		ReconnectMaxDelay:    10 * time.Second,
		MaxReconnectAttempts: 3,
	})

	first := r.nextDelay()
	second := r.nextDelay()
	third := r.nextDelay()

	assert.GreaterOrEqual(t, first, time.Second)
	assert.Greater(t, second, first)
	assert.LessOrEqual(t, third, 10*time.Second)

	assert.False(t, r.shouldReconnect(), "attempts exhausted")

	r.reset()
	assert.True(t, r.shouldReconnect())
}

func TestClient_ConnectReceivesEvents(t *testing.T) {
	gotToken := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		env, _ := json.Marshal(Envelope{
			Type:    EventNotification,
			Payload: json.RawMessage(`{"id":"n-1","type":"book_interest","title":"Someone wants your book"}`),
		})
		require.NoError(t, conn.Write(r.Context(), websocket.MessageText, env))

		// keep the connection open until the client disconnects
		_, _, _ = conn.Read(r.Context())
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL}, func() string { return "tok-1" }, logger.Nop())

	received := make(chan models.Notification, 1)
	client.OnNotification(func(n models.Notification) { received <- n })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	assert.Equal(t, StateConnected, client.State())
	assert.Equal(t, "tok-1", <-gotToken)

	select {
	case n := <-received:
		assert.Equal(t, "n-1", n.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("notification not delivered")
	}

	require.NoError(t, client.Disconnect())
	assert.Equal(t, StateDisconnected, client.State())
}

func TestClient_ConnectIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		_, _, _ = conn.Read(r.Context())
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL}, nil, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, client.Connect(ctx))
	require.NoError(t, client.Connect(ctx), "second connect on an open channel is a no-op")

	require.NoError(t, client.Disconnect())
}

func TestClient_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Config{URL: url}, nil, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := client.Connect(ctx)
	assert.Error(t, err)
	assert.Equal(t, StateDisconnected, client.State())
}
