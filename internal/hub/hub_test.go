package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"voice-order-service/internal/models"
	"voice-order-service/internal/orders"
	"voice-order-service/internal/session"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	orders  map[string]*models.OrderRecord
	pending map[string][]models.LineItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:  make(map[string]*models.OrderRecord),
		pending: make(map[string][]models.LineItem),
	}
}

func (f *fakeStore) SaveCurrentOrder(_ context.Context, room string, rec *models.OrderRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.orders[room] = &cp
	return nil
}

func (f *fakeStore) LoadCurrentOrder(_ context.Context, room string) (*models.OrderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.orders[room]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) DeleteCurrentOrder(_ context.Context, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, room)
	return nil
}

func (f *fakeStore) DeletePendingCart(_ context.Context, room string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, room)
	return nil
}

func (f *fakeStore) SavePendingCart(_ context.Context, room string, items []models.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[room] = items
	return nil
}

func (f *fakeStore) LoadPendingCart(_ context.Context, room string) ([]models.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[room], nil
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func startHubServer(t *testing.T, h *Hub, room string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Join(r.Context(), room, "guest-test", conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := strings.Replace(srv.URL, "http", "ws", 1)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) session.State {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Topic != TopicState {
			continue
		}

		var state session.State
		require.NoError(t, json.Unmarshal(env.Payload, &state))
		return state
	}
}

func TestJoinReceivesInitialState(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")
	conn := dial(t, srv)

	state := readState(t, conn)
	assert.Equal(t, session.ViewMenu, state.View)
	assert.Empty(t, state.Cart)
}

func TestInboundCommandBroadcastsNewState(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")
	conn := dial(t, srv)
	readState(t, conn) // initial snapshot

	frame, err := json.Marshal(Envelope{
		Topic:   models.TopicAnimation,
		Payload: json.RawMessage(`{"type":"add_to_cart","item":{"name":"Margherita","size":"M","price":300}}`),
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	state := readState(t, conn)
	require.Len(t, state.Cart, 1)
	assert.Equal(t, "Margherita", state.Cart[0].Name)
	assert.Equal(t, 315.0, state.Totals.Total)
}

func TestStateFansOutToAllRoomClients(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")
	first := dial(t, srv)
	second := dial(t, srv)
	readState(t, first)
	readState(t, second)

	frame, err := json.Marshal(Envelope{
		Topic:   models.TopicAnimation,
		Payload: json.RawMessage(`{"type":"open_cart"}`),
	})
	require.NoError(t, err)
	require.NoError(t, first.WriteMessage(websocket.TextMessage, frame))

	assert.True(t, readState(t, first).CartOpen)
	assert.True(t, readState(t, second).CartOpen)
}

func TestRejoinAfterLastClientLeaves(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")

	first := dial(t, srv)
	readState(t, first)
	first.Close()

	assert.Eventually(t, func() bool {
		return h.Session("room-1") == nil
	}, 2*time.Second, 20*time.Millisecond)

	second := dial(t, srv)
	readState(t, second)

	frame, err := json.Marshal(Envelope{
		Topic:   models.TopicAnimation,
		Payload: json.RawMessage(`{"type":"add_to_cart","item":{"name":"Coke","price":60}}`),
	})
	require.NoError(t, err)
	require.NoError(t, second.WriteMessage(websocket.TextMessage, frame))

	state := readState(t, second)
	require.Len(t, state.Cart, 1)
	assert.Equal(t, "Coke", state.Cart[0].Name)
}

func TestJoinLeaveChurnKeepsRoomConsistent(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")
	url := strings.Replace(srv.URL, "http", "ws", 1)

	// Overlapping joins and leaves race room creation against teardown by
	// the departing last client.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				conn, _, err := websocket.DefaultDialer.Dial(url, nil)
				if err != nil {
					continue
				}
				conn.Close()
			}
		}()
	}
	wg.Wait()

	// A fresh client must land in a live session whose commands still apply.
	conn := dial(t, srv)
	readState(t, conn)

	frame, err := json.Marshal(Envelope{
		Topic:   models.TopicAnimation,
		Payload: json.RawMessage(`{"type":"open_cart"}`),
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))

	assert.True(t, readState(t, conn).CartOpen)
}

func TestRoomClosesWhenLastClientLeaves(t *testing.T) {
	store := newFakeStore()
	h := NewHub(orders.NewService(store, nil, nil, 5*time.Minute), store, 10*time.Second)
	defer h.Close()

	srv := startHubServer(t, h, "room-1")
	conn := dial(t, srv)
	readState(t, conn)
	require.NotNil(t, h.Session("room-1"))

	conn.Close()

	assert.Eventually(t, func() bool {
		return h.Session("room-1") == nil
	}, 2*time.Second, 20*time.Millisecond)
}
