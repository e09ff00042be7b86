// Package hub fans session state out to the websocket clients of each room
// and feeds their data-channel messages into the room's session.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"voice-order-service/internal/orders"
	"voice-order-service/internal/session"
	"voice-order-service/internal/util"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Envelope is the wire frame for every websocket message, in both directions.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Outbound topics.
const (
	TopicState  = "state"
	TopicNotice = "notice"
)

// SnapshotStore is re-exported for the session factory.
type SnapshotStore = session.SnapshotStore

// Hub owns one Room per active room name, creating sessions on demand and
// tearing them down when the last client leaves.
type Hub struct {
	orders     *orders.Service
	snapshots  SnapshotStore
	previewTTL time.Duration
	logger     *zap.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewHub creates a hub with the dependencies new sessions need.
func NewHub(orderSvc *orders.Service, snapshots SnapshotStore, previewTTL time.Duration) *Hub {
	return &Hub{
		orders:     orderSvc,
		snapshots:  snapshots,
		previewTTL: previewTTL,
		logger:     util.GetLogger(),
		rooms:      make(map[string]*Room),
	}
}

// Join attaches a websocket connection to a room and blocks until the
// connection closes. The room and its session are created on first join.
// Membership changes and the room registry move together under h.mu, so a
// join can never land in a room that is being torn down.
func (h *Hub) Join(ctx context.Context, roomName, identity string, conn *websocket.Conn) {
	h.mu.Lock()
	room, ok := h.rooms[roomName]
	if !ok {
		sess := session.New(roomName, h.orders, h.snapshots, h.previewTTL)
		room = newRoom(roomName, sess, h.logger)
		sess.SetPublisher(room)
		sess.Start(ctx)
		h.rooms[roomName] = room
	}
	client := newClient(room, identity, conn)
	room.register(client)
	h.mu.Unlock()

	util.ConnectedClients.Inc()
	h.logger.Info("Client joined room",
		zap.String("room", roomName),
		zap.String("identity", identity))

	client.run(ctx)

	util.ConnectedClients.Dec()
	h.mu.Lock()
	empty := room.unregister(client)
	if empty {
		delete(h.rooms, roomName)
	}
	h.mu.Unlock()
	if empty {
		room.close()
		h.logger.Info("Room closed", zap.String("room", roomName))
	}
	h.logger.Info("Client left room",
		zap.String("room", roomName),
		zap.String("identity", identity))
}

// Session returns the live session for a room, or nil when no client is
// connected to it.
func (h *Hub) Session(roomName string) *session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomName]
	if !ok {
		return nil
	}
	return room.session
}

// Close tears down every room, e.g. on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for _, r := range rooms {
		r.close()
	}
}

// Room broadcasts session output to its clients. It is the session's
// Publisher.
type Room struct {
	name    string
	session *session.Session
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func newRoom(name string, sess *session.Session, logger *zap.Logger) *Room {
	return &Room{
		name:    name,
		session: sess,
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// PublishState broadcasts a state snapshot to every client in the room.
func (r *Room) PublishState(state session.State) {
	r.broadcast(TopicState, state)
}

// PublishNotice broadcasts a user-facing notice to every client in the room.
func (r *Room) PublishNotice(notice session.Notice) {
	r.broadcast(TopicNotice, notice)
}

func (r *Room) broadcast(topic string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to marshal broadcast", zap.String("topic", topic), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Topic: topic, Payload: body})
	if err != nil {
		r.logger.Error("Failed to marshal envelope", zap.String("topic", topic), zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		select {
		case c.send <- frame:
		default:
			// A client that cannot keep up is dropped rather than
			// stalling the room.
			r.logger.Warn("Dropping slow client",
				zap.String("room", r.name),
				zap.String("identity", c.identity))
			close(c.send)
			delete(r.clients, c)
		}
	}
}

func (r *Room) register(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()

	// Bring the new client up to date immediately.
	body, err := json.Marshal(r.session.State())
	if err != nil {
		return
	}
	frame, err := json.Marshal(Envelope{Topic: TopicState, Payload: body})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// unregister removes a client and reports whether the room is now empty.
func (r *Room) unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	return len(r.clients) == 0
}

func (r *Room) close() {
	r.mu.Lock()
	for c := range r.clients {
		close(c.send)
		delete(r.clients, c)
	}
	r.mu.Unlock()
	r.session.Close()
}
