package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// envelope is the tagged inbound frame: event kind plus structured payload.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan outbound
}

// Hub tracks live connections and their room membership, and implements
// app.Emitter. A room is the set of connections joined to one quiz id.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{} // quizID -> connection ids
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// remove drops the connection from every room and closes its send channel,
// stopping the writer goroutine.
func (h *Hub) remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for quizID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, quizID)
		}
	}
	close(c.send)
}

// JoinRoom is idempotent; a connection can sit in several quiz rooms.
func (h *Hub) JoinRoom(quizID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	if h.rooms[quizID] == nil {
		h.rooms[quizID] = make(map[string]struct{})
	}
	h.rooms[quizID][connID] = struct{}{}
}

// ToRoom delivers the event to every connection joined to the quiz.
func (h *Hub) ToRoom(quizID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[quizID] {
		h.deliverLocked(connID, outbound{Type: event, Payload: payload})
	}
}

// ToConn delivers the event to one connection, if it is still around.
func (h *Hub) ToConn(connID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(connID, outbound{Type: event, Payload: payload})
}

// deliverLocked enqueues without blocking; a client that cannot keep up
// loses the event rather than stalling the whole room.
func (h *Hub) deliverLocked(connID string, msg outbound) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.log.Warn("slow client, event dropped",
			zap.String("connId", connID),
			zap.String("event", msg.Type))
	}
}
