package websocket

import (
	"log"
	"sync"
	"time"

	"arenahub/internal/arena"

	"github.com/gorilla/websocket"
)

// Hub fans match events out to every connected client of a match. It
// implements the engine's Broadcaster contract.
type Hub struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

// Room holds the connections subscribed to one match.
type Room struct {
	matchID string
	clients map[*websocket.Conn]*Session
	mu      sync.RWMutex
}

// Session is the per-connection state, created on upgrade and released
// on disconnect.
type Session struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	id        string
	userID    string
	username  string
	matchID   string
	voterHash string
}

// WriteJSON safely writes JSON to the session's connection.
func (s *Session) WriteJSON(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]*Room),
	}
}

var globalHub *Hub
var hubOnce sync.Once

// GetHub returns the process-wide hub instance.
func GetHub() *Hub {
	hubOnce.Do(func() {
		globalHub = NewHub()
	})
	return globalHub
}

// Register subscribes a session to a match's broadcasts.
func (h *Hub) Register(matchID string, sess *Session) {
	h.mu.Lock()
	room, exists := h.rooms[matchID]
	if !exists {
		room = &Room{
			matchID: matchID,
			clients: make(map[*websocket.Conn]*Session),
		}
		h.rooms[matchID] = room
	}
	h.mu.Unlock()

	room.mu.Lock()
	room.clients[sess.conn] = sess
	count := len(room.clients)
	room.mu.Unlock()

	log.Printf("Client %s joined match %s (total clients: %d)", sess.id, matchID, count)
}

// Unregister drops a session; empty rooms are deleted.
func (h *Hub) Unregister(matchID string, sess *Session) {
	h.mu.Lock()
	room, exists := h.rooms[matchID]
	h.mu.Unlock()
	if !exists {
		return
	}

	room.mu.Lock()
	delete(room.clients, sess.conn)
	empty := len(room.clients) == 0
	room.mu.Unlock()

	if empty {
		h.mu.Lock()
		delete(h.rooms, matchID)
		h.mu.Unlock()
		log.Printf("Room %s deleted as it became empty", matchID)
	}
}

// EmitToMatch broadcasts an event to every subscriber of the match and
// mirrors it to the match's Redis stream when one is configured.
func (h *Hub) EmitToMatch(matchID, event string, payload interface{}) {
	h.mu.RLock()
	room, exists := h.rooms[matchID]
	h.mu.RUnlock()

	envelope := map[string]interface{}{
		"type":      event,
		"payload":   payload,
		"timestamp": time.Now().Unix(),
	}

	if exists {
		room.mu.RLock()
		sessions := make([]*Session, 0, len(room.clients))
		for _, sess := range room.clients {
			sessions = append(sessions, sess)
		}
		room.mu.RUnlock()

		for _, sess := range sessions {
			if err := sess.WriteJSON(envelope); err != nil {
				log.Printf("WebSocket write error in match %s: %v", matchID, err)
			}
		}
	}

	if ev, err := arena.NewEvent(event, payload); err == nil {
		arena.PublishEvent(matchID, ev) // Ignore error if Redis unavailable
	}
}
