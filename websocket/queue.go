package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"arenahub/models"
	"arenahub/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var queueUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RatingLookup resolves a player's ranked rating from the user store.
type RatingLookup func(userID string) int

// QueueClient represents a client connected to the ranked queue socket.
type QueueClient struct {
	conn         *websocket.Conn
	connectionID string
	send         chan []byte
}

type queueRoom struct {
	clients map[string]*QueueClient
	mutex   sync.RWMutex
}

var rankedQueueRoom = &queueRoom{
	clients: make(map[string]*QueueClient),
}

var queueCallbackOnce sync.Once

// QueueMessage represents messages exchanged over the queue socket.
type QueueMessage struct {
	Type         string `json:"type"`
	UserID       string `json:"userId,omitempty"`
	Username     string `json:"username,omitempty"`
	InputMode    string `json:"inputMode,omitempty"`
	MatchID      string `json:"matchId,omitempty"`
	OpponentName string `json:"opponentName,omitempty"`
	Error        string `json:"error,omitempty"`
}

// QueueHandler serves the ranked matchmaking socket. Disconnecting
// removes the player from the queue.
func QueueHandler(mm *services.Matchmaker, ratings RatingLookup) gin.HandlerFunc {
	queueCallbackOnce.Do(func() {
		mm.SetMatchFoundCallback(broadcastMatchFound)
	})

	return func(c *gin.Context) {
		conn, err := queueUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		client := &QueueClient{
			conn:         conn,
			connectionID: uuid.NewString(),
			send:         make(chan []byte, 256),
		}

		rankedQueueRoom.mutex.Lock()
		rankedQueueRoom.clients[client.connectionID] = client
		rankedQueueRoom.mutex.Unlock()

		go client.writePump()
		go client.readPump(mm, ratings)
	}
}

// readPump handles incoming messages from the client
func (c *QueueClient) readPump(mm *services.Matchmaker, ratings RatingLookup) {
	defer func() {
		c.conn.Close()
		rankedQueueRoom.mutex.Lock()
		delete(rankedQueueRoom.clients, c.connectionID)
		rankedQueueRoom.mutex.Unlock()
		mm.LeaveQueue(c.connectionID)
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Queue socket read error: %v", err)
			}
			break
		}

		var msg QueueMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "queueJoin":
			inputMode := msg.InputMode
			if inputMode == "" {
				inputMode = models.InputVoice
			}
			rating := 1200
			if ratings != nil {
				rating = ratings(msg.UserID)
			}
			entry := models.QueueEntry{
				ConnectionID: c.connectionID,
				UserID:       msg.UserID,
				Username:     msg.Username,
				Rating:       rating,
				InputMode:    inputMode,
			}
			if !mm.JoinQueue(entry) {
				c.sendEvent(QueueMessage{Type: services.EventQueueJoined})
			}

		case "queueLeave":
			mm.LeaveQueue(c.connectionID)
			c.sendEvent(QueueMessage{Type: services.EventQueueLeft})
		}
	}
}

// writePump handles outgoing messages to the client
func (c *QueueClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *QueueClient) sendEvent(msg QueueMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		close(c.send)
		rankedQueueRoom.mutex.Lock()
		delete(rankedQueueRoom.clients, c.connectionID)
		rankedQueueRoom.mutex.Unlock()
	}
}

// broadcastMatchFound notifies both paired players of their fresh match.
func broadcastMatchFound(matchID string, a, b models.QueueEntry) {
	notify := func(target, opponent models.QueueEntry) {
		rankedQueueRoom.mutex.RLock()
		client, ok := rankedQueueRoom.clients[target.ConnectionID]
		rankedQueueRoom.mutex.RUnlock()
		if !ok {
			return
		}
		client.sendEvent(QueueMessage{
			Type:         services.EventMatchFound,
			MatchID:      matchID,
			OpponentName: opponent.Username,
			InputMode:    target.InputMode,
		})
	}

	notify(a, b)
	notify(b, a)
}
