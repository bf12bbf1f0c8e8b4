package websocket

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"arenahub/internal/arena"
	"arenahub/models"
	"arenahub/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var arenaUpgrader = websocket.Upgrader{
	// In production, adjust the CheckOrigin function to allow only trusted origins.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is an inbound arena socket message.
type ClientMessage struct {
	Type       string `json:"type"`
	MatchID    string `json:"matchId,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	InputMode  string `json:"inputMode,omitempty"`
	Text       string `json:"text,omitempty"`
	Side       string `json:"side,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Username   string `json:"username,omitempty"`
}

// ArenaHandler upgrades the connection and serves the match socket:
// join, utterance and crowdVote events route into the engine; all match
// broadcasts flow back through the hub.
func ArenaHandler(engine *services.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := arenaUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("WebSocket upgrade error:", err)
			return
		}

		sessionID := uuid.NewString()
		sum := sha256.Sum256([]byte(sessionID))
		sess := &Session{
			conn:      conn,
			id:        sessionID,
			userID:    c.Query("userId"),
			username:  c.Query("username"),
			voterHash: hex.EncodeToString(sum[:]),
		}

		hub := GetHub()
		limiter := arena.NewVoteLimiter()
		voteConfig := arena.DefaultVoteLimitConfig()

		defer func() {
			if sess.matchID != "" {
				hub.Unregister(sess.matchID, sess)
			}
			conn.Close()
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("WebSocket read error for session %s: %v", sess.id, err)
				}
				break
			}

			var msg ClientMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("Failed to parse message: %v", err)
				continue
			}

			switch msg.Type {
			case "join":
				handleJoin(engine, hub, sess, msg)
			case "utterance":
				handleUtterance(engine, sess, msg)
			case "crowdVote":
				handleCrowdVote(engine, limiter, voteConfig, sess, msg)
			default:
				log.Printf("Unknown message type %q from session %s", msg.Type, sess.id)
			}
		}
	}
}

func handleJoin(engine *services.Engine, hub *Hub, sess *Session, msg ClientMessage) {
	if msg.MatchID == "" {
		return
	}

	mode := msg.Mode
	if mode == "" {
		mode = models.ModeCasual
	}
	inputMode := msg.InputMode
	if inputMode == "" {
		inputMode = models.InputVoice
	}

	var player *models.Player
	if msg.UserID != "" || sess.userID != "" {
		id := msg.UserID
		if id == "" {
			id = sess.userID
		}
		name := msg.Username
		if name == "" {
			name = sess.username
		}
		player = &models.Player{ID: id, Name: name}
	}

	// Leaving one match for another releases the old subscription.
	if sess.matchID != "" && sess.matchID != msg.MatchID {
		hub.Unregister(sess.matchID, sess)
	}

	state := engine.JoinMatch(msg.MatchID, mode, msg.Difficulty, inputMode, player)
	sess.matchID = msg.MatchID
	hub.Register(msg.MatchID, sess)

	if err := sess.WriteJSON(map[string]interface{}{
		"type":      services.EventMatchInit,
		"payload":   state,
		"timestamp": time.Now().Unix(),
	}); err != nil {
		log.Printf("WebSocket write error for session %s: %v", sess.id, err)
	}
}

func handleUtterance(engine *services.Engine, sess *Session, msg ClientMessage) {
	matchID := msg.MatchID
	if matchID == "" {
		matchID = sess.matchID
	}
	if matchID == "" || msg.Text == "" {
		return
	}

	side := models.Side(msg.Side)
	if side == "" {
		side = models.SideLeft
	}
	engine.ApplyUtterance(matchID, msg.Text, side)
}

func handleCrowdVote(engine *services.Engine, limiter *arena.VoteLimiter, config arena.VoteLimitConfig, sess *Session, msg ClientMessage) {
	matchID := msg.MatchID
	if matchID == "" {
		matchID = sess.matchID
	}
	if matchID == "" {
		return
	}

	if !limiter.Allow(matchID, sess.voterHash, config) {
		return
	}
	engine.ApplyCrowdVote(matchID, models.Side(msg.Side))
}
