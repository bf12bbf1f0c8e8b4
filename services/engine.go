package services

import (
	"context"
	"log"
	"time"

	"arenahub/models"
)

// ScoringOracle judges utterances and speaks for the AI opponent. Both
// methods recover internally: ScoreImpact yields 0 and GenerateResponse a
// fallback line on any failure, so callers never branch on errors.
type ScoringOracle interface {
	ScoreImpact(ctx context.Context, text string, phase models.Phase, side models.Side) int
	GenerateResponse(ctx context.Context, topic models.Topic, recent []string, difficulty string, phase models.Phase) string
}

// TopicProvider supplies the debate subject for a new match. It must
// always return some topic.
type TopicProvider interface {
	RandomTopic(ctx context.Context) models.Topic
}

// ResultStore persists final results and scored messages. Fire-and-forget:
// errors are logged by the engine, never surfaced to players.
type ResultStore interface {
	SaveMatchResult(result models.MatchResult) error
	SaveMatchMessage(msg models.MatchMessage) error
}

// Broadcaster fans an event out to every subscriber of a match.
type Broadcaster interface {
	EmitToMatch(matchID, event string, payload interface{})
}

// Outbound event names.
const (
	EventMatchInit       = "matchInit"
	EventMatchUpdate     = "matchUpdate"
	EventPhaseTransition = "phaseTransition"
	EventQueueJoined     = "queueJoined"
	EventQueueLeft       = "queueLeft"
	EventMatchFound      = "matchFound"
)

// UpdatePayload carries a momentum change to clients.
type UpdatePayload struct {
	Momentum   int          `json:"momentum"`
	Delta      *int         `json:"delta,omitempty"`
	Transcript string       `json:"transcript,omitempty"`
	Phase      models.Phase `json:"phase,omitempty"`
	TimeLeft   *int         `json:"timeLeft,omitempty"`
}

// TransitionPayload announces a phase change.
type TransitionPayload struct {
	Phase    models.Phase `json:"phase"`
	TimeLeft int          `json:"timeLeft"`
}

// Engine orchestrates every live match: phase countdowns, momentum
// scoring, AI turns and result persistence. All match mutation funnels
// through it.
type Engine struct {
	registry      *MatchRegistry
	oracle        ScoringOracle
	topics        TopicProvider
	store         ResultStore
	cast          Broadcaster
	evictionGrace time.Duration
	oracleTimeout time.Duration
}

// NewEngine wires the engine to its collaborators. oracle, topics and
// store may be nil; the engine then degrades to neutral scoring, the
// default topic and no persistence.
func NewEngine(registry *MatchRegistry, oracle ScoringOracle, topics TopicProvider, store ResultStore, cast Broadcaster, evictionGrace time.Duration) *Engine {
	return &Engine{
		registry:      registry,
		oracle:        oracle,
		topics:        topics,
		store:         store,
		cast:          cast,
		evictionGrace: evictionGrace,
		oracleTimeout: 8 * time.Second,
	}
}

// SetOracleTimeout overrides the per-call oracle deadline.
func (e *Engine) SetOracleTimeout(d time.Duration) {
	if d > 0 {
		e.oracleTimeout = d
	}
}

// Registry exposes the match registry for read-only surfaces.
func (e *Engine) Registry() *MatchRegistry {
	return e.registry
}

// JoinMatch creates the match lazily on first join and seats the player.
// It returns a snapshot for the matchInit event.
func (e *Engine) JoinMatch(matchID, mode, difficulty, inputMode string, player *models.Player) models.MatchState {
	m, ok := e.registry.Get(matchID)
	if !ok {
		// Fetch the topic before taking any lock; GetOrCreate
		// double-checks so a racing join wins harmlessly.
		topic := e.randomTopic()
		m, _ = e.registry.GetOrCreate(matchID, func() *models.Match {
			return models.NewMatch(matchID, mode, difficulty, inputMode, topic)
		})
	}

	m.Mutex.Lock()
	defer m.Mutex.Unlock()
	if player != nil {
		e.seatPlayerLocked(m, player)
	}
	return m.StateLocked()
}

// seatPlayerLocked assigns the first free seat. Re-joins by the same
// player keep their seat.
func (e *Engine) seatPlayerLocked(m *models.Match, player *models.Player) {
	if m.LeftPlayer != nil && m.LeftPlayer.ID == player.ID {
		return
	}
	if m.RightPlayer != nil && m.RightPlayer.ID == player.ID {
		return
	}
	if m.LeftPlayer == nil {
		m.LeftPlayer = player
		return
	}
	if m.RightPlayer == nil {
		m.RightPlayer = player
	}
}

func (e *Engine) randomTopic() models.Topic {
	if e.topics == nil {
		return models.Topic{Title: "AI vs HUMANITY", Description: "Will artificial intelligence eventually replace all human creativity?"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.oracleTimeout)
	defer cancel()
	return e.topics.RandomTopic(ctx)
}

// TickAll advances every registered match by one second. A panic inside
// one match's handler is contained so the rest keep ticking.
func (e *Engine) TickAll() {
	for _, m := range e.registry.All() {
		e.tickMatch(m)
	}
}

func (e *Engine) tickMatch(m *models.Match) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered panic ticking match %s: %v", m.ID, r)
		}
	}()

	m.Mutex.Lock()
	if m.Phase.Terminal() {
		endedAt := m.EndedAt
		m.Mutex.Unlock()
		if !endedAt.IsZero() && time.Since(endedAt) >= e.evictionGrace {
			e.registry.Remove(m.ID)
		}
		return
	}
	m.Mutex.Unlock()

	// AI turn check runs before the countdown decrement.
	if m.Mode == models.ModeAI {
		e.maybeInjectAI(m)
	}

	m.Mutex.Lock()
	var transitioned, finished bool
	if m.TimeLeft > 0 {
		m.TimeLeft--
	} else {
		m.Phase = m.Phase.Next()
		m.TimeLeft = m.Phase.Duration()
		transitioned = true
		if m.Phase.Terminal() && !m.ResultSaved {
			m.ResultSaved = true
			m.EndedAt = time.Now()
			finished = true
		}
	}
	state := m.StateLocked()
	m.Mutex.Unlock()

	if transitioned {
		e.cast.EmitToMatch(m.ID, EventPhaseTransition, TransitionPayload{
			Phase:    state.Phase,
			TimeLeft: state.TimeLeft,
		})
	}
	if finished {
		e.persistResult(state)
	}

	timeLeft := state.TimeLeft
	e.cast.EmitToMatch(m.ID, EventMatchUpdate, UpdatePayload{
		Momentum: state.Momentum,
		Phase:    state.Phase,
		TimeLeft: &timeLeft,
	})
}

// persistResult hands the final state to the store exactly once per match.
func (e *Engine) persistResult(state models.MatchState) {
	winner := "LEFT"
	if state.Momentum > 50 {
		winner = "RIGHT"
	}

	result := models.MatchResult{
		MatchID:       state.ID,
		FinalMomentum: state.Momentum,
		Winner:        winner,
		Transcript:    state.Transcript,
		Mode:          state.Mode,
		Difficulty:    state.Difficulty,
		InputMode:     state.InputMode,
		CreatedAt:     time.Now(),
	}
	if state.LeftPlayer != nil {
		result.LeftPlayerID = state.LeftPlayer.ID
	}
	if state.RightPlayer != nil {
		result.RightPlayerID = state.RightPlayer.ID
	}

	if e.store == nil {
		return
	}
	if err := e.store.SaveMatchResult(result); err != nil {
		log.Printf("Failed to persist result for match %s: %v", state.ID, err)
	}
}
