package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"arenahub/models"
)

type stubOracle struct {
	mu         sync.Mutex
	delta      int
	response   string
	scoreCalls int
	genCalls   int
}

func (s *stubOracle) ScoreImpact(ctx context.Context, text string, phase models.Phase, side models.Side) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreCalls++
	return s.delta
}

func (s *stubOracle) GenerateResponse(ctx context.Context, topic models.Topic, recent []string, difficulty string, phase models.Phase) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genCalls++
	return s.response
}

func (s *stubOracle) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreCalls, s.genCalls
}

type stubTopics struct{}

func (stubTopics) RandomTopic(ctx context.Context) models.Topic {
	return models.Topic{Title: "TEST TOPIC", Description: "a topic for tests"}
}

type recordingStore struct {
	mu       sync.Mutex
	results  []models.MatchResult
	messages []models.MatchMessage
}

func (s *recordingStore) SaveMatchResult(result models.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *recordingStore) SaveMatchMessage(msg models.MatchMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingStore) resultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

type castEvent struct {
	matchID string
	event   string
	payload interface{}
}

type recordingCast struct {
	mu      sync.Mutex
	events  []castEvent
	panicOn string
}

func (c *recordingCast) EmitToMatch(matchID, event string, payload interface{}) {
	if c.panicOn != "" && matchID == c.panicOn {
		panic("broadcast failure for " + matchID)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, castEvent{matchID: matchID, event: event, payload: payload})
}

func (c *recordingCast) count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func newTestEngine(delta int, response string) (*Engine, *stubOracle, *recordingStore, *recordingCast) {
	oracle := &stubOracle{delta: delta, response: response}
	store := &recordingStore{}
	cast := &recordingCast{}
	engine := NewEngine(NewMatchRegistry(), oracle, stubTopics{}, store, cast, time.Hour)
	return engine, oracle, store, cast
}

func TestJoinMatchCreatesLazily(t *testing.T) {
	engine, _, _, _ := newTestEngine(0, "")

	state := engine.JoinMatch("room-1", models.ModeCasual, "", models.InputChat, &models.Player{ID: "u1", Name: "Alice"})

	if state.Phase != models.PhaseLobby {
		t.Errorf("Expected new match in Lobby, got %s", state.Phase)
	}
	if state.TimeLeft != 15 {
		t.Errorf("Expected Lobby countdown of 15, got %d", state.TimeLeft)
	}
	if state.Momentum != 50 {
		t.Errorf("Expected neutral momentum 50, got %d", state.Momentum)
	}
	if state.Topic.Title != "TEST TOPIC" {
		t.Errorf("Expected topic to be fetched at creation, got %q", state.Topic.Title)
	}
	if state.LeftPlayer == nil || state.LeftPlayer.ID != "u1" {
		t.Errorf("Expected first joiner in the left seat, got %+v", state.LeftPlayer)
	}

	// Second join reuses the match and takes the right seat.
	state = engine.JoinMatch("room-1", models.ModeCasual, "", models.InputChat, &models.Player{ID: "u2", Name: "Bob"})
	if state.RightPlayer == nil || state.RightPlayer.ID != "u2" {
		t.Errorf("Expected second joiner in the right seat, got %+v", state.RightPlayer)
	}
	if engine.Registry().Len() != 1 {
		t.Errorf("Expected 1 registered match, got %d", engine.Registry().Len())
	}
}

func TestAIModeSynthesizesOpponent(t *testing.T) {
	engine, _, _, _ := newTestEngine(0, "")

	state := engine.JoinMatch("room-ai", models.ModeAI, "medium", models.InputChat, &models.Player{ID: "u1", Name: "Alice"})
	if state.RightPlayer == nil || state.RightPlayer.ID != "ai-bot" {
		t.Fatalf("Expected ai-bot in the right seat, got %+v", state.RightPlayer)
	}
}

func TestPhaseWalkAfter62Ticks(t *testing.T) {
	engine, _, _, _ := newTestEngine(0, "")
	engine.JoinMatch("room-walk", models.ModeAI, "medium", models.InputChat, nil)

	for i := 0; i < 62; i++ {
		engine.TickAll()
	}

	m, ok := engine.Registry().Get("room-walk")
	if !ok {
		t.Fatal("Match disappeared during phase walk")
	}
	state := m.State()
	if state.Phase != models.PhaseOpeningP2 {
		t.Errorf("Expected Opening_P2 after 62 ticks, got %s", state.Phase)
	}
	if state.TimeLeft != 45 {
		t.Errorf("Expected timeLeft 45 after 62 ticks, got %d", state.TimeLeft)
	}
}

func TestPhaseNeverRegresses(t *testing.T) {
	engine, _, _, _ := newTestEngine(0, "")
	engine.JoinMatch("room-mono", models.ModeCasual, "", models.InputChat, nil)
	m, _ := engine.Registry().Get("room-mono")

	last := -1
	for i := 0; i < 300; i++ {
		engine.TickAll()
		idx := m.State().Phase.Index()
		if idx < last {
			t.Fatalf("Phase regressed from index %d to %d at tick %d", last, idx, i+1)
		}
		last = idx
	}
	if m.State().Phase != models.PhaseResults {
		t.Errorf("Expected Results after full walk, got %s", m.State().Phase)
	}
}

func TestResultPersistedExactlyOnce(t *testing.T) {
	engine, _, store, cast := newTestEngine(0, "")
	engine.JoinMatch("room-end", models.ModeCasual, "", models.InputChat, &models.Player{ID: "u1", Name: "Alice"})

	m, _ := engine.Registry().Get("room-end")
	m.Mutex.Lock()
	m.Phase = models.PhaseClosingP2
	m.TimeLeft = 0
	m.Momentum = 61
	m.Mutex.Unlock()

	engine.TickAll() // transitions into Results

	if got := m.State().Phase; got != models.PhaseResults {
		t.Fatalf("Expected Results, got %s", got)
	}
	if store.resultCount() != 1 {
		t.Fatalf("Expected exactly one persisted result, got %d", store.resultCount())
	}
	store.mu.Lock()
	winner := store.results[0].Winner
	store.mu.Unlock()
	if winner != "RIGHT" {
		t.Errorf("Expected RIGHT winner at momentum 61, got %s", winner)
	}

	updatesBefore := cast.count(EventMatchUpdate)
	for i := 0; i < 5; i++ {
		engine.TickAll()
	}
	if store.resultCount() != 1 {
		t.Errorf("Expected terminal match to persist only once, got %d results", store.resultCount())
	}
	if cast.count(EventMatchUpdate) != updatesBefore {
		t.Errorf("Expected no further broadcasts for a terminal match")
	}
}

func TestEvictionAfterGrace(t *testing.T) {
	oracle := &stubOracle{}
	store := &recordingStore{}
	cast := &recordingCast{}
	engine := NewEngine(NewMatchRegistry(), oracle, stubTopics{}, store, cast, 0)

	engine.JoinMatch("room-evict", models.ModeCasual, "", models.InputChat, nil)
	m, _ := engine.Registry().Get("room-evict")
	m.Mutex.Lock()
	m.Phase = models.PhaseClosingP2
	m.TimeLeft = 0
	m.Mutex.Unlock()

	engine.TickAll() // enters Results
	if engine.Registry().Len() != 1 {
		t.Fatalf("Expected match to survive the tick it finished on")
	}

	engine.TickAll() // grace of zero: swept on the next tick
	if engine.Registry().Len() != 0 {
		t.Errorf("Expected terminal match to be evicted, registry still holds %d", engine.Registry().Len())
	}
}

func TestTickPanicIsContainedPerMatch(t *testing.T) {
	engine, _, _, cast := newTestEngine(0, "")
	cast.panicOn = "room-bad"

	engine.JoinMatch("room-bad", models.ModeCasual, "", models.InputChat, nil)
	engine.JoinMatch("room-good", models.ModeCasual, "", models.InputChat, nil)

	engine.TickAll()

	good, _ := engine.Registry().Get("room-good")
	if got := good.State().TimeLeft; got != 14 {
		t.Errorf("Expected healthy match to keep ticking, timeLeft = %d", got)
	}
}
