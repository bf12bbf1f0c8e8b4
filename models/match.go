package models

import (
	"sync"
	"time"
)

// Phase is a named, timed segment of a match. Phases only move forward.
type Phase string

const (
	PhaseLobby      Phase = "Lobby"
	PhaseOpeningP1  Phase = "Opening_P1"
	PhaseOpeningP2  Phase = "Opening_P2"
	PhaseRebuttalP1 Phase = "Rebuttal_P1"
	PhaseRebuttalP2 Phase = "Rebuttal_P2"
	PhaseCrossfire  Phase = "Crossfire"
	PhaseClosingP1  Phase = "Closing_P1"
	PhaseClosingP2  Phase = "Closing_P2"
	PhaseResults    Phase = "Results"
)

// PhaseOrder is the fixed forward sequence of a match.
var PhaseOrder = []Phase{
	PhaseLobby,
	PhaseOpeningP1,
	PhaseOpeningP2,
	PhaseRebuttalP1,
	PhaseRebuttalP2,
	PhaseCrossfire,
	PhaseClosingP1,
	PhaseClosingP2,
	PhaseResults,
}

var phaseDurations = map[Phase]int{
	PhaseLobby:      15,
	PhaseOpeningP1:  45,
	PhaseOpeningP2:  45,
	PhaseRebuttalP1: 30,
	PhaseRebuttalP2: 30,
	PhaseCrossfire:  60,
	PhaseClosingP1:  30,
	PhaseClosingP2:  30,
	PhaseResults:    0,
}

// Index returns the position of the phase in PhaseOrder, or -1 if unknown.
func (p Phase) Index() int {
	for i, phase := range PhaseOrder {
		if phase == p {
			return i
		}
	}
	return -1
}

// Next returns the following phase. The terminal phase returns itself.
func (p Phase) Next() Phase {
	i := p.Index()
	if i < 0 || i >= len(PhaseOrder)-1 {
		return PhaseResults
	}
	return PhaseOrder[i+1]
}

// Duration returns the fixed countdown length of the phase in seconds.
func (p Phase) Duration() int {
	return phaseDurations[p]
}

// Terminal reports whether the phase ends the match.
func (p Phase) Terminal() bool {
	return p == PhaseResults
}

// Scoreable reports whether utterances in this phase may affect momentum.
func (p Phase) Scoreable() bool {
	return p != PhaseLobby && p != PhaseResults
}

// SpeakerAllowed reports whether the given side holds the floor in this phase.
func (p Phase) SpeakerAllowed(side Side) bool {
	switch p {
	case PhaseOpeningP1, PhaseRebuttalP1, PhaseClosingP1:
		return side == SideLeft
	case PhaseOpeningP2, PhaseRebuttalP2, PhaseClosingP2:
		return side == SideRight
	case PhaseCrossfire:
		return side == SideLeft || side == SideRight
	default:
		return false
	}
}

// Side identifies who produced an utterance or received a vote.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideSystem Side = "system"
)

// Match modes.
const (
	ModeCasual = "casual"
	ModeAI     = "ai"
	ModeRanked = "ranked"
)

// Input modes.
const (
	InputVoice = "voice"
	InputChat  = "chat"
)

// Topic is the debate subject, fixed for the lifetime of a match.
type Topic struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
}

// Player identifies a seated participant.
type Player struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Match is one live debate session. All mutable fields are guarded by Mutex;
// handlers lock it around every read-modify-write and release it before any
// external call.
type Match struct {
	ID          string
	Phase       Phase
	TimeLeft    int
	Momentum    int
	Mode        string
	Difficulty  string
	InputMode   string
	Transcript  []string
	Topic       Topic
	LeftPlayer  *Player
	RightPlayer *Player
	ResultSaved bool
	EndedAt     time.Time

	Mutex sync.Mutex
}

// NewMatch creates a match in the Lobby phase with neutral momentum.
// In AI mode the right seat is taken by the synthetic opponent.
func NewMatch(id, mode, difficulty, inputMode string, topic Topic) *Match {
	m := &Match{
		ID:         id,
		Phase:      PhaseLobby,
		TimeLeft:   PhaseLobby.Duration(),
		Momentum:   50,
		Mode:       mode,
		Difficulty: difficulty,
		InputMode:  inputMode,
		Topic:      topic,
	}
	if mode == ModeAI {
		m.RightPlayer = &Player{ID: "ai-bot", Name: "ARENA_AI"}
	}
	return m
}

// MatchState is a point-in-time copy of a match's observable fields,
// safe to marshal and hand to clients.
type MatchState struct {
	ID          string   `json:"id"`
	Phase       Phase    `json:"phase"`
	TimeLeft    int      `json:"timeLeft"`
	Momentum    int      `json:"momentum"`
	Mode        string   `json:"mode"`
	Difficulty  string   `json:"difficulty,omitempty"`
	InputMode   string   `json:"inputMode"`
	Transcript  []string `json:"transcript"`
	Topic       Topic    `json:"topic"`
	LeftPlayer  *Player  `json:"leftPlayer,omitempty"`
	RightPlayer *Player  `json:"rightPlayer,omitempty"`
}

// State snapshots the match under its lock.
func (m *Match) State() MatchState {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()
	return m.StateLocked()
}

// StateLocked builds a snapshot; the caller must hold m.Mutex.
func (m *Match) StateLocked() MatchState {
	transcript := make([]string, len(m.Transcript))
	copy(transcript, m.Transcript)
	return MatchState{
		ID:          m.ID,
		Phase:       m.Phase,
		TimeLeft:    m.TimeLeft,
		Momentum:    m.Momentum,
		Mode:        m.Mode,
		Difficulty:  m.Difficulty,
		InputMode:   m.InputMode,
		Transcript:  transcript,
		Topic:       m.Topic,
		LeftPlayer:  m.LeftPlayer,
		RightPlayer: m.RightPlayer,
	}
}
