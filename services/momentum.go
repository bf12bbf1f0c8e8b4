package services

import (
	"context"
	"log"

	"arenahub/models"
)

// ApplyUtterance routes a spoken or typed contribution through the
// scoring pipeline. Unknown match ids are ignored.
func (e *Engine) ApplyUtterance(matchID, text string, side models.Side) {
	m, ok := e.registry.Get(matchID)
	if !ok {
		return
	}
	e.applyScored(m, text, side)
}

// applyScored appends the utterance, asks the oracle for a delta and
// nudges momentum. Off-turn utterances are dropped before anything is
// recorded; that admission rule is what keeps spam from moving the meter.
func (e *Engine) applyScored(m *models.Match, text string, side models.Side) {
	if text == "" {
		return
	}

	m.Mutex.Lock()
	phase := m.Phase
	if !phase.Scoreable() {
		m.Mutex.Unlock()
		return
	}
	if side != models.SideSystem && !phase.SpeakerAllowed(side) {
		m.Mutex.Unlock()
		return
	}
	m.Transcript = append(m.Transcript, text)
	var userID string
	switch side {
	case models.SideLeft:
		if m.LeftPlayer != nil {
			userID = m.LeftPlayer.ID
		}
	case models.SideRight:
		if m.RightPlayer != nil {
			userID = m.RightPlayer.ID
		}
	}
	m.Mutex.Unlock()

	// The oracle call happens outside the lock; a slow judgement may
	// land after the phase has advanced, which is tolerated.
	delta := 0
	if side != models.SideSystem && e.oracle != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.oracleTimeout)
		delta = e.oracle.ScoreImpact(ctx, text, phase, side)
		cancel()
	}

	m.Mutex.Lock()
	if m.Phase.Terminal() {
		m.Mutex.Unlock()
		return
	}
	m.Momentum = clampMomentum(m.Momentum + delta)
	momentum := m.Momentum
	m.Mutex.Unlock()

	d := delta
	e.cast.EmitToMatch(m.ID, EventMatchUpdate, UpdatePayload{
		Momentum:   momentum,
		Delta:      &d,
		Transcript: text,
	})

	if e.store != nil {
		err := e.store.SaveMatchMessage(models.MatchMessage{
			MatchID: m.ID,
			UserID:  userID,
			Text:    text,
			Phase:   phase,
			Delta:   delta,
		})
		if err != nil {
			log.Printf("Failed to persist message for match %s: %v", m.ID, err)
		}
	}
}

// ApplyCrowdVote applies a fixed ±1 audience nudge. Votes bypass the
// oracle entirely and are accepted in every phase except Results.
func (e *Engine) ApplyCrowdVote(matchID string, side models.Side) {
	m, ok := e.registry.Get(matchID)
	if !ok {
		return
	}
	if side != models.SideLeft && side != models.SideRight {
		return
	}

	delta := 1
	if side == models.SideLeft {
		delta = -1
	}

	m.Mutex.Lock()
	if m.Phase.Terminal() {
		m.Mutex.Unlock()
		return
	}
	m.Momentum = clampMomentum(m.Momentum + delta)
	momentum := m.Momentum
	m.Mutex.Unlock()

	d := delta
	e.cast.EmitToMatch(matchID, EventMatchUpdate, UpdatePayload{
		Momentum: momentum,
		Delta:    &d,
	})
}

// clampMomentum keeps momentum inside [0,100] no matter what delta the
// oracle produced; out-of-contract values are absorbed here, not rejected.
func clampMomentum(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
