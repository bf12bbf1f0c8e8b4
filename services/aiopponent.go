package services

import (
	"context"

	"arenahub/models"
)

const aiLinePrefix = "[AI] "

// recentWindow is how many transcript lines the opponent sees as context.
const recentWindow = 5

// maybeInjectAI decides, once per tick and before the countdown
// decrement, whether the AI opponent speaks. Two independent triggers:
//
//   - turn start: in an AI speaking phase, fire exactly once when the
//     countdown reads two seconds under the phase duration, simulating
//     thinking latency;
//   - crossfire cadence: fire on every 15-second boundary of remaining
//     time while the clock is running.
func (e *Engine) maybeInjectAI(m *models.Match) {
	m.Mutex.Lock()
	phase := m.Phase
	timeLeft := m.TimeLeft
	topic := m.Topic
	difficulty := m.Difficulty
	recent := make([]string, 0, recentWindow)
	if n := len(m.Transcript); n > 0 {
		start := n - recentWindow
		if start < 0 {
			start = 0
		}
		recent = append(recent, m.Transcript[start:]...)
	}
	m.Mutex.Unlock()

	var trigger bool
	switch phase {
	case models.PhaseOpeningP2, models.PhaseRebuttalP2, models.PhaseClosingP2:
		trigger = timeLeft == phase.Duration()-2
	case models.PhaseCrossfire:
		trigger = timeLeft > 0 && timeLeft%15 == 0
	}
	if !trigger {
		return
	}

	text := e.generateResponse(topic, recent, difficulty, phase)
	if text == "" {
		// Generation failed; skip this cycle silently.
		return
	}
	e.applyScored(m, aiLinePrefix+text, models.SideRight)
}

func (e *Engine) generateResponse(topic models.Topic, recent []string, difficulty string, phase models.Phase) string {
	if e.oracle == nil {
		return "The silence of the machine is my only argument."
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.oracleTimeout)
	defer cancel()
	return e.oracle.GenerateResponse(ctx, topic, recent, difficulty, phase)
}
