package services

import (
	"sync"
	"time"

	"arenahub/models"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ratingTolerance is the maximum rating gap between paired players.
const ratingTolerance = 200

// MatchFoundCallback notifies the transport layer that two queued
// players were paired into a fresh match id.
type MatchFoundCallback func(matchID string, a, b models.QueueEntry)

// Matchmaker holds the ranked waiting list and pairs players by rating
// proximity and input-mode compatibility. Matching is first-fit: the
// first sufficiently close candidate wins, not the closest one.
type Matchmaker struct {
	mu      sync.Mutex
	waiting []models.QueueEntry
	onMatch MatchFoundCallback
}

// NewMatchmaker creates an empty matchmaker.
func NewMatchmaker() *Matchmaker {
	return &Matchmaker{}
}

// SetMatchFoundCallback registers the pairing notification hook.
func (mm *Matchmaker) SetMatchFoundCallback(cb MatchFoundCallback) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.onMatch = cb
}

// JoinQueue enters a player into the ranked queue. A duplicate join for
// the same connection replaces the stale entry instead of duplicating
// it. Returns true when the player was paired immediately.
func (mm *Matchmaker) JoinQueue(entry models.QueueEntry) bool {
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = time.Now()
	}

	mm.mu.Lock()
	mm.removeLocked(entry.ConnectionID)

	for i, candidate := range mm.waiting {
		diff := candidate.Rating - entry.Rating
		if diff < 0 {
			diff = -diff
		}
		if diff < ratingTolerance && candidate.InputMode == entry.InputMode {
			mm.waiting = append(mm.waiting[:i], mm.waiting[i+1:]...)
			cb := mm.onMatch
			mm.mu.Unlock()

			matchID := newMatchID()
			if cb != nil {
				cb(matchID, entry, candidate)
			}
			return true
		}
	}

	mm.waiting = append(mm.waiting, entry)
	mm.mu.Unlock()
	return false
}

// LeaveQueue removes the entry for a connection. Idempotent.
func (mm *Matchmaker) LeaveQueue(connectionID string) bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.removeLocked(connectionID)
}

func (mm *Matchmaker) removeLocked(connectionID string) bool {
	for i, e := range mm.waiting {
		if e.ConnectionID == connectionID {
			mm.waiting = append(mm.waiting[:i], mm.waiting[i+1:]...)
			return true
		}
	}
	return false
}

// Waiting reports how many players are queued.
func (mm *Matchmaker) Waiting() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.waiting)
}

// newMatchID synthesizes a short room id for a fresh ranked match.
func newMatchID() string {
	id, err := gonanoid.New(10)
	if err != nil {
		return uuid.NewString()
	}
	return id
}
