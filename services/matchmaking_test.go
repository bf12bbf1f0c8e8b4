package services

import (
	"sync"
	"testing"

	"arenahub/models"
)

type pairRecorder struct {
	mu    sync.Mutex
	pairs [][2]string
	ids   []string
}

func (p *pairRecorder) record(matchID string, a, b models.QueueEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pairs = append(p.pairs, [2]string{a.ConnectionID, b.ConnectionID})
	p.ids = append(p.ids, matchID)
}

func (p *pairRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pairs)
}

func entry(connID string, rating int, inputMode string) models.QueueEntry {
	return models.QueueEntry{
		ConnectionID: connID,
		UserID:       "user-" + connID,
		Username:     "player-" + connID,
		Rating:       rating,
		InputMode:    inputMode,
	}
}

func TestPairWithinTolerance(t *testing.T) {
	mm := NewMatchmaker()
	rec := &pairRecorder{}
	mm.SetMatchFoundCallback(rec.record)

	if mm.JoinQueue(entry("a", 1000, models.InputVoice)) {
		t.Fatal("First joiner should wait, not pair")
	}
	if !mm.JoinQueue(entry("b", 1150, models.InputVoice)) {
		t.Fatal("Expected 1000 vs 1150 to pair")
	}

	if rec.count() != 1 {
		t.Fatalf("Expected one pairing callback, got %d", rec.count())
	}
	rec.mu.Lock()
	pair := rec.pairs[0]
	matchID := rec.ids[0]
	rec.mu.Unlock()
	if pair != [2]string{"b", "a"} {
		t.Errorf("Expected joiner first in the callback, got %v", pair)
	}
	if matchID == "" {
		t.Error("Expected a non-empty match id")
	}
	if mm.Waiting() != 0 {
		t.Errorf("Expected empty queue after pairing, %d waiting", mm.Waiting())
	}
}

func TestNoPairOutsideTolerance(t *testing.T) {
	mm := NewMatchmaker()
	rec := &pairRecorder{}
	mm.SetMatchFoundCallback(rec.record)

	mm.JoinQueue(entry("a", 1000, models.InputVoice))
	if mm.JoinQueue(entry("c", 1300, models.InputVoice)) {
		t.Fatal("A 300-point gap must not pair")
	}

	if rec.count() != 0 {
		t.Errorf("Expected no pairing callbacks, got %d", rec.count())
	}
	if mm.Waiting() != 2 {
		t.Errorf("Expected both players still queued, %d waiting", mm.Waiting())
	}
}

func TestGapOfExactlyToleranceDoesNotPair(t *testing.T) {
	mm := NewMatchmaker()

	mm.JoinQueue(entry("a", 1000, models.InputVoice))
	if mm.JoinQueue(entry("b", 1200, models.InputVoice)) {
		t.Error("A gap equal to the tolerance must not pair")
	}
}

func TestInputModeMustMatch(t *testing.T) {
	mm := NewMatchmaker()

	mm.JoinQueue(entry("a", 1000, models.InputVoice))
	if mm.JoinQueue(entry("b", 1000, models.InputChat)) {
		t.Fatal("Voice and chat players must not be paired")
	}
	if mm.Waiting() != 2 {
		t.Errorf("Expected both players still queued, %d waiting", mm.Waiting())
	}
}

func TestDuplicateJoinReplacesEntry(t *testing.T) {
	mm := NewMatchmaker()

	mm.JoinQueue(entry("a", 1000, models.InputVoice))
	mm.JoinQueue(entry("a", 1400, models.InputVoice))

	if mm.Waiting() != 1 {
		t.Fatalf("Expected duplicate join to replace, %d waiting", mm.Waiting())
	}

	// The stale 1000 entry must be gone: a 1350 joiner pairs against the
	// refreshed rating, which it could not against the original.
	if !mm.JoinQueue(entry("b", 1350, models.InputVoice)) {
		t.Error("Expected pairing against the replaced entry's rating")
	}
}

func TestLeaveQueueIdempotent(t *testing.T) {
	mm := NewMatchmaker()

	mm.JoinQueue(entry("a", 1000, models.InputVoice))
	if !mm.LeaveQueue("a") {
		t.Error("Expected first leave to remove the entry")
	}
	if mm.LeaveQueue("a") {
		t.Error("Expected second leave to be a no-op")
	}
	if mm.LeaveQueue("never-joined") {
		t.Error("Expected leave for unknown connection to be a no-op")
	}
	if mm.Waiting() != 0 {
		t.Errorf("Expected empty queue, %d waiting", mm.Waiting())
	}
}

func TestFirstFitNotBestFit(t *testing.T) {
	mm := NewMatchmaker()
	rec := &pairRecorder{}
	mm.SetMatchFoundCallback(rec.record)

	mm.JoinQueue(entry("far", 1150, models.InputVoice))
	mm.JoinQueue(entry("near", 1010, models.InputVoice))
	mm.JoinQueue(entry("joiner", 1000, models.InputVoice))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.pairs) != 1 {
		t.Fatalf("Expected one pairing, got %d", len(rec.pairs))
	}
	if rec.pairs[0][1] != "far" {
		t.Errorf("Expected first-fit pairing with the earliest candidate, got %v", rec.pairs[0])
	}
}

func TestPairingWithoutCallbackStillDrains(t *testing.T) {
	mm := NewMatchmaker()

	mm.JoinQueue(entry("a", 1000, models.InputChat))
	if !mm.JoinQueue(entry("b", 1100, models.InputChat)) {
		t.Fatal("Expected pairing even with no callback registered")
	}
	if mm.Waiting() != 0 {
		t.Errorf("Expected both entries drained, %d waiting", mm.Waiting())
	}
}
