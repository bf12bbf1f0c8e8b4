package services

import (
	"sync"

	"arenahub/models"
)

// MatchRegistry owns the id → match table. Matches live only in memory;
// terminal ones are evicted by the clock after a grace period.
type MatchRegistry struct {
	mu      sync.RWMutex
	matches map[string]*models.Match
}

// NewMatchRegistry creates an empty registry.
func NewMatchRegistry() *MatchRegistry {
	return &MatchRegistry{
		matches: make(map[string]*models.Match),
	}
}

// Get looks up a match by id.
func (r *MatchRegistry) Get(id string) (*models.Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	return m, ok
}

// GetOrCreate returns the existing match or inserts the one produced by
// fresh. The factory runs outside any I/O path so the double-checked
// insert stays cheap; a racing creator simply loses its candidate.
func (r *MatchRegistry) GetOrCreate(id string, fresh func() *models.Match) (*models.Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.matches[id]; ok {
		return m, false
	}
	m := fresh()
	r.matches[id] = m
	return m, true
}

// Remove evicts a match. Unknown ids are a no-op.
func (r *MatchRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.matches, id)
}

// All returns the current matches in unspecified order.
func (r *MatchRegistry) All() []*models.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*models.Match, 0, len(r.matches))
	for _, m := range r.matches {
		matches = append(matches, m)
	}
	return matches
}

// Len reports how many matches are registered.
func (r *MatchRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
