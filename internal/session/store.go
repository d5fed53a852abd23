// Package session keeps a bounded, per-session prompt history behind a
// storage interface so callers never touch file paths directly.
package session

import (
	"errors"
	"sync"
	"time"
)

// DefaultLimit is the number of entries retained per session.
const DefaultLimit = 50

// ErrNoSession is returned when an append carries no session id.
var ErrNoSession = errors.New("missing session id")

// Entry is one submitted prompt.
type Entry struct {
	SessionID string    `json:"session_id"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists session history. Implementations keep at most their limit
// of most recent entries per session, evicting the oldest first.
type Store interface {
	// Append records one entry for its session.
	Append(e Entry) error
	// History returns the retained entries for a session, oldest first.
	History(sessionID string) ([]Entry, error)
}

// keepRecent returns the last limit entries.
func keepRecent(entries []Entry, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}

// MemoryStore is an in-process Store, used in tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]Entry
}

// NewMemoryStore returns an empty MemoryStore bounded to limit entries per session.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, entries: make(map[string][]Entry)}
}

// Append implements Store.
func (s *MemoryStore) Append(e Entry) error {
	if e.SessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.entries[e.SessionID], e)
	s.entries[e.SessionID] = append([]Entry(nil), keepRecent(list, s.limit)...)
	return nil
}

// History implements Store.
func (s *MemoryStore) History(sessionID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries[sessionID]...), nil
}
