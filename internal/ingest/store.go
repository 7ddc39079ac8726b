package ingest

import (
	"sync"
	"time"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// Snapshot is the committed result of the latest accepted cycle.
type Snapshot struct {
	Cycle
	Seq       uint64
	UpdatedAt time.Time
}

// Store holds the current snapshot. Cycles take a sequence token before they
// start and commit with it afterwards; a cycle that finishes after a newer one
// has committed is dropped.
type Store struct {
	mu        sync.RWMutex
	issued    uint64
	committed uint64
	snap      *Snapshot
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Begin hands out the next sequence token.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Commit replaces the snapshot with the cycle unless a cycle with a newer
// token has already committed. It reports whether the cycle was accepted.
func (s *Store) Commit(token uint64, cycle Cycle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token <= s.committed {
		return false
	}
	s.committed = token
	s.snap = &Snapshot{Cycle: cycle, Seq: token, UpdatedAt: domain.Now()}
	return true
}

// Snapshot returns the current snapshot and false if no cycle has committed yet.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, false
	}
	return *s.snap, true
}

// Events returns the committed event list. Callers must treat it as read-only.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil
	}
	return s.snap.Events
}
