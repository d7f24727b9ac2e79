package session

import (
	"errors"
	"sync"
	"time"
)

// ErrDelayTooShort is returned when a delay update falls below the
// configured minimum.
var ErrDelayTooShort = errors.New("delay is below the minimum")

// State is the process-wide session state record. Active mirrors whether
// any target-site surface is currently open; it is always derived from a
// live enumeration (see SetSurfaces), never incremented in place.
type State struct {
	Initialized    bool
	Active         bool
	LastActivityAt *time.Time
	OpenSurfaces   []string
}

// Store owns the singleton State plus the inter-message delay. It carries
// no business logic; the lifecycle manager, reaper and sender mutate it
// through the accessors below.
type Store struct {
	mu       sync.RWMutex
	state    State
	delay    time.Duration
	minDelay time.Duration
}

// NewStore creates a store with the given starting delay. The delay can
// never be set below min afterwards.
func NewStore(delay, min time.Duration) *Store {
	if delay < min {
		delay = min
	}
	return &Store{delay: delay, minDelay: min}
}

// SetInitialized records whether a browser session object exists.
func (s *Store) SetInitialized(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Initialized = ok
}

// MarkActivity stamps LastActivityAt with the current time.
func (s *Store) MarkActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.state.LastActivityAt = &now
}

// SetSurfaces replaces the open-surface list wholesale and derives
// Active from it. Callers pass the result of a live page enumeration.
func (s *Store) SetSurfaces(urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.OpenSurfaces = append([]string(nil), urls...)
	s.state.Active = len(urls) > 0
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state
	snap.OpenSurfaces = append([]string(nil), s.state.OpenSurfaces...)
	if s.state.LastActivityAt != nil {
		t := *s.state.LastActivityAt
		snap.LastActivityAt = &t
	}
	return snap
}

// Delay returns the current inter-message delay.
func (s *Store) Delay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delay
}

// MinDelay returns the lower bound enforced by SetDelay.
func (s *Store) MinDelay() time.Duration {
	return s.minDelay
}

// SetDelay updates the inter-message delay. Values below the minimum are
// rejected with ErrDelayTooShort.
func (s *Store) SetDelay(d time.Duration) error {
	if d < s.minDelay {
		return ErrDelayTooShort
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return nil
}
