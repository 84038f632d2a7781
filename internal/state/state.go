package state

import (
	"sync"

	"similarity-web/internal/models"
)

// SessionState holds the results of the most recent analysis and the busy
// flag guarding concurrent submissions. One instance per server process; the
// UI is a single-operator tool.
type SessionState struct {
	mu sync.RWMutex

	envelope *models.Envelope
	busy     bool
}

// New creates an empty session.
func New() *SessionState {
	return &SessionState{}
}

// BeginAnalysis marks the session busy. It returns false when an analysis is
// already in flight, in which case the caller must not start another.
func (s *SessionState) BeginAnalysis() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// EndAnalysis clears the busy flag. Safe to call unconditionally via defer.
func (s *SessionState) EndAnalysis() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
}

// Busy reports whether an analysis is currently in flight.
func (s *SessionState) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.busy
}

// SetResults stores a normalized result envelope, replacing any previous one.
func (s *SessionState) SetResults(env *models.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envelope = env
}

// Results returns the stored envelope, nil when no analysis has completed.
func (s *SessionState) Results() *models.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.envelope
}

// SessionID returns the backend session of the stored results, "" when none.
func (s *SessionState) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.envelope == nil {
		return ""
	}
	return s.envelope.SessionID
}

// SectionURL returns the artifact URL of a result section, "" when the
// section or its URL is absent.
func (s *SessionState) SectionURL(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec := s.envelope.Section(key)
	if sec == nil {
		return ""
	}
	return sec.URL
}

// Reset discards the stored results. The busy flag is left alone; a reset
// during an in-flight analysis must not unlock a second submission.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envelope = nil
}
