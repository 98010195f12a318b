// Package memory accumulates a session's prompt/response exchanges and, on
// session end, extracts durable facts about the user into the fact store.
package memory

import (
	"sync"
	"time"
)

// Cap on stored text per side of an interaction. Long exchanges carry
// little extra identity signal and bloat the extraction prompt.
const maxInteractionLength = 1000

// Interaction is one recorded prompt/response pair.
type Interaction struct {
	Prompt    string
	Response  string
	Timestamp time.Time
}

// Session collects interactions during one overlay lifetime. Safe for
// concurrent Record calls.
type Session struct {
	mu           sync.Mutex
	interactions []Interaction
	startedAt    time.Time
}

// NewSession starts an empty session.
func NewSession() *Session {
	return &Session{startedAt: time.Now()}
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= maxInteractionLength {
		return s
	}
	return string(runes[:maxInteractionLength])
}

// Record appends an exchange, clipping both sides to the length cap.
func (s *Session) Record(prompt, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, Interaction{
		Prompt:    clip(prompt),
		Response:  clip(response),
		Timestamp: time.Now(),
	})
}

// Drain returns the recorded interactions and resets the session.
func (s *Session) Drain() []Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.interactions
	s.interactions = nil
	s.startedAt = time.Now()
	return out
}

// Len returns the number of recorded interactions.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}
