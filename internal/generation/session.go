package generation

import "promptos/internal/provider"

// ChatSession accumulates the multi-turn history for one overlay lifetime.
// It is mutated only by the single active generation, so the single-flight
// policy stands in for a mutex.
type ChatSession struct {
	history []provider.Message
}

// NewChatSession starts an empty session.
func NewChatSession() *ChatSession {
	return &ChatSession{}
}

// History returns the accumulated messages.
func (s *ChatSession) History() []provider.Message {
	return s.history
}

// Append records a completed prompt/response exchange. Multimodal exchanges
// are never appended: screenshots do not accumulate in history.
func (s *ChatSession) Append(userMessage, assistantReply string) {
	s.history = append(s.history,
		provider.Message{Role: "user", Content: userMessage},
		provider.Message{Role: "assistant", Content: assistantReply},
	)
}

// Len returns the number of stored messages.
func (s *ChatSession) Len() int {
	return len(s.history)
}

// Reset discards the history, used when the overlay closes.
func (s *ChatSession) Reset() {
	s.history = nil
}
