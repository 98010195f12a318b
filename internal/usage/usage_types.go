package usage

import "time"

// Data is the root structure persisted to usage.json.
type Data struct {
	Version   string          `json:"version"`
	Events    []Event         `json:"events,omitempty"` // most recent first-in-last-out window
	Aggregate AggregatedStats `json:"aggregate"`
}

// Event is a single LLM transaction.
type Event struct {
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model"`
	Provider         string    `json:"provider"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Operation        string    `json:"operation"` // generate, analyze, classify, extract
	PromptText       string    `json:"prompt_text,omitempty"`
}

// AggregatedStats holds counters broken down by dimension.
type AggregatedStats struct {
	Total       TokenCounts            `json:"total"`
	ByProvider  map[string]TokenCounts `json:"by_provider"`
	ByModel     map[string]TokenCounts `json:"by_model"`
	ByOperation map[string]TokenCounts `json:"by_operation"`
	ByDay       map[string]TokenCounts `json:"by_day"` // keyed YYYY-MM-DD
}

// TokenCounts holds prompt/completion sums.
type TokenCounts struct {
	Prompt     int64 `json:"prompt"`
	Completion int64 `json:"completion"`
	Total      int64 `json:"total"`
}

func (tc *TokenCounts) Add(prompt, completion int) {
	tc.Prompt += int64(prompt)
	tc.Completion += int64(completion)
	tc.Total += int64(prompt + completion)
}
