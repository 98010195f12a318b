// Package provider implements the LLM provider clients used by the
// generation pipeline. Two providers are supported: Gemini (multimodal,
// direct REST API) and Grok (text-only, via the OpenRouter aggregator).
// Clients perform exactly one attempt per call; retry policy belongs to the
// generation orchestrator.
package provider

import (
	"context"
	"time"
)

// Message is one turn of a chat history.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Usage reports token counts for one provider call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns prompt + completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Result is the outcome of a successful generation call.
type Result struct {
	Text  string
	Usage Usage
}

// Image is an inline image payload for multimodal calls.
type Image struct {
	MIMEType string // e.g. "image/png"
	Data     []byte // raw image bytes
}

// GenerateOptions configures a single Generate call.
type GenerateOptions struct {
	Image           *Image // non-nil for multimodal single-shot calls
	MaxOutputTokens int    // 0 = provider default
	ThinkingEnabled bool   // Gemini thinking budget toggle
}

// Completer is the minimal capability needed for lightweight classification
// calls (context-need checks, duplicate judgment, summarization).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client is the uniform provider interface. Generate carries the full system
// instruction plus chat history; Complete is a cheap single-prompt call on
// the provider's classification model.
type Client interface {
	Completer
	Generate(ctx context.Context, systemInstruction string, messages []Message, opts GenerateOptions) (*Result, error)
	Name() string
	Model() string
	SetModel(model string)
	SupportsVision() bool
	SupportsThinking() bool
}

const defaultTimeout = 2 * time.Minute

// rate-limit pacing between consecutive requests to one provider
const minRequestGap = 100 * time.Millisecond
