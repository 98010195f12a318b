package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"promptos/internal/logging"
)

const (
	openRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	grokDefaultModel     = "grok-3"
	grokClassifierModel  = "grok-3"
	openRouterAppName    = "PromptOS"
	openRouterAppReferer = "https://promptos.app"
)

// openRouterModelMap translates our short model IDs to OpenRouter slugs.
var openRouterModelMap = map[string]string{
	"grok-3":      "x-ai/grok-3",
	"grok-4-0709": "x-ai/grok-4",
}

// GrokClient talks to xAI Grok models through the OpenRouter aggregator,
// which exposes an OpenAI-compatible chat completions endpoint. Grok calls
// are text-only; vision requests route to Gemini instead.
type GrokClient struct {
	apiKey     string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGrokClient creates a Grok client for the given model. An empty model
// selects the default.
func NewGrokClient(apiKey, model string) *GrokClient {
	if model == "" {
		model = grokDefaultModel
	}
	return &GrokClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *GrokClient) Name() string           { return "grok" }
func (c *GrokClient) Model() string          { return c.model }
func (c *GrokClient) SetModel(m string)      { c.model = m }
func (c *GrokClient) SupportsVision() bool   { return false }
func (c *GrokClient) SupportsThinking() bool { return false }

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model     string              `json:"model"`
	Messages  []openRouterMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func resolveOpenRouterModel(model string) string {
	if slug, ok := openRouterModelMap[model]; ok {
		return slug
	}
	return model
}

func (c *GrokClient) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < minRequestGap {
		time.Sleep(minRequestGap - elapsed)
	}
	c.lastRequest = time.Now()
}

// Generate performs a single chat completion call. Image options are
// rejected because Grok routing is text-only.
func (c *GrokClient) Generate(ctx context.Context, systemInstruction string, messages []Message, opts GenerateOptions) (*Result, error) {
	if opts.Image != nil {
		return nil, fmt.Errorf("grok does not support image input")
	}

	orMessages := make([]openRouterMessage, 0, len(messages)+1)
	if systemInstruction != "" {
		orMessages = append(orMessages, openRouterMessage{Role: "system", Content: systemInstruction})
	}
	for _, m := range messages {
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		orMessages = append(orMessages, openRouterMessage{Role: role, Content: m.Content})
	}

	req := openRouterRequest{
		Model:     resolveOpenRouterModel(c.model),
		Messages:  orMessages,
		MaxTokens: opts.MaxOutputTokens,
	}
	return c.call(ctx, req)
}

// Complete runs a single prompt with no history or system instruction.
func (c *GrokClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openRouterRequest{
		Model:    resolveOpenRouterModel(grokClassifierModel),
		Messages: []openRouterMessage{{Role: "user", Content: prompt}},
	}
	result, err := c.call(ctx, req)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (c *GrokClient) call(ctx context.Context, req openRouterRequest) (*Result, error) {
	c.waitForRateLimit()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openRouterBaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", openRouterAppReferer)
	httpReq.Header.Set("X-Title", openRouterAppName)

	timer := logging.StartTimer(logging.CategoryProvider, fmt.Sprintf("openrouter %s call", req.Model))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		timer.Stop()
		return nil, fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := newStatusError("grok", resp, respBody)
		logging.ProviderError("openrouter %s returned %d", req.Model, resp.StatusCode)
		return nil, statusErr
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter returned no choices")
	}

	result := &Result{
		Text: parsed.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
	}
	logging.ProviderDebug("openrouter %s: %d prompt + %d completion tokens",
		req.Model, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	return result, nil
}
