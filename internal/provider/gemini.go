package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"promptos/internal/logging"
)

const (
	geminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiDefaultModel    = "gemini-2.5-flash"
	geminiClassifierModel = "gemini-2.5-flash-lite"

	// thinking budget for models that support it
	geminiThinkingBudget = 8192
)

// GeminiClient talks to the Gemini REST API directly.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGeminiClient creates a Gemini client for the given model. An empty model
// selects the default.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *GeminiClient) Name() string         { return "gemini" }
func (c *GeminiClient) Model() string        { return c.model }
func (c *GeminiClient) SetModel(m string)    { c.model = m }
func (c *GeminiClient) SupportsVision() bool { return true }

// SupportsThinking reports whether the selected model accepts a thinking
// budget. The 2.5 family does; older models reject the field.
func (c *GeminiClient) SupportsThinking() bool {
	return strings.HasPrefix(c.model, "gemini-2.5")
}

// request/response shapes for the generateContent endpoint

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int                   `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// waitForRateLimit spaces requests so bursts of classification calls do not
// trip the per-minute limit.
func (c *GeminiClient) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastRequest); elapsed < minRequestGap {
		time.Sleep(minRequestGap - elapsed)
	}
	c.lastRequest = time.Now()
}

// Generate performs a single generateContent call. No retries here.
func (c *GeminiClient) Generate(ctx context.Context, systemInstruction string, messages []Message, opts GenerateOptions) (*Result, error) {
	contents := make([]geminiContent, 0, len(messages))
	for i, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		parts := []geminiPart{{Text: m.Content}}
		// the image rides with the final user message
		if opts.Image != nil && i == len(messages)-1 && role == "user" {
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MIMEType: opts.Image.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(opts.Image.Data),
			}})
		}
		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}

	req := geminiRequest{Contents: contents}
	if systemInstruction != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}}
	}
	if opts.MaxOutputTokens > 0 {
		req.GenerationConfig.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.ThinkingEnabled {
		req.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{ThinkingBudget: geminiThinkingBudget}
	}

	return c.call(ctx, c.model, req)
}

// Complete runs a single prompt against the lightweight classifier model.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	result, err := c.call(ctx, geminiClassifierModel, req)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (c *GeminiClient) call(ctx context.Context, model string, req geminiRequest) (*Result, error) {
	c.waitForRateLimit()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	timer := logging.StartTimer(logging.CategoryProvider, fmt.Sprintf("gemini %s call", model))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		timer.Stop()
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := newStatusError("gemini", resp, respBody)
		logging.ProviderError("gemini %s returned %d", model, resp.StatusCode)
		return nil, statusErr
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	text := ""
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}

	result := &Result{
		Text: text,
		Usage: Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
		},
	}
	logging.ProviderDebug("gemini %s: %d prompt + %d completion tokens",
		model, result.Usage.PromptTokens, result.Usage.CompletionTokens)
	return result, nil
}
