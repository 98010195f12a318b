package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptos/internal/capture"
	"promptos/internal/logging"
	"promptos/internal/provider"
)

// ScreenAnalysis is the structured reading of a captured screenshot. It is
// injected into the prompt as text so the screenshot itself never enters the
// persistent chat history.
type ScreenAnalysis struct {
	Platform             string `json:"platform"` // gmail, slack, imessage, ..., or "unknown"
	Sender               string `json:"sender"`
	ReplyToContent       string `json:"reply_to_content"`
	Summary              string `json:"summary"`
	ClarificationNeeded  bool   `json:"clarification_needed"`
	ClarificationMessage string `json:"clarification_message"`
}

const analyzePrompt = `Analyze this screenshot of the user's screen. Identify the app or platform shown and extract the content the user most likely wants to respond to.

Respond with ONLY a JSON object, no other text:
{
  "platform": "gmail" | "outlook" | "apple_mail" | "slack" | "discord" | "line" | "teams" | "whatsapp" | "imessage" | "unknown",
  "sender": "name of the message sender if visible, else empty string",
  "reply_to_content": "the full text of the message or email the user would reply to, else empty string",
  "summary": "one or two sentence summary of what is on screen",
  "clarification_needed": false,
  "clarification_message": ""
}

Set clarification_needed to true and fill clarification_message only when the screen shows multiple candidate messages and you cannot tell which one the user means.`

// analyzeScreenshot runs a single multimodal call against a vision-capable
// client, bypassing the chat session. A parse failure is an InvalidInput:
// the screenshot was captured but the model could not read it into the
// expected shape.
func analyzeScreenshot(ctx context.Context, client provider.Client, shot *capture.Screenshot) (*ScreenAnalysis, error) {
	if !client.SupportsVision() {
		return nil, fmt.Errorf("%w: provider %s cannot analyze screenshots", ErrInvalidInput, client.Name())
	}
	if shot == nil || len(shot.PNG) == 0 {
		return nil, fmt.Errorf("%w: empty screenshot payload", ErrInvalidInput)
	}

	result, err := client.Generate(ctx, "", []provider.Message{{Role: "user", Content: analyzePrompt}}, provider.GenerateOptions{
		Image: &provider.Image{MIMEType: shot.MIMEType, Data: shot.PNG},
	})
	if err != nil {
		return nil, err
	}

	var analysis ScreenAnalysis
	if err := json.Unmarshal([]byte(stripCodeFences(result.Text)), &analysis); err != nil {
		logging.GenerationWarn("screenshot analysis did not parse: %v", err)
		return nil, fmt.Errorf("%w: unparseable screenshot analysis", ErrInvalidInput)
	}
	logging.GenerationDebug("screenshot analysis: platform=%s sender=%q", analysis.Platform, analysis.Sender)
	return &analysis, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, so fenced JSON still parses.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// drop the language tag line
		if lang := strings.TrimSpace(s[:idx]); lang == "json" || lang == "" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
