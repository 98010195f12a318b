package generation

import (
	"strings"
	"testing"

	"promptos/internal/bridge"
	"promptos/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleGuide(t *testing.T) {
	assert.Contains(t, StyleGuide(&store.Profile{WritingStyle: "casual"}), "friendly, conversational")
	assert.Contains(t, StyleGuide(&store.Profile{WritingStyle: "concise"}), "direct, minimal")

	// Unknown styles fall back to professional.
	assert.Contains(t, StyleGuide(&store.Profile{WritingStyle: "baroque"}), "business-appropriate")
	assert.Empty(t, StyleGuide(nil))

	custom := &store.Profile{WritingStyle: "custom", WritingStyleGuide: "Short sharp sentences."}
	assert.Equal(t, "Short sharp sentences.", StyleGuide(custom))

	// Custom without a guide falls back too.
	assert.Contains(t, StyleGuide(&store.Profile{WritingStyle: "custom"}), "business-appropriate")
}

func TestBuildSystemInstructionSections(t *testing.T) {
	got := buildSystemInstruction(promptInputs{
		Language:   "en",
		StyleGuide: "Keep it breezy.",
		FactsBlock: "Identity facts: stub",
		Browser:    &bridge.TabInfo{URL: "https://example.com/doc", Title: "Quarterly Plan"},
	})

	require.True(t, strings.HasPrefix(got, "You are promptOS"))
	assert.Contains(t, got, "Writing style: Keep it breezy.")
	assert.Contains(t, got, "Identity facts: stub")
	assert.Contains(t, got, "URL: https://example.com/doc")
	assert.Contains(t, got, "Page title: Quarterly Plan")
	assert.Contains(t, got, "No preamble")

	// Without a screenshot the screen-content rule stays out.
	assert.NotContains(t, got, "[Screen content]")
}

func TestBuildSystemInstructionOmitsEmptySections(t *testing.T) {
	got := buildSystemInstruction(promptInputs{Language: "en"})

	assert.NotContains(t, got, "Writing style:")
	assert.NotContains(t, got, "Identity facts")
	assert.NotContains(t, got, "Current browser page")
}

func TestBuildSystemInstructionEmailPlatformRules(t *testing.T) {
	got := buildSystemInstruction(promptInputs{
		Language:    "en",
		DisplayName: "Alex",
		Screen:      &ScreenAnalysis{Platform: "gmail"},
	})

	assert.Contains(t, got, "Platform: email (gmail)")
	assert.Contains(t, got, "Best regards,\n\nAlex")
	assert.Contains(t, got, "base your response exclusively on it")
}

func TestBuildSystemInstructionChatPlatformRules(t *testing.T) {
	got := buildSystemInstruction(promptInputs{
		Language: "en",
		Screen:   &ScreenAnalysis{Platform: "slack"},
	})

	assert.Contains(t, got, "Platform: chat (slack)")
	assert.Contains(t, got, "No greeting, no sign-off")
	assert.NotContains(t, got, "Best regards")
}

func TestBuildSystemInstructionUnknownPlatformHasNoRules(t *testing.T) {
	got := buildSystemInstruction(promptInputs{
		Language: "en",
		Screen:   &ScreenAnalysis{Platform: "unknown"},
	})
	assert.NotContains(t, got, "Platform:")
}

func TestBuildSystemInstructionJapanese(t *testing.T) {
	got := buildSystemInstruction(promptInputs{
		Language:    "ja",
		StyleGuide:  "丁寧に。",
		DisplayName: "田中",
		Screen:      &ScreenAnalysis{Platform: "gmail"},
	})

	assert.True(t, strings.HasPrefix(got, "あなたはpromptOSです"))
	assert.Contains(t, got, "文体ガイド: 丁寧に。")
	assert.Contains(t, got, "プラットフォーム: メール（gmail）")
	assert.Contains(t, got, "田中")
}

func TestBuildUserMessage(t *testing.T) {
	assert.Equal(t, "just the prompt", buildUserMessage("just the prompt", nil))

	got := buildUserMessage("write a reply", &ScreenAnalysis{
		Platform:       "gmail",
		Sender:         "Dana",
		ReplyToContent: "Can we move the meeting to Thursday?",
	})
	assert.Equal(t, "[Screen content — gmail]\nFrom: Dana\nCan we move the meeting to Thursday?\n\nwrite a reply", got)

	// Summary substitutes when there is no reply target, and an unknown
	// platform drops the label suffix.
	got = buildUserMessage("describe this", &ScreenAnalysis{
		Platform: "unknown",
		Summary:  "A spreadsheet of quarterly numbers.",
	})
	assert.Equal(t, "[Screen content]\nA spreadsheet of quarterly numbers.\n\ndescribe this", got)
}
