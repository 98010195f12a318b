package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"promptos/internal/facts"
	"promptos/internal/logging"
	"promptos/internal/provider"
	"promptos/internal/store"
)

// Extractor runs the post-session fact extraction batch.
type Extractor struct {
	facts      *facts.Manager
	classifier provider.Completer
}

// NewExtractor builds an Extractor over the fact manager and the
// classification model.
func NewExtractor(mgr *facts.Manager, classifier provider.Completer) *Extractor {
	return &Extractor{facts: mgr, classifier: classifier}
}

const extractionTemplate = `Analyze this conversation and extract useful facts about the user that would help personalize future interactions.

Conversation:
%s

Extract up to %d fact(s) about the user. Each fact should be:
- A single, concise sentence (under 150 characters)
- Something concrete and useful (name, role, preferences, communication style, etc.)
- Not obvious or generic

Examples of good facts:
- "The user's name is Alex Chen"
- "They prefer casual, friendly communication"
- "They work at TechCorp as a product manager"
- "They like using bullet points in emails"

If nothing useful to remember, return an empty array.

Return ONLY a JSON array of strings. Each string is one fact.
Example: ["The user's name is Alex Chen", "They prefer casual communication"]

Return ONLY valid JSON, no other text.`

// Analyze extracts facts from the session's interactions and persists them,
// respecting remaining capacity and deduplication. Never returns an error
// to the host session: extraction is best-effort and failures only log. The
// returned count is how many facts were saved.
func (e *Extractor) Analyze(ctx context.Context, profile *store.Profile, interactions []Interaction) int {
	if profile == nil || e.classifier == nil || len(interactions) == 0 {
		return 0
	}
	if !profile.MemoryEnabled {
		logging.Memory("memory disabled for user, skipping analysis")
		return 0
	}

	existing, err := e.facts.List(profile.ID)
	if err != nil {
		logging.MemoryError("fact fetch failed: %v", err)
		return 0
	}
	remaining := facts.MaxFacts - len(existing)
	if remaining <= 0 {
		logging.Memory("user already has %d facts, skipping extraction", facts.MaxFacts)
		return 0
	}

	logging.Memory("analyzing session (%d interactions, %d slots available)", len(interactions), remaining)

	var transcript strings.Builder
	for i, it := range interactions {
		if i > 0 {
			transcript.WriteString("\n\n")
		}
		fmt.Fprintf(&transcript, "[%d] User: %s\nAssistant: %s", i+1, it.Prompt, it.Response)
	}

	response, err := e.classifier.Complete(ctx, fmt.Sprintf(extractionTemplate, transcript.String(), remaining))
	if err != nil {
		logging.MemoryError("extraction call failed: %v", err)
		return 0
	}

	candidates, ok := parseFactArray(response)
	if !ok {
		// Malformed output abandons the entire batch. Guessing at partial
		// JSON risks persisting garbage as identity facts.
		logging.MemoryError("extraction response did not parse as a JSON array")
		return 0
	}
	if len(candidates) == 0 {
		logging.Memory("no useful facts extracted from session")
		return 0
	}
	if len(candidates) > remaining {
		candidates = candidates[:remaining]
	}

	// Dedup against existing facts plus everything saved earlier this batch.
	inScope := append([]store.Fact{}, existing...)
	saved := 0
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		summarized := e.facts.Summarize(ctx, candidate)
		if e.facts.IsDuplicate(ctx, summarized, inScope) {
			logging.Memory("skipped duplicate fact")
			continue
		}

		fact, err := e.facts.Add(profile.ID, summarized, "auto")
		if err != nil {
			logging.MemoryError("fact save failed: %v", err)
			continue
		}
		if fact != nil {
			inScope = append(inScope, *fact)
			saved++
		}
	}

	logging.Memory("session analysis complete, saved %d fact(s)", saved)
	return saved
}

// parseFactArray strips code fences and parses a JSON string array.
func parseFactArray(response string) ([]string, bool) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var out []string
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, false
	}
	return out, true
}
