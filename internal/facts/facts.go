// Package facts implements the bounded identity memory: at most ten short
// facts per user, all of them injected into every prompt. There is no
// retrieval or ranking layer, the cap keeps the whole set small enough to
// always carry.
package facts

import (
	"context"
	"fmt"
	"strings"

	"promptos/internal/logging"
	"promptos/internal/provider"
	"promptos/internal/store"
)

const (
	// MaxFacts is the hard per-user capacity.
	MaxFacts = 10
	// MaxFactLength is the per-fact character budget.
	MaxFactLength = 200
)

// Manager wraps the persistent fact table with the capacity, truncation,
// deduplication, and summarization rules.
type Manager struct {
	store      *store.Store
	classifier provider.Completer // nil disables LLM-backed checks
}

// NewManager builds a Manager. classifier may be nil, in which case
// duplicate checks always pass and summarization falls back to truncation.
func NewManager(st *store.Store, classifier provider.Completer) *Manager {
	return &Manager{store: st, classifier: classifier}
}

// List returns the user's facts ordered by position.
func (m *Manager) List(userID string) ([]store.Fact, error) {
	return m.store.ListFacts(userID)
}

// Count returns how many facts the user has.
func (m *Manager) Count(userID string) (int, error) {
	return m.store.CountFacts(userID)
}

// CanAdd reports whether the user is below capacity.
func (m *Manager) CanAdd(userID string) (bool, error) {
	count, err := m.store.CountFacts(userID)
	if err != nil {
		return false, err
	}
	return count < MaxFacts, nil
}

// truncate enforces the per-fact budget with a trailing ellipsis marker.
func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxFactLength {
		return content
	}
	return string(runes[:MaxFactLength-3]) + "..."
}

// Add stores a new fact at the next free position. Returns nil with no
// error when the user is at capacity: a full fact set is an expected state,
// not a failure. Over-length content is truncated.
func (m *Manager) Add(userID, content, source string) (*store.Fact, error) {
	count, err := m.store.CountFacts(userID)
	if err != nil {
		return nil, err
	}
	if count >= MaxFacts {
		logging.Facts("cannot add, user already has %d facts", MaxFacts)
		return nil, nil
	}
	if source == "" {
		source = "manual"
	}

	trimmed := strings.TrimSpace(truncate(content))
	fact, err := m.store.InsertFact(userID, trimmed, count, source)
	if err != nil {
		return nil, err
	}
	logging.Facts("added fact at position %d", count)
	return fact, nil
}

// Update replaces a fact's content in place. Position is untouched.
func (m *Manager) Update(factID, content string) (*store.Fact, error) {
	trimmed := strings.TrimSpace(truncate(content))
	return m.store.UpdateFact(factID, trimmed)
}

// Delete removes a fact and repacks the remaining positions so they stay
// contiguous from zero.
func (m *Manager) Delete(factID string) error {
	return m.store.DeleteFact(factID)
}

// FormatForPrompt renders the fact list for injection into the system
// instruction. Returns the empty string when there are no facts.
func FormatForPrompt(facts []store.Fact) string {
	if len(facts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range facts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(f.Content)
	}
	return `Identity facts (use ONLY for signing or closing a message e.g. "Best, [name]", or when the user explicitly asks to write about themselves. Never use these to shape the topic, scenario, or content of a response):` + "\n" + b.String()
}

// IsDuplicate asks the classification model whether a candidate fact
// meaningfully duplicates or contradicts an existing one. Only a response
// starting with YES counts; any failure admits the fact.
func (m *Manager) IsDuplicate(ctx context.Context, newFact string, existing []store.Fact) bool {
	if m.classifier == nil || len(existing) == 0 {
		return false
	}

	var list strings.Builder
	for i, f := range existing {
		if i > 0 {
			list.WriteString("\n")
		}
		list.WriteString("- ")
		list.WriteString(f.Content)
	}
	prompt := fmt.Sprintf("Existing facts:\n%s\n\nNew fact: %q\n\nDoes the new fact meaningfully duplicate or contradict any existing fact? Answer only YES or NO.",
		list.String(), newFact)

	answer, err := m.classifier.Complete(ctx, prompt)
	if err != nil {
		logging.FactsError("duplicate check failed, allowing fact: %v", err)
		return false
	}
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(answer)), "YES")
}

const summarizeTemplate = `Summarize this personal fact in under 150 characters while preserving the key information. Return only the summary, nothing else.

Fact: %q

Summary:`

// Summarize condenses over-length content so it fits the fact budget.
// Content already within the budget passes through unchanged. Never
// errors: a failed or still-too-long summary falls back to truncation.
func (m *Manager) Summarize(ctx context.Context, content string) string {
	if len([]rune(content)) <= MaxFactLength {
		return content
	}
	if m.classifier == nil {
		return truncate(content)
	}

	summary, err := m.classifier.Complete(ctx, fmt.Sprintf(summarizeTemplate, content))
	if err != nil {
		logging.FactsError("summarization failed: %v", err)
		return truncate(content)
	}
	summary = strings.TrimSpace(summary)
	if len([]rune(summary)) > MaxFactLength || summary == "" {
		return truncate(content)
	}
	logging.FactsDebug("summarized %d chars down to %d", len(content), len(summary))
	return summary
}
