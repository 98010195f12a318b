// Package usage keeps local token accounting per provider, model, operation,
// and day. This is the on-device ledger backing the stats view; the profile
// row's tokens_used/tokens_remaining counters are updated separately by the
// store.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"promptos/internal/logging"
)

// Tracker records token usage events and persists aggregates to usage.json
// in the data directory. Writes are debounced so bursts of small calls do
// not thrash the disk.
type Tracker struct {
	mu       sync.Mutex
	data     Data
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisting under dataDir.
func NewTracker(dataDir string) (*Tracker, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dataDir, "usage.json"),
		data: Data{
			Version: "1.0",
			Aggregate: AggregatedStats{
				ByProvider:  make(map[string]TokenCounts),
				ByModel:     make(map[string]TokenCounts),
				ByOperation: make(map[string]TokenCounts),
				ByDay:       make(map[string]TokenCounts),
			},
		},
	}

	if err := t.load(); err != nil {
		// Corrupt or missing history starts fresh rather than blocking boot.
		logging.Usage("usage history unreadable, starting fresh: %v", err)
	}
	return t, nil
}

func (t *Tracker) load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &t.data); err != nil {
		return err
	}

	if t.data.Aggregate.ByProvider == nil {
		t.data.Aggregate.ByProvider = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByModel == nil {
		t.data.Aggregate.ByModel = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByOperation == nil {
		t.data.Aggregate.ByOperation = make(map[string]TokenCounts)
	}
	if t.data.Aggregate.ByDay == nil {
		t.data.Aggregate.ByDay = make(map[string]TokenCounts)
	}
	return nil
}

// Save flushes the aggregates to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	raw, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, raw, 0o644)
}

// maxEvents bounds the raw event window kept alongside the aggregates.
const maxEvents = 200

// maxPromptText bounds how much of the prompt is kept with an event.
const maxPromptText = 500

// Track records one provider call's token counts. promptText may be empty;
// when present it is truncated before storage.
func (t *Tracker) Track(providerName, model, operation, promptText string, promptTokens, completionTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if runes := []rune(promptText); len(runes) > maxPromptText {
		promptText = string(runes[:maxPromptText])
	}
	t.data.Events = append(t.data.Events, Event{
		Timestamp:        time.Now(),
		Model:            model,
		Provider:         providerName,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Operation:        operation,
		PromptText:       promptText,
	})
	if len(t.data.Events) > maxEvents {
		t.data.Events = t.data.Events[len(t.data.Events)-maxEvents:]
	}

	t.data.Aggregate.Total.Add(promptTokens, completionTokens)
	addToMap(t.data.Aggregate.ByProvider, providerName, promptTokens, completionTokens)
	addToMap(t.data.Aggregate.ByModel, model, promptTokens, completionTokens)
	addToMap(t.data.Aggregate.ByOperation, operation, promptTokens, completionTokens)
	addToMap(t.data.Aggregate.ByDay, time.Now().Format("2006-01-02"), promptTokens, completionTokens)

	logging.Usage("%s/%s %s: %d prompt + %d completion tokens",
		providerName, model, operation, promptTokens, completionTokens)

	if !t.dirty {
		t.dirty = true
		time.AfterFunc(5*time.Second, t.flush)
	}
}

// flush clears the dirty flag under the same lock as the write, so an event
// tracked while the flush runs schedules its own save.
func (t *Tracker) flush() {
	t.mu.Lock()
	t.dirty = false
	err := t.saveLocked()
	t.mu.Unlock()
	if err != nil {
		logging.Usage("usage save failed: %v", err)
	}
}

// Stats returns a copy of the aggregated counters.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyCounts(stats.ByProvider)
	stats.ByModel = copyCounts(stats.ByModel)
	stats.ByOperation = copyCounts(stats.ByOperation)
	stats.ByDay = copyCounts(stats.ByDay)
	return stats
}

func copyCounts(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, prompt, completion int) {
	entry := m[key]
	entry.Add(prompt, completion)
	m[key] = entry
}
