package store

import (
	"database/sql"
	"fmt"
	"time"

	"promptos/internal/logging"
)

// Profile holds per-user settings and token accounting. The generation
// orchestrator reads it as a snapshot; token counters are updated through
// AddTokenUsage (read-modify-write), never by mutating a shared reference.
type Profile struct {
	ID                string
	DisplayName       string
	WritingStyle      string // professional, casual, concise, creative, custom
	WritingStyleGuide string // used when WritingStyle == "custom"
	MemoryEnabled     bool
	ScreenshotEnabled bool
	ThinkingEnabled   bool
	TokensUsed        int64
	TokensRemaining   int64
	SelectedModel     string
	Language          string // "en" or "ja"
}

// GetProfile returns the profile for a user, or nil when none exists.
func (s *Store) GetProfile(userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Profile
	var memOn, shotOn, thinkOn int
	err := s.db.QueryRow(
		`SELECT id, display_name, writing_style, writing_style_guide,
		        memory_enabled, screenshot_enabled, thinking_enabled,
		        tokens_used, tokens_remaining, selected_model, language
		 FROM user_profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &p.DisplayName, &p.WritingStyle, &p.WritingStyleGuide,
		&memOn, &shotOn, &thinkOn,
		&p.TokensUsed, &p.TokensRemaining, &p.SelectedModel, &p.Language)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.MemoryEnabled = memOn != 0
	p.ScreenshotEnabled = shotOn != 0
	p.ThinkingEnabled = thinkOn != 0
	return &p, nil
}

// UpsertProfile writes the full profile row.
func (s *Store) UpsertProfile(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO user_profiles
		   (id, display_name, writing_style, writing_style_guide,
		    memory_enabled, screenshot_enabled, thinking_enabled,
		    tokens_used, tokens_remaining, selected_model, language, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name = excluded.display_name,
		   writing_style = excluded.writing_style,
		   writing_style_guide = excluded.writing_style_guide,
		   memory_enabled = excluded.memory_enabled,
		   screenshot_enabled = excluded.screenshot_enabled,
		   thinking_enabled = excluded.thinking_enabled,
		   tokens_used = excluded.tokens_used,
		   tokens_remaining = excluded.tokens_remaining,
		   selected_model = excluded.selected_model,
		   language = excluded.language,
		   updated_at = excluded.updated_at`,
		p.ID, p.DisplayName, p.WritingStyle, p.WritingStyleGuide,
		boolToInt(p.MemoryEnabled), boolToInt(p.ScreenshotEnabled), boolToInt(p.ThinkingEnabled),
		p.TokensUsed, p.TokensRemaining, p.SelectedModel, p.Language, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// SetMemoryEnabled toggles fact injection/extraction for a user.
func (s *Store) SetMemoryEnabled(userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE user_profiles SET memory_enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled), time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle memory: %w", err)
	}
	return nil
}

// AddTokenUsage increments tokens_used and decrements tokens_remaining
// (floored at zero) atomically, returning the updated snapshot.
func (s *Store) AddTokenUsage(userID string, tokens int64) (*Profile, error) {
	s.mu.Lock()
	_, err := s.db.Exec(
		`UPDATE user_profiles
		 SET tokens_used = tokens_used + ?,
		     tokens_remaining = MAX(0, tokens_remaining - ?),
		     updated_at = ?
		 WHERE id = ?`,
		tokens, tokens, time.Now().UTC(), userID,
	)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to record token usage: %w", err)
	}

	logging.StoreDebug("Recorded %d tokens for user %s", tokens, userID)
	return s.GetProfile(userID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
