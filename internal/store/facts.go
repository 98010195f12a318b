package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"promptos/internal/logging"
)

// Fact is one persisted statement about a user. Positions are dense and
// unique per user: 0..count-1 with no gaps.
type Fact struct {
	ID        string
	UserID    string
	Content   string
	Position  int
	Source    string // "manual" or "auto"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFacts returns all facts for a user ordered by position ascending.
func (s *Store) ListFacts(userID string) ([]Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, user_id, content, position, source, created_at, updated_at
		 FROM user_facts WHERE user_id = ? ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.UserID, &f.Content, &f.Position, &f.Source, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// CountFacts returns the number of facts stored for a user.
func (s *Store) CountFacts(userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM user_facts WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return count, nil
}

// InsertFact appends a fact at the given position and returns it.
func (s *Store) InsertFact(userID, content string, position int, source string) (*Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &Fact{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Position:  position,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO user_facts (id, user_id, content, position, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Content, f.Position, f.Source, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert fact: %w", err)
	}

	logging.StoreDebug("Inserted fact %s at position %d for user %s", f.ID, position, userID)
	return f, nil
}

// UpdateFact replaces a fact's content. Position is untouched.
func (s *Store) UpdateFact(factID, content string) (*Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`UPDATE user_facts SET content = ?, updated_at = ? WHERE id = ?`,
		content, now, factID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update fact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("fact not found: %s", factID)
	}

	var f Fact
	err = s.db.QueryRow(
		`SELECT id, user_id, content, position, source, created_at, updated_at
		 FROM user_facts WHERE id = ?`, factID,
	).Scan(&f.ID, &f.UserID, &f.Content, &f.Position, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back fact: %w", err)
	}
	return &f, nil
}

// DeleteFact removes a fact and re-packs the remaining positions so they
// stay contiguous 0..count-1 in the original relative order. Both steps run
// in one transaction.
func (s *Store) DeleteFact(factID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRow(`SELECT user_id FROM user_facts WHERE id = ?`, factID).Scan(&userID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("fact not found: %s", factID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up fact: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM user_facts WHERE id = ?`, factID); err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}

	if err := repackPositions(tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	logging.StoreDebug("Deleted fact %s and repacked positions for user %s", factID, userID)
	return nil
}

// repackPositions rewrites positions to the dense range 0..count-1,
// preserving the current order.
func repackPositions(tx *sql.Tx, userID string) error {
	rows, err := tx.Query(
		`SELECT id FROM user_facts WHERE user_id = ? ORDER BY position ASC`, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to read positions: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE user_facts SET position = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("failed to repack position %d: %w", i, err)
		}
	}
	return nil
}
