package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/tag"
)

// CreateTag inserts a new tag. A duplicate (user, name) yields ErrConflict.
func (s *Store) CreateTag(t *tag.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
	INSERT INTO tags (id, user_id, name, color_hex, usage_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		t.ID.String(), t.UserID.String(), t.Name, t.ColorHex, t.UsageCount, t.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("tag %q already exists: %w", t.Name, serrors.ErrConflict)
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// SaveTag updates name, color, and usage count of an existing tag.
func (s *Store) SaveTag(t *tag.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
	UPDATE tags SET name = ?, color_hex = ?, usage_count = ? WHERE id = ?
	`, t.Name, t.ColorHex, t.UsageCount, t.ID.String())
	if err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", t.ID, serrors.ErrNotFound)
	}
	return nil
}

// GetTag returns a tag by ID, or ErrNotFound.
func (s *Store) GetTag(id uuid.UUID) (*tag.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanTag(s.db.QueryRow(`
	SELECT id, user_id, name, color_hex, usage_count, created_at
	FROM tags WHERE id = ?
	`, id.String()))
}

// GetTags resolves a set of tag IDs. Missing IDs yield ErrNotFound.
func (s *Store) GetTags(ids []uuid.UUID) ([]*tag.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tags := make([]*tag.Tag, 0, len(ids))
	for _, id := range ids {
		t, err := s.scanTag(s.db.QueryRow(`
		SELECT id, user_id, name, color_hex, usage_count, created_at
		FROM tags WHERE id = ?
		`, id.String()))
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// ListTags returns a user's tags ordered by name.
func (s *Store) ListTags(userID uuid.UUID) ([]*tag.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
	SELECT id, user_id, name, color_hex, usage_count, created_at
	FROM tags WHERE user_id = ? ORDER BY name ASC
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*tag.Tag
	for rows.Next() {
		t, err := s.scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeleteTag removes a tag together with its session links. Sessions keep
// their history; they just lose the label.
func (s *Store) DeleteTag(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session_tags WHERE tag_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete tag links: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("tag %s: %w", id, serrors.ErrNotFound)
	}

	return tx.Commit()
}

func (s *Store) scanTag(row rowScanner) (*tag.Tag, error) {
	var (
		id, userID, name, colorHex string
		usageCount, createdAt      int64
	)

	err := row.Scan(&id, &userID, &name, &colorHex, &usageCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("tag: %w", serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}

	return &tag.Tag{
		ID:         uuid.MustParse(id),
		UserID:     uuid.MustParse(userID),
		Name:       name,
		ColorHex:   colorHex,
		UsageCount: usageCount,
		CreatedAt:  msToTime(createdAt),
	}, nil
}
