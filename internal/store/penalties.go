package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/penalty"
)

// CreatePenalty inserts a penalty record.
func (s *Store) CreatePenalty(p *penalty.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctxRaw, err := json.Marshal(p.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal penalty context: %w", err)
	}

	_, err = s.db.Exec(`
	INSERT INTO penalties (
		id, user_id, session_id, bet_id, type, content, context, archived, viewed, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID.String(), p.UserID.String(), p.SessionID.String(), p.BetID.String(),
		string(p.Type), p.Content, string(ctxRaw),
		boolToInt(p.Archived), boolToInt(p.Viewed), p.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create penalty: %w", err)
	}
	return nil
}

// SavePenalty updates the mutable fields of an existing penalty.
func (s *Store) SavePenalty(p *penalty.Penalty) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
	UPDATE penalties SET content = ?, archived = ?, viewed = ? WHERE id = ?
	`, p.Content, boolToInt(p.Archived), boolToInt(p.Viewed), p.ID.String())
	if err != nil {
		return fmt.Errorf("failed to save penalty: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("penalty %s: %w", p.ID, serrors.ErrNotFound)
	}
	return nil
}

// GetPenalty returns a penalty by ID, or ErrNotFound.
func (s *Store) GetPenalty(id uuid.UUID) (*penalty.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanPenalty(s.db.QueryRow(`
	SELECT id, user_id, session_id, bet_id, type, content, context, archived, viewed, created_at
	FROM penalties WHERE id = ?
	`, id.String()))
}

// ListPenalties returns a user's penalties, newest first. When archivedOnly
// is true only archived records are returned.
func (s *Store) ListPenalties(userID uuid.UUID, archivedOnly bool) ([]*penalty.Penalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, user_id, session_id, bet_id, type, content, context, archived, viewed, created_at
	FROM penalties WHERE user_id = ?`
	args := []any{userID.String()}
	if archivedOnly {
		query += ` AND archived = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query penalties: %w", err)
	}
	defer rows.Close()

	var penalties []*penalty.Penalty
	for rows.Next() {
		p, err := s.scanPenalty(rows)
		if err != nil {
			return nil, err
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}

func (s *Store) scanPenalty(row rowScanner) (*penalty.Penalty, error) {
	var (
		id, userID, sessionID, betID, typ, content, ctxRaw string
		archived, viewed                                   int
		createdAt                                          int64
	)

	err := row.Scan(&id, &userID, &sessionID, &betID, &typ, &content, &ctxRaw,
		&archived, &viewed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("penalty: %w", serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan penalty: %w", err)
	}

	var pctx penalty.Context
	if err := json.Unmarshal([]byte(ctxRaw), &pctx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal penalty context: %w", err)
	}

	return &penalty.Penalty{
		ID:        uuid.MustParse(id),
		UserID:    uuid.MustParse(userID),
		SessionID: uuid.MustParse(sessionID),
		BetID:     uuid.MustParse(betID),
		Type:      penalty.Type(typ),
		Content:   content,
		Context:   pctx,
		Archived:  archived != 0,
		Viewed:    viewed != 0,
		CreatedAt: msToTime(createdAt),
	}, nil
}
