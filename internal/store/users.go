package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/user"
)

// CreateUser inserts a new user. A duplicate email yields ErrConflict.
func (s *Store) CreateUser(u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
	INSERT INTO users (
		id, nickname, email, level, experience, current_streak, longest_streak,
		total_study_minutes, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		u.ID.String(), u.Nickname, u.Email, u.Level, u.Experience,
		u.CurrentStreak, u.LongestStreak, u.TotalStudyMinutes, u.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("email %s already registered: %w", u.Email, serrors.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SaveUser updates the mutable counters of an existing user.
func (s *Store) SaveUser(u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
	UPDATE users SET nickname = ?, level = ?, experience = ?, current_streak = ?,
	       longest_streak = ?, total_study_minutes = ?
	WHERE id = ?
	`,
		u.Nickname, u.Level, u.Experience, u.CurrentStreak,
		u.LongestStreak, u.TotalStudyMinutes, u.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", u.ID, serrors.ErrNotFound)
	}
	return nil
}

// GetUser returns a user by ID, or ErrNotFound.
func (s *Store) GetUser(id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRow(`
	SELECT id, nickname, email, level, experience, current_streak,
	       longest_streak, total_study_minutes, created_at
	FROM users WHERE id = ?
	`, id.String()))
}

// GetUserByEmail returns a user by email, or ErrNotFound.
func (s *Store) GetUserByEmail(email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRow(`
	SELECT id, nickname, email, level, experience, current_streak,
	       longest_streak, total_study_minutes, created_at
	FROM users WHERE email = ?
	`, email))
}

func (s *Store) scanUser(row rowScanner) (*user.User, error) {
	var (
		id, nickname, email           string
		level                         int
		experience                    int64
		currentStreak, longestStreak  int
		totalStudyMinutes, createdAt  int64
	)

	err := row.Scan(&id, &nickname, &email, &level, &experience,
		&currentStreak, &longestStreak, &totalStudyMinutes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &user.User{
		ID:                uuid.MustParse(id),
		Nickname:          nickname,
		Email:             email,
		Level:             level,
		Experience:        experience,
		CurrentStreak:     currentStreak,
		LongestStreak:     longestStreak,
		TotalStudyMinutes: totalStudyMinutes,
		CreatedAt:         msToTime(createdAt),
	}, nil
}
