package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/studyday"
)

const dateLayout = "2006-01-02"

// SaveStudyDay upserts a study day row.
func (s *Store) SaveStudyDay(d *studyday.StudyDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStudyDay(d)
}

func (s *Store) saveStudyDay(d *studyday.StudyDay) error {
	tagColors, err := json.Marshal(d.TagColorSlice())
	if err != nil {
		return fmt.Errorf("failed to marshal tag colors: %w", err)
	}

	var highlight sql.NullString
	if d.Highlight != nil {
		raw, err := json.Marshal(d.Highlight)
		if err != nil {
			return fmt.Errorf("failed to marshal highlight: %w", err)
		}
		highlight = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.Exec(`
	INSERT OR REPLACE INTO study_days (
		id, user_id, date, total_focus_seconds, total_sessions, win_count,
		lose_count, tag_colors, star_type, streak_continued, current_streak,
		highlight, finalized
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID.String(), d.UserID.String(), d.Date.Format(dateLayout),
		d.TotalFocusSeconds, d.TotalSessions, d.WinCount, d.LoseCount,
		string(tagColors), string(d.StarType), boolToInt(d.StreakContinued),
		d.CurrentStreak, highlight, boolToInt(d.Finalized()),
	)
	if err != nil {
		return fmt.Errorf("failed to save study day: %w", err)
	}
	return nil
}

// GetStudyDay returns the user's record for a calendar date, or ErrNotFound.
func (s *Store) GetStudyDay(userID uuid.UUID, date time.Time) (*studyday.StudyDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanStudyDay(s.db.QueryRow(`
	SELECT id, user_id, date, total_focus_seconds, total_sessions, win_count,
	       lose_count, tag_colors, star_type, streak_continued, current_streak,
	       highlight, finalized
	FROM study_days WHERE user_id = ? AND date = ?
	`, userID.String(), date.Format(dateLayout)))
}

// GetStudyDayByID returns a record by primary key, or ErrNotFound.
func (s *Store) GetStudyDayByID(id uuid.UUID) (*studyday.StudyDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanStudyDay(s.db.QueryRow(`
	SELECT id, user_id, date, total_focus_seconds, total_sessions, win_count,
	       lose_count, tag_colors, star_type, streak_continued, current_streak,
	       highlight, finalized
	FROM study_days WHERE id = ?
	`, id.String()))
}

// GetOrCreateStudyDay returns the user's record for a date, creating an
// empty one if it does not yet exist.
func (s *Store) GetOrCreateStudyDay(userID uuid.UUID, date time.Time) (*studyday.StudyDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.scanStudyDay(s.db.QueryRow(`
	SELECT id, user_id, date, total_focus_seconds, total_sessions, win_count,
	       lose_count, tag_colors, star_type, streak_continued, current_streak,
	       highlight, finalized
	FROM study_days WHERE user_id = ? AND date = ?
	`, userID.String(), date.Format(dateLayout)))
	if err == nil {
		return d, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	d = studyday.New(userID, date)
	if err := s.saveStudyDay(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListStudyDays returns a user's records in a date range, oldest first.
func (s *Store) ListStudyDays(userID uuid.UUID, from, to time.Time) ([]*studyday.StudyDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
	SELECT id, user_id, date, total_focus_seconds, total_sessions, win_count,
	       lose_count, tag_colors, star_type, streak_continued, current_streak,
	       highlight, finalized
	FROM study_days WHERE user_id = ? AND date >= ? AND date <= ?
	ORDER BY date ASC
	`, userID.String(), from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query study days: %w", err)
	}
	defer rows.Close()

	var days []*studyday.StudyDay
	for rows.Next() {
		d, err := s.scanStudyDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanStudyDay(row rowScanner) (*studyday.StudyDay, error) {
	var (
		id, userID, date, tagColorsRaw, starType string
		totalFocusSeconds                        int64
		totalSessions, winCount, loseCount       int
		streakContinued, currentStreak           int
		highlightRaw                             sql.NullString
		finalized                                int
	)

	err := row.Scan(
		&id, &userID, &date, &totalFocusSeconds, &totalSessions, &winCount,
		&loseCount, &tagColorsRaw, &starType, &streakContinued, &currentStreak,
		&highlightRaw, &finalized,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("study day: %w", serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan study day: %w", err)
	}

	var tagColors []string
	if err := json.Unmarshal([]byte(tagColorsRaw), &tagColors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag colors: %w", err)
	}

	var highlight *studyday.Highlight
	if highlightRaw.Valid {
		highlight = &studyday.Highlight{}
		if err := json.Unmarshal([]byte(highlightRaw.String), highlight); err != nil {
			return nil, fmt.Errorf("failed to unmarshal highlight: %w", err)
		}
	}

	parsedDate, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse study day date: %w", err)
	}

	return studyday.Restore(
		uuid.MustParse(id), uuid.MustParse(userID), parsedDate,
		totalFocusSeconds, totalSessions, winCount, loseCount,
		tagColors, studyday.StarType(starType),
		streakContinued != 0, currentStreak, highlight, finalized != 0,
	), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNotFound(err error) bool {
	return errors.Is(err, serrors.ErrNotFound)
}
