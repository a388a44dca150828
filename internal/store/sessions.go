package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	serrors "github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/session"
)

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMsToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := msToTime(v.Int64)
	return &t
}

func timePtrToMs(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// SaveSession writes a session and its bet, interruptions, and tag links in
// one transaction. Safe to call repeatedly; rows are upserted by ID.
func (s *Store) SaveSession(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT OR REPLACE INTO sessions (
		id, user_id, study_day_id, pledge_content, target_seconds, status,
		started_at, ended_at, focus_started_at, stamina, longest_focus,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID.String(), sess.UserID.String(), sess.StudyDayID.String(),
		sess.Pledge.Content, int64(sess.TargetDuration.Seconds()), string(sess.Status),
		sess.StartedAt.UnixMilli(), timePtrToMs(sess.EndedAt), timePtrToMs(sess.CurrentFocusStartedAt()),
		sess.Stamina.Percentage(), int64(sess.Gauge.LongestContinuousFocus().Seconds()),
		sess.CreatedAt.UnixMilli(), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	b := sess.Bet
	_, err = tx.Exec(`
	INSERT OR REPLACE INTO bets (
		id, session_id, target_seconds, pledge_content, result, fail_reason, judged_at, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		b.ID.String(), b.SessionID.String(), int64(b.TargetDuration.Seconds()),
		b.PledgeContent, string(b.Result), b.FailReason, timePtrToMs(b.JudgedAt), b.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save bet: %w", err)
	}

	all := make([]*session.Interruption, 0, len(sess.Interruptions)+1)
	all = append(all, sess.Interruptions...)
	if ongoing := sess.OngoingInterruption(); ongoing != nil {
		all = append(all, ongoing)
	}
	for _, i := range all {
		_, err = tx.Exec(`
		INSERT OR REPLACE INTO interruptions (
			id, session_id, reason, stopped_at, resumed_at, stamina_consumed, stamina_after, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			i.ID.String(), i.SessionID.String(), string(i.Reason),
			i.StoppedAt.UnixMilli(), timePtrToMs(i.ResumedAt),
			i.StaminaConsumed, i.StaminaAfter, i.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to save interruption: %w", err)
		}
	}

	if _, err = tx.Exec(`DELETE FROM session_tags WHERE session_id = ?`, sess.ID.String()); err != nil {
		return fmt.Errorf("failed to clear session tags: %w", err)
	}
	for _, tagID := range sess.TagIDs {
		if _, err = tx.Exec(`INSERT INTO session_tags (session_id, tag_id) VALUES (?, ?)`,
			sess.ID.String(), tagID.String()); err != nil {
			return fmt.Errorf("failed to save session tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// GetSession rebuilds a session with its bet, interruption ledger, and tag
// links. Returns ErrNotFound if no such session exists.
func (s *Store) GetSession(id uuid.UUID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSession(id)
}

func (s *Store) getSession(id uuid.UUID) (*session.Session, error) {
	var (
		userID, studyDayID, pledgeContent, status string
		targetSeconds, startedAt, createdAt       int64
		stamina                                   int
		longestFocus                              int64
		endedAt, focusStartedAt                   sql.NullInt64
	)

	err := s.db.QueryRow(`
	SELECT user_id, study_day_id, pledge_content, target_seconds, status,
	       started_at, ended_at, focus_started_at, stamina, longest_focus, created_at
	FROM sessions WHERE id = ?
	`, id.String()).Scan(
		&userID, &studyDayID, &pledgeContent, &targetSeconds, &status,
		&startedAt, &endedAt, &focusStartedAt, &stamina, &longestFocus, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, serrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	bet, err := s.getBet(id)
	if err != nil {
		return nil, err
	}

	completed, ongoing, err := s.getInterruptions(id)
	if err != nil {
		return nil, err
	}

	tagIDs, err := s.getSessionTagIDs(id)
	if err != nil {
		return nil, err
	}

	target := time.Duration(targetSeconds) * time.Second
	startedAtT := msToTime(startedAt)

	return session.Restore(
		id, uuid.MustParse(userID), uuid.MustParse(studyDayID),
		session.Pledge{Content: pledgeContent, CreatedAt: msToTime(createdAt)},
		target, tagIDs,
		session.Status(status),
		startedAtT, nullMsToTime(endedAt), msToTime(createdAt),
		session.StaminaAt(stamina),
		session.FocusGaugeAt(target, time.Duration(longestFocus)*time.Second),
		bet, completed, ongoing, nullMsToTime(focusStartedAt),
	), nil
}

func (s *Store) getBet(sessionID uuid.UUID) (*session.Bet, error) {
	var (
		betID, result, failReason string
		betTarget, betCreated     int64
		pledge                    string
		judgedAt                  sql.NullInt64
	)
	err := s.db.QueryRow(`
	SELECT id, target_seconds, pledge_content, result, fail_reason, judged_at, created_at
	FROM bets WHERE session_id = ?
	`, sessionID.String()).Scan(&betID, &betTarget, &pledge, &result, &failReason, &judgedAt, &betCreated)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	return &session.Bet{
		ID:             uuid.MustParse(betID),
		SessionID:      sessionID,
		TargetDuration: time.Duration(betTarget) * time.Second,
		PledgeContent:  pledge,
		Result:         session.BetResult(result),
		FailReason:     failReason,
		JudgedAt:       nullMsToTime(judgedAt),
		CreatedAt:      msToTime(betCreated),
	}, nil
}

func (s *Store) getInterruptions(sessionID uuid.UUID) (completed []*session.Interruption, ongoing *session.Interruption, err error) {
	rows, err := s.db.Query(`
	SELECT id, reason, stopped_at, resumed_at, stamina_consumed, stamina_after, created_at
	FROM interruptions WHERE session_id = ? ORDER BY stopped_at ASC
	`, sessionID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get interruptions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			iid, reason                    string
			stoppedAt, createdAt           int64
			resumedAt                      sql.NullInt64
			staminaConsumed, staminaAfter  int
		)
		if err := rows.Scan(&iid, &reason, &stoppedAt, &resumedAt, &staminaConsumed, &staminaAfter, &createdAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan interruption: %w", err)
		}
		i := session.RestoreInterruption(
			uuid.MustParse(iid), sessionID, session.Reason(reason),
			msToTime(stoppedAt), nullMsToTime(resumedAt),
			staminaConsumed, staminaAfter, msToTime(createdAt),
		)
		if i.Ongoing() {
			ongoing = i
		} else {
			completed = append(completed, i)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate interruptions: %w", err)
	}
	return completed, ongoing, nil
}

func (s *Store) getSessionTagIDs(sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT tag_id FROM session_tags WHERE session_id = ?`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get session tags: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan session tag: %w", err)
		}
		ids = append(ids, uuid.MustParse(raw))
	}
	return ids, rows.Err()
}

// ActiveSession returns the user's running (ACTIVE or PAUSED) session, or
// nil if none exists. At most one can be running per user.
func (s *Store) ActiveSession(userID uuid.UUID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow(`
	SELECT id FROM sessions WHERE user_id = ? AND status IN ('ACTIVE', 'PAUSED') LIMIT 1
	`, userID.String()).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active session: %w", err)
	}
	return s.getSession(uuid.MustParse(raw))
}

// CountActiveSessions returns how many sessions are ACTIVE or PAUSED across
// all users, for seeding the active-session gauge at startup.
func (s *Store) CountActiveSessions() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow(`
	SELECT COUNT(*) FROM sessions WHERE status IN ('ACTIVE', 'PAUSED')
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}
	return n, nil
}

// SessionsForDay returns all sessions attached to a study day, oldest first.
func (s *Store) SessionsForDay(studyDayID uuid.UUID) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
	SELECT id FROM sessions WHERE study_day_id = ? ORDER BY started_at ASC
	`, studyDayID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query day sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, uuid.MustParse(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate day sessions: %w", err)
	}

	sessions := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.getSession(id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// StaleSessionIDs lists running sessions untouched since the cutoff, for
// the sweeper to force-abandon.
func (s *Store) StaleSessionIDs(cutoff time.Time) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
	SELECT id FROM sessions WHERE status IN ('ACTIVE', 'PAUSED') AND updated_at < ?
	`, cutoff.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query stale sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan stale session id: %w", err)
		}
		ids = append(ids, uuid.MustParse(raw))
	}
	return ids, rows.Err()
}

// DeleteSession removes a session; bets, interruptions, and tag links go
// with it via cascade.
func (s *Store) DeleteSession(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s: %w", id, serrors.ErrNotFound)
	}
	return nil
}
