package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	return s.migrateV1()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		nickname            TEXT NOT NULL,
		email               TEXT NOT NULL UNIQUE,
		level               INTEGER NOT NULL DEFAULT 1,
		experience          INTEGER NOT NULL DEFAULT 0,
		current_streak      INTEGER NOT NULL DEFAULT 0,
		longest_streak      INTEGER NOT NULL DEFAULT 0,
		total_study_minutes INTEGER NOT NULL DEFAULT 0,
		created_at          INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS tags (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		name        TEXT NOT NULL,
		color_hex   TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL,
		UNIQUE (user_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id);

	CREATE TABLE IF NOT EXISTS study_days (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL REFERENCES users(id),
		date                TEXT NOT NULL,
		total_focus_seconds INTEGER NOT NULL DEFAULT 0,
		total_sessions      INTEGER NOT NULL DEFAULT 0,
		win_count           INTEGER NOT NULL DEFAULT 0,
		lose_count          INTEGER NOT NULL DEFAULT 0,
		tag_colors          TEXT NOT NULL DEFAULT '[]',
		star_type           TEXT NOT NULL DEFAULT 'METEORITE',
		streak_continued    INTEGER NOT NULL DEFAULT 0,
		current_streak      INTEGER NOT NULL DEFAULT 0,
		highlight           TEXT,
		finalized           INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_study_days_user_date ON study_days(user_id, date);

	CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL REFERENCES users(id),
		study_day_id     TEXT NOT NULL REFERENCES study_days(id),
		pledge_content   TEXT NOT NULL,
		target_seconds   INTEGER NOT NULL,
		status           TEXT NOT NULL,
		started_at       INTEGER NOT NULL,
		ended_at         INTEGER,
		focus_started_at INTEGER,
		stamina          INTEGER NOT NULL,
		longest_focus    INTEGER NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL,
		updated_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_status ON sessions(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_sessions_day ON sessions(study_day_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS bets (
		id             TEXT PRIMARY KEY,
		session_id     TEXT NOT NULL UNIQUE REFERENCES sessions(id) ON DELETE CASCADE,
		target_seconds INTEGER NOT NULL,
		pledge_content TEXT NOT NULL,
		result         TEXT NOT NULL DEFAULT 'PENDING',
		fail_reason    TEXT NOT NULL DEFAULT '',
		judged_at      INTEGER,
		created_at     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interruptions (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		reason           TEXT NOT NULL,
		stopped_at       INTEGER NOT NULL,
		resumed_at       INTEGER,
		stamina_consumed INTEGER NOT NULL DEFAULT 0,
		stamina_after    INTEGER NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_interruptions_session ON interruptions(session_id, stopped_at);

	CREATE TABLE IF NOT EXISTS session_tags (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tag_id     TEXT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (session_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS penalties (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		session_id TEXT NOT NULL,
		bet_id     TEXT NOT NULL,
		type       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		context    TEXT NOT NULL DEFAULT '{}',
		archived   INTEGER NOT NULL DEFAULT 1,
		viewed     INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_penalties_user ON penalties(user_id, created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}
