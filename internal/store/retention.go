package store

import (
	"context"
	"fmt"
	"time"
)

// RunRetention prunes finished data older than the retention window.
// Bets, interruptions, and tag links follow their session via cascade.
func (s *Store) RunRetention(ctx context.Context, retentionDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE status IN ('COMPLETED', 'ABANDONED') AND ended_at IS NOT NULL AND ended_at < ?",
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old sessions: %w", err)
	}

	// Penalties survive only once viewed; unviewed ones stay indefinitely.
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM penalties WHERE viewed = 1 AND created_at < ?",
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old penalties: %w", err)
	}

	return nil
}

// DBSizeBytes returns the database size in bytes
func (s *Store) DBSizeBytes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pageCount int64
	var pageSize int64

	// Get page count
	err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}

	// Get page size
	err = s.db.QueryRow("PRAGMA page_size").Scan(&pageSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}

	return pageCount * pageSize, nil
}
