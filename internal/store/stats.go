package store

import (
	"context"
	"fmt"
	"os"
)

// Stats reports collection counts and a best-effort storage size estimate.
type Stats struct {
	Properties       int   `json:"properties"`
	Auctions         int   `json:"auctions"`
	Decisions        int   `json:"decisions"`
	PendingDecisions int   `json:"pending_decisions"`
	QueuedWrites     int   `json:"queued_writes"`
	AppStateKeys     int   `json:"app_state_keys"`
	SizeBytes        int64 `json:"size_bytes"`
}

// GetStats returns counts per collection, the pending decision count, and a
// storage size estimate.
//
// The size estimate is best-effort: SQLite page accounting first, the
// database file size as fallback, and zero when neither is available.
// Absence of a size figure is never an error.
func (s *Store) GetStats() (*Stats, error) {
	return s.GetStatsContext(context.Background())
}

// GetStatsContext returns storage statistics with context support.
func (s *Store) GetStatsContext(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM properties`, &stats.Properties},
		{`SELECT COUNT(*) FROM auctions`, &stats.Auctions},
		{`SELECT COUNT(*) FROM decisions`, &stats.Decisions},
		{`SELECT COUNT(*) FROM decisions WHERE synced = 0`, &stats.PendingDecisions},
		{`SELECT COUNT(*) FROM sync_queue`, &stats.QueuedWrites},
		{`SELECT COUNT(*) FROM app_state`, &stats.AppStateKeys},
	}

	for _, c := range counts {
		if err := s.conn.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count collection: %w", err)
		}
	}

	stats.SizeBytes = s.sizeEstimate(ctx)

	return stats, nil
}

// sizeEstimate returns the database size in bytes, or 0 when unknown.
func (s *Store) sizeEstimate(ctx context.Context) int64 {
	var pageCount, pageSize int64
	err1 := s.conn.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	err2 := s.conn.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	if err1 == nil && err2 == nil && pageCount > 0 && pageSize > 0 {
		return pageCount * pageSize
	}

	if info, err := os.Stat(s.path); err == nil {
		return info.Size()
	}

	return 0
}

// ClearAllOfflineData empties all five collections unconditionally.
// Used for logout and reset flows. Pending decisions are lost.
func (s *Store) ClearAllOfflineData() error {
	return s.ClearAllOfflineDataContext(context.Background())
}

// ClearAllOfflineDataContext empties all collections with context support.
func (s *Store) ClearAllOfflineDataContext(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"properties", "auctions", "decisions", "sync_queue", "app_state"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
