package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// leaseKey is the app_state key holding the sync writer lease.
const leaseKey = "sync_lease"

// syncLease is the serialized lease record.
type syncLease struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AcquireSyncLease attempts to take the single-writer sync lease for ttl.
//
// Only one process may drain the decision queue at a time, even when two
// processes share the same store file. The lease is acquired transactionally:
// it succeeds when no lease exists, the current lease has expired, or the
// caller already holds it (renewal). Returns false without error when
// another live owner holds the lease.
func (s *Store) AcquireSyncLease(owner string, ttl time.Duration) (bool, error) {
	return s.AcquireSyncLeaseContext(context.Background(), owner, ttl)
}

// AcquireSyncLeaseContext attempts to take the lease with context support.
func (s *Store) AcquireSyncLeaseContext(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	if owner == "" {
		return false, fmt.Errorf("lease owner is required")
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()

	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, leaseKey).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read sync lease: %w", err)
	}

	if err == nil {
		var current syncLease
		if jsonErr := json.Unmarshal([]byte(value), &current); jsonErr == nil {
			if current.Owner != owner && now.Before(current.ExpiresAt) {
				return false, nil
			}
		}
		// A corrupt lease record is treated as expired.
	}

	lease := syncLease{Owner: owner, ExpiresAt: now.Add(ttl)}
	leaseJSON, err := json.Marshal(lease)
	if err != nil {
		return false, fmt.Errorf("failed to marshal sync lease: %w", err)
	}

	query := `
	INSERT INTO app_state (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := tx.ExecContext(ctx, query, leaseKey, string(leaseJSON)); err != nil {
		return false, fmt.Errorf("failed to write sync lease: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// ReleaseSyncLease gives up the lease if the caller still owns it.
// Releasing a lease owned by someone else is a no-op.
func (s *Store) ReleaseSyncLease(owner string) error {
	return s.ReleaseSyncLeaseContext(context.Background(), owner)
}

// ReleaseSyncLeaseContext gives up the lease with context support.
func (s *Store) ReleaseSyncLeaseContext(ctx context.Context, owner string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var value string
	err = tx.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, leaseKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sync lease: %w", err)
	}

	var current syncLease
	if jsonErr := json.Unmarshal([]byte(value), &current); jsonErr == nil {
		if current.Owner != owner {
			return nil
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, leaseKey); err != nil {
		return fmt.Errorf("failed to delete sync lease: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
