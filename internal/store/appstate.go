package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// app_state keys used by the subsystem. The table itself is an open-ended
// key/value map; nothing stops other components from storing their own keys.
const (
	// lastSyncKey records the instant of the last successful sync run.
	lastSyncKey = "last_sync_at"
)

// SetAppState stores a singleton value under a key, overwriting any prior
// value.
func (s *Store) SetAppState(key, value string) error {
	return s.SetAppStateContext(context.Background(), key, value)
}

// SetAppStateContext stores a singleton value with context support.
func (s *Store) SetAppStateContext(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	query := `
	INSERT INTO app_state (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`

	if _, err := s.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set app state %s: %w", key, err)
	}
	return nil
}

// GetAppState returns the value for a key and whether it was present.
func (s *Store) GetAppState(key string) (string, bool, error) {
	return s.GetAppStateContext(context.Background(), key)
}

// GetAppStateContext returns a singleton value with context support.
func (s *Store) GetAppStateContext(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get app state %s: %w", key, err)
	}
	return value, true, nil
}

// SetLastSync records the instant of the last successful sync run.
func (s *Store) SetLastSync(t time.Time) error {
	return s.SetAppState(lastSyncKey, t.UTC().Format(time.RFC3339))
}

// LastSync returns the instant of the last successful sync run, or the zero
// time if no sync has completed yet.
func (s *Store) LastSync() (time.Time, error) {
	value, ok, err := s.GetAppState(lastSyncKey)
	if err != nil || !ok {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last sync instant: %w", err)
	}
	return t, nil
}
