package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Decision is a user verdict on a property.
type Decision string

const (
	// DecisionBid marks a property worth bidding on.
	DecisionBid Decision = "BID"
	// DecisionSkip marks a property not worth pursuing.
	DecisionSkip Decision = "SKIP"
	// DecisionReview marks a property needing another look.
	DecisionReview Decision = "REVIEW"
)

// Valid reports whether d is one of the known decision values.
func (d Decision) Valid() bool {
	switch d {
	case DecisionBid, DecisionSkip, DecisionReview:
		return true
	}
	return false
}

// PendingDecision is a user decision captured locally before the remote
// authority has confirmed it.
//
// Invariants: Synced transitions only false to true and never reverts;
// SyncAttempts is non-decreasing, incremented exactly once per failed
// delivery; LastError is advisory and set only alongside a failed attempt.
// Decisions are never deleted by normal flow - they remain as an audit
// trail until ClearAllOfflineData.
type PendingDecision struct {
	Seq          int64     `json:"seq"`
	CaseNumber   string    `json:"case_number"`
	AuctionDate  string    `json:"auction_date"`
	Decision     Decision  `json:"decision"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Synced       bool      `json:"synced"`
	SyncAttempts int       `json:"sync_attempts"`
	LastError    string    `json:"last_error,omitempty"`
}

// SaveDecision durably appends a decision to the queue and returns its
// sequence number.
//
// The decision is recorded regardless of network state: the moment this
// call returns, the decision is durable and the UI must treat it as
// recorded, independent of any later sync outcome. Opportunistic flushing
// is the daemon's job (it consumes a sync-request channel), never this
// call's.
func (s *Store) SaveDecision(caseNumber, auctionDate string, decision Decision, notes string) (int64, error) {
	return s.SaveDecisionContext(context.Background(), caseNumber, auctionDate, decision, notes)
}

// SaveDecisionContext appends a decision with context support.
func (s *Store) SaveDecisionContext(ctx context.Context, caseNumber, auctionDate string, decision Decision, notes string) (int64, error) {
	if caseNumber == "" {
		return 0, fmt.Errorf("case number is required")
	}
	if !decision.Valid() {
		return 0, fmt.Errorf("invalid decision %q (want BID, SKIP, or REVIEW)", decision)
	}

	query := `
	INSERT INTO decisions (case_number, auction_date, decision, notes, created_at, synced, sync_attempts)
	VALUES (?, ?, ?, ?, ?, 0, 0)
	`

	res, err := s.conn.ExecContext(ctx, query,
		caseNumber,
		auctionDate,
		string(decision),
		nullableString(notes),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save decision for %s: %w", caseNumber, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read decision sequence number: %w", err)
	}

	return seq, nil
}

// GetPendingDecisions returns all unsynced decisions in insertion order.
func (s *Store) GetPendingDecisions() ([]*PendingDecision, error) {
	return s.GetPendingDecisionsContext(context.Background())
}

// GetPendingDecisionsContext returns unsynced decisions with context
// support.
func (s *Store) GetPendingDecisionsContext(ctx context.Context) ([]*PendingDecision, error) {
	query := `
	SELECT seq, case_number, auction_date, decision, notes, created_at, synced, sync_attempts, last_error
	FROM decisions
	WHERE synced = 0
	ORDER BY seq ASC
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// CountPendingDecisions returns the number of unsynced decisions.
func (s *Store) CountPendingDecisions() (int, error) {
	return s.CountPendingDecisionsContext(context.Background())
}

// CountPendingDecisionsContext counts unsynced decisions with context
// support.
func (s *Store) CountPendingDecisionsContext(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE synced = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending decisions: %w", err)
	}
	return count, nil
}

// MarkDecisionSynced flips a decision to synced.
// A missing sequence number is a no-op: the decision may have been cleared
// concurrently.
func (s *Store) MarkDecisionSynced(seq int64) error {
	return s.MarkDecisionSyncedContext(context.Background(), seq)
}

// MarkDecisionSyncedContext flips a decision to synced with context
// support.
func (s *Store) MarkDecisionSyncedContext(ctx context.Context, seq int64) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE decisions SET synced = 1 WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("failed to mark decision %d synced: %w", seq, err)
	}
	return nil
}

// RecordSyncFailure increments a decision's attempt counter and records the
// delivery error for diagnostics. The error string is advisory; it is never
// used for control flow.
func (s *Store) RecordSyncFailure(seq int64, attemptErr error) error {
	return s.RecordSyncFailureContext(context.Background(), seq, attemptErr)
}

// RecordSyncFailureContext records a failed delivery attempt with context
// support.
func (s *Store) RecordSyncFailureContext(ctx context.Context, seq int64, attemptErr error) error {
	msg := ""
	if attemptErr != nil {
		msg = attemptErr.Error()
	}

	_, err := s.conn.ExecContext(ctx,
		`UPDATE decisions SET sync_attempts = sync_attempts + 1, last_error = ? WHERE seq = ?`,
		msg, seq,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync failure for decision %d: %w", seq, err)
	}
	return nil
}

// GetDecision returns a single decision by sequence number, or nil if
// absent.
func (s *Store) GetDecision(seq int64) (*PendingDecision, error) {
	return s.GetDecisionContext(context.Background(), seq)
}

// GetDecisionContext returns a single decision with context support.
func (s *Store) GetDecisionContext(ctx context.Context, seq int64) (*PendingDecision, error) {
	query := `
	SELECT seq, case_number, auction_date, decision, notes, created_at, synced, sync_attempts, last_error
	FROM decisions
	WHERE seq = ?
	`

	rows, err := s.conn.QueryContext(ctx, query, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision %d: %w", seq, err)
	}
	defer rows.Close()

	decisions, err := scanDecisions(rows)
	if err != nil {
		return nil, err
	}
	if len(decisions) == 0 {
		return nil, nil
	}
	return decisions[0], nil
}

// scanDecisions is a helper to scan decision rows from query results.
func scanDecisions(rows *sql.Rows) ([]*PendingDecision, error) {
	var decisions []*PendingDecision

	for rows.Next() {
		var d PendingDecision
		var decision, createdAt string
		var notes, lastError sql.NullString
		var synced int

		err := rows.Scan(
			&d.Seq,
			&d.CaseNumber,
			&d.AuctionDate,
			&decision,
			&notes,
			&createdAt,
			&synced,
			&d.SyncAttempts,
			&lastError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}

		d.Decision = Decision(decision)
		d.Synced = synced != 0
		d.Notes = notes.String
		d.LastError = lastError.String

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			d.CreatedAt = t
		}

		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	return decisions, nil
}

// nullableString maps an empty string to SQL NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
