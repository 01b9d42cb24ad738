package sync

import (
	"context"

	"github.com/rgould/auctionsync/internal/store"
)

// Result aggregates the outcome of one sync run.
type Result struct {
	// Synced is the number of decisions acknowledged by the remote.
	Synced int
	// Failed is the number of decisions whose delivery attempt failed.
	// Failed items stay pending and are retried on the next run.
	Failed int
	// Stuck is the number of pending decisions skipped because they
	// reached the retry ceiling. They need operator attention.
	Stuck int
}

// Syncer drains the local decision queue against the remote endpoint.
//
// The syncer is resilient - individual delivery failures are recorded on
// the item and do not stop the run. It is idempotent to re-invocation:
// decisions already marked synced are excluded from every subsequent run.
type Syncer interface {
	// SyncPending delivers all pending decisions, in insertion order,
	// one attempt each.
	//
	// On success an item is marked synced; on failure its attempt
	// counter and last error are persisted and the run continues with
	// the next item. Items at or past the retry ceiling are skipped and
	// counted as stuck.
	//
	// Only one process drains the queue at a time: the run takes the
	// store's sync lease first and returns ErrSyncActive when another
	// owner holds it.
	//
	// Returns an error only for store-level failures; per-item delivery
	// failures are reflected in the Result, never as an error.
	SyncPending(ctx context.Context) (Result, error)
}

// Deliverer performs a single network delivery of one decision.
//
// Implemented by Client for the real endpoint and by test doubles.
// Any returned error - transport failure or non-2xx response - counts as a
// delivery failure for that item.
type Deliverer interface {
	Deliver(ctx context.Context, d *store.PendingDecision) error
}
