package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rgould/auctionsync/internal/store"
)

// DefaultMaxAttempts is the retry ceiling per decision. A pending decision
// at or past the ceiling is skipped by subsequent runs and reported as
// stuck instead of being retried forever against a permanently-rejecting
// remote.
const DefaultMaxAttempts = 10

// DefaultLeaseTTL is how long one sync run may hold the writer lease.
const DefaultLeaseTTL = 2 * time.Minute

// ErrSyncActive is returned when another process holds the sync lease.
var ErrSyncActive = errors.New("sync already running in another process")

// Options configures a Syncer.
type Options struct {
	// MaxAttempts is the per-decision retry ceiling (default: 10).
	MaxAttempts int

	// LeaseTTL is the writer lease duration (default: 2m).
	LeaseTTL time.Duration

	// Owner identifies this process for the writer lease
	// (default: hostname + pid).
	Owner string
}

// syncer implements the Syncer interface.
type syncer struct {
	store       *store.Store
	deliverer   Deliverer
	logger      *log.Logger
	maxAttempts int
	leaseTTL    time.Duration
	owner       string
}

// New creates a new Syncer instance.
//
// The store must be open and have its schema initialized before passing to
// this function.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	st, err := store.Open(".aucsync/cache.db")
//	if err != nil {
//	    return err
//	}
//	if err := st.InitSchema(); err != nil {
//	    return err
//	}
//	syncer := sync.New(st, sync.NewClient(endpoint, 0), nil)
func New(st *store.Store, deliverer Deliverer, logger *log.Logger) Syncer {
	return NewWithOptions(st, deliverer, logger, Options{})
}

// NewWithOptions creates a Syncer with explicit retry and lease settings.
func NewWithOptions(st *store.Store, deliverer Deliverer, logger *log.Logger, opts Options) Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = DefaultLeaseTTL
	}
	if opts.Owner == "" {
		host, _ := os.Hostname()
		opts.Owner = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	return &syncer{
		store:       st,
		deliverer:   deliverer,
		logger:      logger,
		maxAttempts: opts.MaxAttempts,
		leaseTTL:    opts.LeaseTTL,
		owner:       opts.Owner,
	}
}

// SyncPending implements Syncer.SyncPending.
func (s *syncer) SyncPending(ctx context.Context) (Result, error) {
	acquired, err := s.store.AcquireSyncLeaseContext(ctx, s.owner, s.leaseTTL)
	if err != nil {
		return Result{}, fmt.Errorf("failed to acquire sync lease: %w", err)
	}
	if !acquired {
		return Result{}, ErrSyncActive
	}
	defer func() {
		if err := s.store.ReleaseSyncLeaseContext(ctx, s.owner); err != nil {
			s.logger.Printf("WARNING: failed to release sync lease: %v", err)
		}
	}()

	// Snapshot of the queue at run start; decisions appended during the
	// run wait for the next one.
	pending, err := s.store.GetPendingDecisionsContext(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read pending decisions: %w", err)
	}

	if len(pending) == 0 {
		return Result{}, nil
	}

	s.logger.Printf("Starting sync run: %d pending decisions", len(pending))

	var res Result
	for _, d := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		if d.SyncAttempts >= s.maxAttempts {
			s.logger.Printf("Skipping decision %d (%s): %d attempts, retry ceiling reached",
				d.Seq, d.CaseNumber, d.SyncAttempts)
			res.Stuck++
			continue
		}

		if err := s.deliverer.Deliver(ctx, d); err != nil {
			// One item's failure never aborts the batch.
			s.logger.Printf("WARNING: failed to deliver decision %d (%s): %v", d.Seq, d.CaseNumber, err)
			if recErr := s.store.RecordSyncFailureContext(ctx, d.Seq, err); recErr != nil {
				return res, fmt.Errorf("failed to record sync failure: %w", recErr)
			}
			res.Failed++
			continue
		}

		if err := s.store.MarkDecisionSyncedContext(ctx, d.Seq); err != nil {
			return res, fmt.Errorf("failed to mark decision %d synced: %w", d.Seq, err)
		}

		s.logger.Printf("Synced decision %d: %s %s", d.Seq, d.CaseNumber, d.Decision)
		res.Synced++
	}

	s.logger.Printf("Sync run complete: synced=%d failed=%d stuck=%d", res.Synced, res.Failed, res.Stuck)

	return res, nil
}
