package sync

import (
	"context"
	"errors"
	"log"
	"os"
	stdsync "sync"
	"time"

	"github.com/rgould/auctionsync/internal/store"
)

// Status is one snapshot of the synchronization state, as consumed by UIs.
type Status struct {
	// PendingCount is the number of decisions not yet acknowledged by
	// the remote.
	PendingCount int `json:"pending_count"`
	// LastSync is the instant of the last successful sync run; zero when
	// no run has completed yet.
	LastSync time.Time `json:"last_sync"`
	// Online reflects the connectivity monitor's current view.
	Online bool `json:"online"`
	// Syncing is true while a sync run is in flight.
	Syncing bool `json:"syncing"`
}

// Publisher is an observable over Status. Subscribers receive the current
// snapshot immediately, then a new snapshot on every change, so a progress
// indicator can render continuously.
type Publisher struct {
	store  *store.Store
	syncer Syncer
	logger *log.Logger

	mu     stdsync.Mutex
	status Status
	subs   map[int]chan Status
	nextID int
}

// NewPublisher creates a Publisher seeded from the store's persisted state.
// If logger is nil, a default logger writing to stderr is used.
func NewPublisher(st *store.Store, syncer Syncer, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.New(os.Stderr, "[status] ", log.LstdFlags)
	}

	p := &Publisher{
		store:  st,
		syncer: syncer,
		logger: logger,
		subs:   make(map[int]chan Status),
	}

	// Seed best-effort; a fresh store just starts from zero values.
	if count, err := st.CountPendingDecisions(); err == nil {
		p.status.PendingCount = count
	}
	if last, err := st.LastSync(); err == nil {
		p.status.LastSync = last
	}

	return p
}

// Store returns the store this publisher reports on.
func (p *Publisher) Store() *store.Store {
	return p.store
}

// Status returns the current snapshot.
func (p *Publisher) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Subscribe registers a listener. The current snapshot is delivered
// immediately on the returned channel, followed by a snapshot on every
// state change. The second return value unsubscribes and must be called to
// release the channel.
//
// Slow subscribers do not block the publisher: a snapshot that cannot be
// buffered is dropped, and the next change supersedes it anyway.
func (p *Publisher) Subscribe() (<-chan Status, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++

	ch := make(chan Status, 16)
	p.subs[id] = ch
	ch <- p.status

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// SetOnline records a connectivity transition. Subscribers are notified
// only when the flag actually changes.
func (p *Publisher) SetOnline(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.Online == online {
		return
	}
	p.status.Online = online
	p.notifyLocked()
}

// Sync is the public entry point for forcing a flush.
//
// It is a no-op when a run is already in flight or the monitor reports
// offline. Otherwise subscribers see three emissions: Syncing=true at the
// start, updated counts after the run, and Syncing=false at the end.
func (p *Publisher) Sync(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.status.Syncing || !p.status.Online {
		p.mu.Unlock()
		return Result{}, nil
	}
	p.status.Syncing = true
	p.notifyLocked()
	p.mu.Unlock()

	res, err := p.syncer.SyncPending(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case errors.Is(err, ErrSyncActive):
		// Another process is draining the same queue; not an error for
		// the caller.
		err = nil
	case err != nil:
		p.logger.Printf("WARNING: sync failed: %v", err)
	default:
		if count, cntErr := p.store.CountPendingDecisionsContext(ctx); cntErr == nil {
			p.status.PendingCount = count
		}
		now := time.Now().UTC()
		p.status.LastSync = now
		if setErr := p.store.SetLastSync(now); setErr != nil {
			p.logger.Printf("WARNING: failed to persist last sync instant: %v", setErr)
		}
		p.notifyLocked()
	}

	p.status.Syncing = false
	p.notifyLocked()

	return res, err
}

// notifyLocked delivers the current snapshot to every subscriber.
// Callers must hold p.mu.
func (p *Publisher) notifyLocked() {
	for _, ch := range p.subs {
		select {
		case ch <- p.status:
		default:
			// Subscriber is behind; it will catch up on the next change.
		}
	}
}
