// Package daemon runs the offline-sync background process.
//
// The daemon:
//  1. Watches connectivity transitions and flushes the decision queue when
//     the process comes back online
//  2. Serializes flushes through a single worker consuming a sync-request
//     channel, so concurrent triggers never overlap
//  3. Periodically sweeps expired property cache entries
//  4. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/rgould/auctionsync/internal/netmon"
	syncpkg "github.com/rgould/auctionsync/internal/sync"
)

// BackgroundTaskName identifies the deferred-sync registration with the
// host platform.
const BackgroundTaskName = "sync-decisions"

// Registrar registers a named background task with the host platform so
// sync can run when the app is not in foreground.
//
// This is a pure availability optimization, never required for
// correctness: the connectivity monitor re-syncs on the next foreground
// online transition anyway. Registration failure is logged and ignored.
type Registrar interface {
	Register(name string) error
}

// noopRegistrar is used on platforms without background execution support.
type noopRegistrar struct{}

func (noopRegistrar) Register(string) error { return nil }

// Config holds configuration for the daemon.
type Config struct {
	// SweepInterval is how often to clear expired property cache entries.
	SweepInterval time.Duration

	// Registrar registers the background sync task (default: no-op).
	Registrar Registrar

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SweepInterval: 15 * time.Minute,
		Registrar:     noopRegistrar{},
		Logger:        log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates connectivity watching, queue flushing, and cache
// sweeping.
type Daemon struct {
	publisher *syncpkg.Publisher
	monitor   *netmon.Monitor
	config    *Config

	// requests is the fire-and-forget flush channel. Anything wanting an
	// opportunistic sync enqueues here; exactly one worker drains it, so
	// two triggers can never produce overlapping runs.
	requests chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance.
//
// The daemon requires:
//   - publisher: the status publisher wrapping the sync orchestrator
//   - monitor: the connectivity monitor (not yet started)
//
// Use Start() to begin watching and syncing.
func New(publisher *syncpkg.Publisher, monitor *netmon.Monitor) (*Daemon, error) {
	return NewWithConfig(publisher, monitor, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(publisher *syncpkg.Publisher, monitor *netmon.Monitor, config *Config) (*Daemon, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher cannot be nil")
	}
	if monitor == nil {
		return nil, fmt.Errorf("monitor cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Registrar == nil {
		config.Registrar = noopRegistrar{}
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		publisher: publisher,
		monitor:   monitor,
		config:    config,
		requests:  make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
//  1. Register the background sync task (best-effort)
//  2. Start the connectivity monitor and mirror its state to the publisher
//  3. Flush the decision queue on every offline-to-online transition
//  4. Sweep expired property cache entries on a timer
//
// This blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := d.config.Registrar.Register(BackgroundTaskName); err != nil {
		// Availability optimization only; the monitor covers correctness.
		d.config.Logger.Printf("Background task registration unavailable: %v", err)
	}

	if err := d.monitor.Start(d.ctx); err != nil {
		return fmt.Errorf("failed to start connectivity monitor: %w", err)
	}

	d.publisher.SetOnline(d.monitor.Online())

	d.wg.Add(3)
	go d.syncWorker()
	go d.watchTransitions()
	go d.sweepLoop()

	// An initial flush picks up anything queued while the process was
	// down.
	if d.monitor.Online() {
		d.RequestSync()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.monitor.Stop(); err != nil {
		d.config.Logger.Printf("Error stopping monitor: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// RequestSync enqueues one flush request without blocking.
//
// This is the fire-and-forget hook for write paths: recording a decision
// stays durable and non-blocking regardless of network state, and the
// worker picks the request up when it can. A request is dropped when one
// is already queued - the pending run will cover it.
func (d *Daemon) RequestSync() {
	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// syncWorker is the single consumer of the sync-request channel.
func (d *Daemon) syncWorker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-d.requests:
			res, err := d.publisher.Sync(d.ctx)
			if err != nil {
				// Contained here; the next trigger retries.
				d.config.Logger.Printf("Sync run failed: %v", err)
				continue
			}
			if res.Synced > 0 || res.Failed > 0 || res.Stuck > 0 {
				d.config.Logger.Printf("Sync run: synced=%d failed=%d stuck=%d",
					res.Synced, res.Failed, res.Stuck)
			}
		}
	}
}

// watchTransitions mirrors connectivity state to the publisher and requests
// a flush on every offline-to-online edge.
func (d *Daemon) watchTransitions() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case t, ok := <-d.monitor.Events():
			if !ok {
				return
			}
			d.publisher.SetOnline(t.Online)
			if t.Online {
				d.config.Logger.Println("Back online, requesting sync")
				d.RequestSync()
			}
		}
	}
}

// sweepLoop periodically clears expired property cache entries.
func (d *Daemon) sweepLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			removed, err := d.publisher.Store().ClearExpiredCacheContext(d.ctx)
			if err != nil {
				d.config.Logger.Printf("Error sweeping expired cache: %v", err)
				continue
			}
			if removed > 0 {
				d.config.Logger.Printf("Swept %d expired cache entries", removed)
			}
		}
	}
}
