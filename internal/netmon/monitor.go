// Package netmon tracks connectivity transitions for the offline-first
// core.
//
// The monitor keeps a boolean online state seeded from an initial probe and
// refreshed on a fixed interval. State changes are emitted as Transition
// events on a channel; the daemon consumes them and enqueues a sync request
// on every offline-to-online edge.
//
// An offline-override marker file forces the monitor offline regardless of
// probe results. The file is watched with fsnotify, so creating or removing
// it takes effect immediately - useful for tests and for an operator
// "airplane mode" switch.
package netmon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultProbeInterval is how often the monitor re-checks connectivity.
const DefaultProbeInterval = 30 * time.Second

// defaultProbeTimeout bounds a single connectivity probe.
const defaultProbeTimeout = 5 * time.Second

// Prober answers whether the remote authority is currently reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// HTTPProber probes connectivity with a HEAD request.
type HTTPProber struct {
	// URL is the endpoint to probe, typically the API's health check.
	URL string

	httpc *http.Client
}

// NewHTTPProber creates a prober against the given URL.
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		URL:   url,
		httpc: &http.Client{Timeout: defaultProbeTimeout},
	}
}

// Online reports whether the probe URL responded at all. Any HTTP response,
// including an error status, proves reachability; only transport failures
// count as offline.
func (p *HTTPProber) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return true
}

// Transition is one connectivity state change.
type Transition struct {
	// Online is the new state.
	Online bool
	// At is when the transition was observed.
	At time.Time
}

// Config holds configuration for the Monitor.
type Config struct {
	// ProbeInterval is how often to re-probe (default: 30s).
	ProbeInterval time.Duration

	// OverridePath is the offline-override marker file. While the file
	// exists the monitor reports offline regardless of probe results.
	// Empty disables the override.
	OverridePath string

	// Logger for monitor activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProbeInterval: DefaultProbeInterval,
		Logger:        log.New(os.Stderr, "[netmon] ", log.LstdFlags),
	}
}

// Monitor observes connectivity transitions.
//
// The monitor never returns errors to its event sources: probe failures
// simply read as offline, watcher errors are logged, and event delivery is
// dropped rather than blocked when the consumer is behind.
type Monitor struct {
	prober Prober
	config *Config

	watcher *fsnotify.Watcher
	events  chan Transition

	mu      sync.Mutex
	online  bool
	running bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Monitor. The initial online state is seeded from one
// synchronous probe at Start.
func New(prober Prober, config *Config) (*Monitor, error) {
	if prober == nil {
		return nil, fmt.Errorf("prober cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.ProbeInterval <= 0 {
		config.ProbeInterval = DefaultProbeInterval
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[netmon] ", log.LstdFlags)
	}

	return &Monitor{
		prober: prober,
		config: config,
		events: make(chan Transition, 16),
		done:   make(chan struct{}),
	}, nil
}

// Start seeds the online state and begins probing.
// Returns an error if the monitor is already running or the override watch
// cannot be established.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("monitor already running")
	}

	if m.config.OverridePath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create override watcher: %w", err)
		}
		// Watch the parent directory: the marker file itself may not
		// exist yet.
		if err := watcher.Add(filepath.Dir(m.config.OverridePath)); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch override directory: %w", err)
		}
		m.watcher = watcher
	}

	m.online = m.check(ctx)
	m.config.Logger.Printf("Initial connectivity: online=%v", m.online)

	m.running = true
	m.wg.Add(1)
	go m.loop(ctx)

	return nil
}

// Stop shuts the monitor down and closes the event channel.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.config.Logger.Printf("Error closing override watcher: %v", err)
		}
	}

	m.wg.Wait()
	close(m.events)

	return nil
}

// Online returns the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Events returns the channel emitting connectivity transitions.
// The channel is closed when the monitor is stopped.
func (m *Monitor) Events() <-chan Transition {
	return m.events
}

// loop re-evaluates connectivity on the probe interval and on override
// file events.
func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.ProbeInterval)
	defer ticker.Stop()

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if m.watcher != nil {
		watchEvents = m.watcher.Events
		watchErrors = m.watcher.Errors
	}

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return

		case <-ticker.C:
			m.evaluate(ctx)

		case event, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if event.Name != m.config.OverridePath {
				continue
			}
			m.config.Logger.Printf("Override file event: %s %s", event.Op, event.Name)
			m.evaluate(ctx)

		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			m.config.Logger.Printf("Override watcher error: %v", err)
		}
	}
}

// evaluate probes connectivity and emits a transition when the state
// changed.
func (m *Monitor) evaluate(ctx context.Context) {
	online := m.check(ctx)

	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.mu.Unlock()

	m.config.Logger.Printf("Connectivity transition: online=%v", online)

	t := Transition{Online: online, At: time.Now()}
	select {
	case m.events <- t:
	case <-m.done:
	default:
		m.config.Logger.Println("Warning: transition channel full, dropping event")
	}
}

// check returns the effective connectivity: forced offline while the
// override file exists, otherwise the prober's answer.
func (m *Monitor) check(ctx context.Context) bool {
	if m.config.OverridePath != "" {
		if _, err := os.Stat(m.config.OverridePath); err == nil {
			return false
		}
	}
	return m.prober.Online(ctx)
}
