// Package netwatch tracks whether the proxy is reachable by probing its
// health endpoint and notifies subscribers when that changes.
package netwatch

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

const (
	defaultInterval = 10 * time.Second
	maxBackoff      = 30 * time.Second

	// offlineThreshold is the number of consecutive failed probes after
	// which the monitor reports offline.
	offlineThreshold = 2
)

// Prober checks reachability. *gateway.Client satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor probes periodically. It starts out online so that a cache with a
// warm snapshot begins syncing without waiting for the first probe.
type Monitor struct {
	prober   Prober
	interval time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	online    bool
	failures  int
	nextID    int
	listeners map[int]func(online bool)
}

// New builds a Monitor. A zero interval selects 10 seconds; a nil logger
// discards output.
func New(prober Prober, interval time.Duration, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Monitor{
		prober:    prober,
		interval:  interval,
		logger:    logger,
		online:    true,
		listeners: make(map[int]func(bool)),
	}
}

// Online reports the last known state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Failures returns the number of consecutive failed probes.
func (m *Monitor) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// OnChange registers fn to be called with the new state on every
// transition. The returned func removes the subscription.
func (m *Monitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Start launches the probe loop in the background. It returns immediately;
// the loop ends with ctx.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		for {
			m.Probe(ctx)

			timer := time.NewTimer(m.nextDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// Probe runs one health check, updates the state and notifies listeners
// on a transition. It returns the resulting state.
func (m *Monitor) Probe(ctx context.Context) bool {
	if ctx.Err() != nil {
		return m.Online()
	}
	err := m.prober.Ping(ctx)
	if err != nil && ctx.Err() != nil {
		// Shutdown, not an outage.
		return m.Online()
	}

	m.mu.Lock()
	was := m.online
	if err != nil {
		m.failures++
		if m.failures >= offlineThreshold {
			m.online = false
		}
	} else {
		m.failures = 0
		m.online = true
	}
	now := m.online
	failures := m.failures
	var notify []func(bool)
	if now != was {
		notify = make([]func(bool), 0, len(m.listeners))
		for _, fn := range m.listeners {
			notify = append(notify, fn)
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Printf("health probe failed (%d in a row): %v", failures, err)
	}
	if now != was {
		if now {
			m.logger.Printf("backend reachable again")
		} else {
			m.logger.Printf("backend unreachable, switching to offline mode")
		}
		for _, fn := range notify {
			fn(now)
		}
	}
	return now
}

func (m *Monitor) nextDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online {
		return m.interval
	}
	return calculateBackoff(m.failures, m.interval)
}

// calculateBackoff doubles the base interval per consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
