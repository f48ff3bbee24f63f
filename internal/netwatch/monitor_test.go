package netwatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeProber struct {
	mu   sync.Mutex
	errs []error
	hits int
}

func (f *fakeProber) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestMonitor_TransitionsAfterTwoFailures(t *testing.T) {
	down := errors.New("connection refused")
	prober := &fakeProber{errs: []error{down, down, down, nil}}
	m := New(prober, time.Second, nil)

	var changes []bool
	m.OnChange(func(online bool) { changes = append(changes, online) })

	ctx := context.Background()
	if !m.Online() {
		t.Fatalf("new monitor should start online")
	}
	if !m.Probe(ctx) {
		t.Fatalf("one failure should not switch to offline")
	}
	if m.Probe(ctx) {
		t.Fatalf("two failures should switch to offline")
	}
	m.Probe(ctx)
	if got := m.nextDelay(); got != 8*time.Second {
		t.Fatalf("offline delay after 3 failures = %v, want 8s", got)
	}
	if !m.Probe(ctx) {
		t.Fatalf("first success should switch back online")
	}
	if m.Failures() != 0 {
		t.Fatalf("Failures = %d, want 0 after success", m.Failures())
	}

	if len(changes) != 2 || changes[0] != false || changes[1] != true {
		t.Fatalf("changes = %v, want [false true]", changes)
	}
}

func TestMonitor_Unsubscribe(t *testing.T) {
	down := errors.New("down")
	m := New(&fakeProber{errs: []error{down, down}}, time.Second, nil)

	calls := 0
	stop := m.OnChange(func(bool) { calls++ })
	stop()

	m.Probe(context.Background())
	m.Probe(context.Background())
	if calls != 0 {
		t.Fatalf("unsubscribed listener called %d times", calls)
	}
}

func TestMonitor_CancelledContextIsNotAnOutage(t *testing.T) {
	prober := &fakeProber{errs: []error{errors.New("x"), errors.New("x")}}
	m := New(prober, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.Probe(ctx)
	m.Probe(ctx)
	if !m.Online() || prober.hits != 0 {
		t.Fatalf("Online = %v, hits = %d; want online with no probes", m.Online(), prober.hits)
	}
}

func TestMonitor_StartProbesImmediately(t *testing.T) {
	prober := &fakeProber{}
	m := New(prober, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		prober.mu.Lock()
		hits := prober.hits
		prober.mu.Unlock()
		if hits > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Start did not probe within 2s")
}
