package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	online bool
	err    error
	calls  atomic.Int32
}

func (f *fakeSource) Online() bool { return f.online }

func (f *fakeSource) Refresh(context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name      string
		online    bool
		err       error
		want      bool
		wantCalls int32
		wantLog   bool
	}{
		{"online success", true, nil, true, 1, false},
		{"online failure", true, errors.New("proxy down"), false, 1, true},
		{"offline skipped", false, nil, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			src := &fakeSource{online: tt.online, err: tt.err}
			got := refresh(context.Background(), src, log.New(&buf, "", 0))
			if got != tt.want {
				t.Fatalf("refresh = %v, want %v", got, tt.want)
			}
			if calls := src.calls.Load(); calls != tt.wantCalls {
				t.Fatalf("Refresh calls = %d, want %d", calls, tt.wantCalls)
			}
			if logged := strings.Contains(buf.String(), "roster poll failed"); logged != tt.wantLog {
				t.Fatalf("log = %q, want logged=%v", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestRefresh_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{online: true}
	if refresh(ctx, src, log.New(&bytes.Buffer{}, "", 0)) {
		t.Fatalf("refresh on cancelled context returned true")
	}
	if src.calls.Load() != 0 {
		t.Fatalf("Refresh called on cancelled context")
	}
}

func TestStartPoller_RefreshesImmediatelyAndRepeats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{online: true}
	StartPoller(ctx, src, 10*time.Millisecond, log.New(&bytes.Buffer{}, "", 0))

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Refresh calls = %d after 2s, want at least 3", src.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
