package app

import (
	"context"
	"log"
	"time"
)

const defaultPollInterval = 30 * time.Second

// rosterSource is the part of the cache the poller drives.
type rosterSource interface {
	Online() bool
	Refresh(ctx context.Context) error
}

// StartPoller launches a background goroutine that refreshes the roster at
// a fixed cadence, starting immediately. Rounds are skipped while offline.
// It returns immediately.
func StartPoller(ctx context.Context, src rosterSource, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			refresh(ctx, src, logger)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func refresh(ctx context.Context, src rosterSource, logger *log.Logger) bool {
	if ctx.Err() != nil || !src.Online() {
		return false
	}
	if err := src.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Printf("roster poll failed: %v", err)
		}
		return false
	}
	return true
}
