package session

import (
	"context"
	"log/slog"
	"time"
)

const reaperInterval = time.Hour

// StartReaper runs a background goroutine that periodically sweeps the
// store for expired sessions until ctx is cancelled.
func StartReaper(ctx context.Context, store *Store) {
	ticker := time.NewTicker(reaperInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", reaperInterval, "ttl", TTL)

		for {
			select {
			case <-ticker.C:
				store.EvictExpired(time.Now())
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
