package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetentionInterval is how often the retention worker prunes transcripts.
const DefaultRetentionInterval = time.Hour

// StartRetentionWorker runs a background goroutine that periodically deletes
// transcript turns older than retention. It runs one pass immediately.
func StartRetentionWorker(ctx context.Context, repo Repository, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Retention worker started", "interval", interval, "retention", retention)

		pruneTurns(ctx, repo, retention)
		for {
			select {
			case <-ticker.C:
				pruneTurns(ctx, repo, retention)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func pruneTurns(ctx context.Context, repo Repository, retention time.Duration) {
	deleted, err := repo.CleanupOlderThan(ctx, retention)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("Retention worker failed to prune transcripts", "error", err)
		}
		return
	}
	if deleted > 0 {
		slog.Info("Retention worker pruned transcripts", "count", deleted)
	}
}
