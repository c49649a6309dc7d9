package idempotency

import (
	"log/slog"
	"time"
)

// DefaultExpiry is the retention window for stored keys. A retry arriving
// more than a day after the original request gets a fresh write, not a
// replay.
const DefaultExpiry = 24 * time.Hour

// CleanupOldKeys prunes keys older than expiry and reports how many were
// removed.
func CleanupOldKeys(repo Repository, expiry time.Duration) (int64, error) {
	deleted, err := repo.DeleteOlderThan(expiry)
	if err != nil {
		slog.Error("failed to cleanup old idempotency keys", "error", err)
		return 0, err
	}

	if deleted > 0 {
		slog.Info("cleaned up old idempotency keys", "deleted", deleted, "older_than", expiry)
	}

	return deleted, nil
}

// RunPeriodicCleanup prunes once immediately and then on every tick until
// stopChan closes. It blocks; run it in a goroutine:
//
//	stop := make(chan struct{})
//	go idempotency.RunPeriodicCleanup(repo, time.Hour, idempotency.DefaultExpiry, stop)
func RunPeriodicCleanup(repo Repository, interval time.Duration, expiry time.Duration, stopChan <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := CleanupOldKeys(repo, expiry); err != nil {
		slog.Error("initial cleanup failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := CleanupOldKeys(repo, expiry); err != nil {
				slog.Error("periodic cleanup failed", "error", err)
			}
		case <-stopChan:
			slog.Info("stopping periodic cleanup")
			return
		}
	}
}
