package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by stores that can drop old documents themselves.
// S3 buckets are expected to use lifecycle rules instead.
type Sweeper interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// RetentionConfig controls the periodic removal of old documents
type RetentionConfig struct {
	// MaxAge is how long a document is kept; zero disables the sweep
	MaxAge time.Duration
	// Interval between sweeps
	// Default: 1h
	Interval time.Duration
	Logger   *zap.Logger
}

// RunRetention sweeps store once immediately and then every interval until ctx
// is done. It returns at once when retention is disabled or the store cannot
// sweep.
func RunRetention(ctx context.Context, store DocumentStore, cfg RetentionConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAge <= 0 || store == nil {
		return
	}
	sweeper, ok := store.(Sweeper)
	if !ok {
		logger.Info("document store has no retention support, sweep disabled")
		return
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	sweep := func() {
		deleted, err := sweeper.CleanupOlderThan(ctx, cfg.MaxAge)
		if err != nil {
			logger.Warn("document retention sweep failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("expired documents removed",
				zap.Int("deleted", deleted),
				zap.Duration("max_age", cfg.MaxAge))
		}
	}

	sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
