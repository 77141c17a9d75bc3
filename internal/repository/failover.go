package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"messenger/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverThrottleStore uses primary until it errors, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverThrottleStore struct {
	primary   domain.ThrottleStore
	fallback  domain.ThrottleStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverThrottleStore(primary, fallback domain.ThrottleStore, logger *zerolog.Logger) *FailoverThrottleStore {
	return &FailoverThrottleStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (f *FailoverThrottleStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() || f.shouldRetry() {
		allowed, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			if f.isDown.Swap(false) {
				f.logger.Info().Msg("primary throttle store recovered")
			}
			return allowed, nil
		}
		if !f.isDown.Swap(true) {
			f.logger.Error().Err(err).Msg("primary throttle store failed, falling back to memory")
		}
		f.markChecked()
	}

	return f.fallback.Allow(ctx, key, limit, window)
}

func (f *FailoverThrottleStore) shouldRetry() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now().Sub(f.lastCheck) > recoveryInterval
}

func (f *FailoverThrottleStore) markChecked() {
	f.mu.Lock()
	f.lastCheck = f.now()
	f.mu.Unlock()
}
