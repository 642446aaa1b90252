package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/observability"
)

// DefaultRequestDelay is the pause inserted between consecutive seed fetches.
// The Recommendations API is strict about request pacing for unauthenticated
// clients, so fan-out is sequential rather than concurrent.
const DefaultRequestDelay = 1000 * time.Millisecond

// FetchFunc fetches recommendations for a single seed paper ID.
type FetchFunc func(ctx context.Context, seed string) ([]*domain.Paper, error)

// Scheduler executes per-seed fetches strictly sequentially, waiting a fixed
// delay before every fetch after the first. A failed fetch contributes zero
// results and does not abort the remaining seeds.
type Scheduler struct {
	delay   time.Duration
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewScheduler creates a Scheduler. A non-positive delay falls back to
// DefaultRequestDelay.
func NewScheduler(delay time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Scheduler {
	if delay <= 0 {
		delay = DefaultRequestDelay
	}
	return &Scheduler{
		delay:   delay,
		logger:  logger,
		metrics: metrics,
	}
}

// Run fetches recommendations for each seed in order. It returns the
// concatenated results in seed order and the number of seeds whose fetch
// failed. The only error returned is a context error; provider failures are
// logged, counted, and absorbed.
func (s *Scheduler) Run(ctx context.Context, seeds []string, fetch FetchFunc) ([]*domain.Paper, int, error) {
	var papers []*domain.Paper
	failed := 0

	for i, seed := range seeds {
		if i > 0 {
			if err := s.wait(ctx); err != nil {
				return nil, failed, err
			}
		}

		result, err := fetch(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, failed, ctx.Err()
			}
			failed++
			if errors.Is(err, domain.ErrRateLimited) {
				s.metrics.RecordProviderRateLimited("semantic_scholar")
				s.logger.Warn().Err(err).Str("seed", seed).Msg("seed fetch rate limited")
			} else {
				s.logger.Warn().Err(err).Str("seed", seed).Msg("seed fetch failed")
			}
			continue
		}

		papers = append(papers, result...)
	}

	return papers, failed, nil
}

// wait sleeps for the configured delay, honoring context cancellation.
func (s *Scheduler) wait(ctx context.Context) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
