package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/layer-3/warden/internal/metrics"
	"github.com/layer-3/warden/ports"
)

// Sweeper periodically drops expired challenges and tokens.
// Stores already refuse expired entries; sweeping only bounds their size.
type Sweeper struct {
	challenges ports.ChallengeStore
	tokens     ports.TokenStore
	interval   time.Duration
	logger     *slog.Logger

	metrics metrics.AuthMetrics
	now     func() time.Time
}

// NewSweeper creates a sweeper running every interval
func NewSweeper(
	challenges ports.ChallengeStore,
	tokens ports.TokenStore,
	interval time.Duration,
	logger *slog.Logger,
	opts ...Option,
) *Sweeper {
	o := applyOptions(opts)
	return &Sweeper{
		challenges: challenges,
		tokens:     tokens,
		interval:   interval,
		logger:     logger,
		metrics:    o.metrics,
		now:        o.now,
	}
}

// Sweep runs a single pass over both stores
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	challenges, errC := s.challenges.Sweep(ctx, now)
	s.metrics.RecordSweep(ctx, "challenges", challenges)

	tokens, errT := s.tokens.Sweep(ctx, now)
	s.metrics.RecordSweep(ctx, "tokens", tokens)

	if challenges > 0 || tokens > 0 {
		s.logger.Debug("swept expired entries",
			slog.Int("challenges", challenges),
			slog.Int("tokens", tokens),
		)
	}

	return errors.Join(errC, errT)
}

// Run sweeps every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", slog.Any("error", err))
			}
		}
	}
}
