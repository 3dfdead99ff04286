package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically prunes completed jobs older than the retention window.
type Sweeper struct {
	q         *Queue
	retention time.Duration
	interval  time.Duration
	log       zerolog.Logger
}

func NewSweeper(q *Queue, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		q:         q,
		retention: retention,
		interval:  interval,
		log:       q.log.With().Str("worker", "sweeper").Logger(),
	}
}

// Run blocks until ctx is cancelled. A non-positive retention disables pruning.
func (s *Sweeper) Run(ctx context.Context) {
	if s.retention <= 0 || s.interval <= 0 {
		s.log.Info().Msg("completed job pruning disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context) int {
	n, err := s.q.PruneCompleted(ctx, s.retention)
	if err != nil {
		s.log.Warn().Err(err).Msg("prune completed jobs failed")
		return 0
	}
	if n > 0 {
		s.log.Info().Int("pruned", n).Dur("retention", s.retention).Msg("pruned completed jobs")
	}
	return n
}
