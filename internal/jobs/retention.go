package jobs

import (
	"context"
	"time"

	"truthgate-api/internal/domain/conversation"
	"truthgate-api/internal/metrics"
	"truthgate-api/pkg/logger"

	"go.uber.org/zap"
)

// Purger deletes 24h-retention conversations created before cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically removes conversations whose owner asked for
// 24 hour retention, together with their messages.
type RetentionSweeper struct {
	purger   Purger
	interval time.Duration
	clock    func() time.Time
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewRetentionSweeper(purger Purger, interval time.Duration, m *metrics.Metrics, log *logger.Logger) *RetentionSweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RetentionSweeper{
		purger:   purger,
		interval: interval,
		clock:    func() time.Time { return time.Now().UTC() },
		metrics:  m,
		log:      log.With(zap.String("component", "retention")),
	}
}

func (s *RetentionSweeper) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *RetentionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *RetentionSweeper) Sweep(ctx context.Context) int64 {
	cutoff := s.clock().Add(-conversation.RetentionWindow)
	purged, err := s.purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Logger.Error("retention sweep failed", zap.Error(err))
		}
		return 0
	}
	if purged > 0 {
		s.log.Logger.Info("expired conversations purged",
			zap.Int64("count", purged), zap.Time("cutoff", cutoff))
	}
	s.metrics.ObservePurged(purged)
	return purged
}
