package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper runs ReservationService.Sweep on a fixed interval.
type Sweeper struct {
	svc   *ReservationService
	clock Clock
	log   *zap.Logger
}

func NewSweeper(svc *ReservationService, clock Clock, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{svc: svc, clock: clock, log: log}
}

// Start sweeps once immediately and then every interval until ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", zap.Duration("interval", interval))
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep at the clock's current time.
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	res, err := s.svc.Sweep(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
	}
	return res
}
