package deposit

import (
	"context"
	"log/slog"
	"time"
)

type expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Sweeper periodically expires intents whose payment never arrived. Expiry is
// a pure status flip; it never posts to the ledger.
type Sweeper struct {
	deposits expirer
	logger   *slog.Logger
	interval time.Duration
}

func NewSweeper(deposits expirer, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		deposits: deposits,
		logger:   logger,
		interval: interval,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("deposit sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("deposit sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.deposits.ExpireOverdue(ctx)
	if err != nil {
		s.logger.Error("failed to expire deposit intents", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("deposit intents expired", "count", n)
	}
}
