package service

import (
	"context"
	"log/slog"
	"time"
)

type unfinishedLister interface {
	ListUnfinished(ctx context.Context, limit int) ([]string, error)
}

type resyncer interface {
	Resync(ctx context.Context, orderID string) (*ResyncOutcome, error)
}

// Scheduler is the backstop channel: it periodically re-polls payments that
// never reached completed, bounding how long a lost webhook or socket hint
// can leave an order uncredited.
type Scheduler struct {
	payments  unfinishedLister
	resync    resyncer
	logger    *slog.Logger
	interval  time.Duration
	itemDelay time.Duration
	batchSize int
}

func NewScheduler(payments unfinishedLister, resync resyncer, logger *slog.Logger, interval, itemDelay time.Duration, batchSize int) *Scheduler {
	return &Scheduler{
		payments:  payments,
		resync:    resync,
		logger:    logger,
		interval:  interval,
		itemDelay: itemDelay,
		batchSize: batchSize,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("payment sweep started", "interval", s.interval, "batch_size", s.batchSize)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("payment sweep stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep resyncs one bounded batch of unfinished payments sequentially, with
// a small delay between items to avoid bursting the provider's API. One
// item failing never blocks the rest; the next tick retries it anyway.
func (s *Scheduler) Sweep(ctx context.Context) {
	orderIDs, err := s.payments.ListUnfinished(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list unfinished payments", "error", err)
		return
	}

	for i, orderID := range orderIDs {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.itemDelay):
			}
		}

		if _, err := s.resync.Resync(ctx, orderID); err != nil {
			s.logger.Warn("sweep resync failed", "order_id", orderID, "error", err)
		}
	}
}
