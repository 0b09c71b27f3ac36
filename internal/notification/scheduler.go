package notification

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/featreq/feature-requestor/pkg/metrics"
)

// Dispatcher delivers one digest email for a recipient. The whole batch is
// atomic: the error covers all events or none.
type Dispatcher interface {
	SendDigest(ctx context.Context, recipientID int64, events []Event) error
}

// Scheduler drains expired digests on a fixed cadence. Ticks never overlap:
// if a tick is still running when the next fires, the new one is skipped.
type Scheduler struct {
	queue      *Queue
	dispatcher Dispatcher
	interval   time.Duration
	maxRetries int
	logger     *zap.Logger
	ticking    atomic.Bool
}

// NewScheduler creates a scheduler over the given queue
func NewScheduler(queue *Queue, dispatcher Dispatcher, interval time.Duration, maxRetries int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:      queue,
		dispatcher: dispatcher,
		interval:   interval,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Run ticks until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("notification scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("max_retries", s.maxRetries),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("notification scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick dispatches every expired digest once. Safe to call manually; overlapping
// calls are dropped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.ticking.CompareAndSwap(false, true) {
		return
	}
	defer s.ticking.Store(false)

	for _, c := range s.queue.claimExpired() {
		if err := s.dispatcher.SendDigest(ctx, c.recipientID, c.events); err != nil {
			metrics.EmailSent.WithLabelValues("digest", "failed").Inc()
			dropped := s.queue.requeue(c.recipientID, len(c.events), s.maxRetries)
			if dropped {
				metrics.DigestsDropped.Inc()
				s.logger.Error("digest dropped after exhausting retries",
					zap.Int64("recipient_id", c.recipientID),
					zap.Int("events", len(c.events)),
					zap.Int("attempts", c.attempt+1),
					zap.Error(err),
				)
			} else {
				s.logger.Warn("digest send failed, will retry",
					zap.Int64("recipient_id", c.recipientID),
					zap.Int("attempt", c.attempt+1),
					zap.Error(err),
				)
			}
			continue
		}

		metrics.EmailSent.WithLabelValues("digest", "sent").Inc()
		metrics.DigestSize.Observe(float64(len(c.events)))
		s.queue.complete(c.recipientID, len(c.events))
	}
}
