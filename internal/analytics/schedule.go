package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/store"
)

// aggregateWindow is how far back each scheduled run looks for edit activity.
const aggregateWindow = 7 * 24 * time.Hour

// Publisher receives a notification for each aggregate written by a scheduled
// run. A nil publisher disables notifications.
type Publisher interface {
	PublishAggregateWritten(ctx context.Context, subspecialty, period string) error
}

// Scheduler runs the aggregator on a cron schedule over every subspecialty
// with recent edit activity.
type Scheduler struct {
	aggregator *Aggregator
	source     EditSource
	publisher  Publisher
	schedule   cron.Schedule
	logger     *slog.Logger
}

// NewScheduler parses a standard 5-field cron expression. Returns an error if
// the expression is invalid.
func NewScheduler(agg *Aggregator, source EditSource, publisher Publisher, cronExpr string, logger *slog.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		aggregator: agg,
		source:     source,
		publisher:  publisher,
		schedule:   schedule,
		logger:     logger,
	}, nil
}

// Start launches the schedule loop in a goroutine. It stops when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			next := s.schedule.Next(time.Now())
			s.logger.Info("next scheduled aggregation", "at", next.Format(time.RFC3339))

			select {
			case <-ctx.Done():
				s.logger.Info("aggregation scheduler stopped")
				return
			case <-time.After(time.Until(next)):
			}

			s.RunAll(ctx)
		}
	}()
}

// RunAll aggregates every subspecialty with edits inside the window ending
// now. A failure in one subspecialty is logged and does not stop the others.
func (s *Scheduler) RunAll(ctx context.Context) {
	end := time.Now()
	start := end.Add(-aggregateWindow)

	subspecialties, err := s.source.SubspecialtiesWithEditsSince(ctx, start)
	if err != nil {
		s.logger.Error("scheduled aggregation: list subspecialties failed", "error", err)
		return
	}
	if len(subspecialties) == 0 {
		s.logger.Info("scheduled aggregation: no recent edit activity")
		return
	}

	for _, sub := range subspecialties {
		agg, err := s.aggregator.Aggregate(ctx, sub, start, end, 0)
		if err != nil {
			s.logger.Error("scheduled aggregation failed", "subspecialty", sub, "error", err)
			continue
		}
		if agg == nil {
			continue
		}
		s.notify(ctx, agg)
	}
}

func (s *Scheduler) notify(ctx context.Context, agg *store.AnalyticsAggregate) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAggregateWritten(ctx, agg.Subspecialty, agg.Period); err != nil {
		s.logger.Warn("aggregate notification failed", "subspecialty", agg.Subspecialty, "error", err)
	}
}
