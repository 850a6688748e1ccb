package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher rewrites the cache record on a cron schedule so inbound
// webhooks rarely pay for a cold users.list fetch. An empty schedule
// disables it. Races with inline refreshes are last-writer-wins.
type Refresher struct {
	service  *Service
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewRefresher creates a refresher for the given cron expression
// (standard five-field syntax or descriptors like @daily).
func NewRefresher(log *slog.Logger, service *Service, schedule string) *Refresher {
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   log.With(slog.String("component", "directory_refresher")),
	}
}

// Start registers the job and starts the scheduler. No-op when no
// schedule is configured; an unparsable expression is a startup error.
func (r *Refresher) Start() error {
	if r.schedule == "" {
		return nil
	}
	_, err := r.cron.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := r.service.Refresh(ctx); err != nil {
			r.logger.Warn("scheduled refresh failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.logger.Info("scheduled directory refresh", slog.String("schedule", r.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Refresher) Stop(ctx context.Context) error {
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
