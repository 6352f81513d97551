package cron

import (
	"context"

	"github.com/dojoflow/dojoflow/internal/config"
	ierr "github.com/dojoflow/dojoflow/internal/errors"
	"github.com/dojoflow/dojoflow/internal/logger"
	"github.com/dojoflow/dojoflow/internal/service"
	"github.com/dojoflow/dojoflow/internal/types"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring background jobs in process. Every run gets a
// fresh context stamped with a system actor so downstream writes are audited.
type Scheduler struct {
	cron           *cron.Cron
	config         *config.Configuration
	dunningService service.DunningService
	log            *logger.Logger
}

func NewScheduler(
	cfg *config.Configuration,
	dunningService service.DunningService,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		config:         cfg,
		dunningService: dunningService,
		log:            log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	schedule := s.config.Dunning.CronSchedule
	if schedule == "" {
		s.log.Info("Dunning cron schedule not set, scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, s.runDunning)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Invalid dunning cron schedule").
			WithReportableDetails(map[string]any{
				"schedule": schedule,
			}).
			Mark(ierr.ErrValidation)
	}

	s.cron.Start()
	s.log.Infow("Started cron scheduler", "dunning_schedule", schedule)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Stopped cron scheduler")
}

func (s *Scheduler) runDunning() {
	ctx := types.SetUserID(context.Background(), types.DefaultUserID)

	if err := s.dunningService.Run(ctx); err != nil {
		s.log.Errorw("Dunning scan failed", "error", err)
	}
}
