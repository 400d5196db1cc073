package service

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// JobRunner drives the three periodic jobs on a shared cron schedule. Every
// job is re-entrant and multi-replica safe, so overlapping runs need no
// coordination beyond the conditional writes the jobs already perform.
type JobRunner struct {
	Scheduler *SchedulerService
	Reminder  *ReminderService
	Digest    *DigestService
	Logger    *slog.Logger

	// Spec is the cron expression for all three jobs. Defaults to every
	// minute, matching the one-minute due-check tolerance.
	Spec string

	cron *cron.Cron
}

const defaultJobSpec = "* * * * *"

// Start registers and starts the cron entries. Non-blocking.
func (r *JobRunner) Start() error {
	spec := r.Spec
	if spec == "" {
		spec = defaultJobSpec
	}

	r.cron = cron.New()

	jobs := []struct {
		name string
		tick func(context.Context)
	}{
		{"scheduler", r.Scheduler.Tick},
		{"reminder", r.Reminder.Tick},
		{"digest", r.Digest.Tick},
	}

	for _, job := range jobs {
		tick := job.tick
		name := job.name
		if _, err := r.cron.AddFunc(spec, func() {
			// Job ticks run to completion; no cancellation propagation.
			tick(context.Background())
		}); err != nil {
			return err
		}
		r.Logger.Info("job registered", slog.String("job", name), slog.String("spec", spec))
	}

	r.cron.Start()
	r.Logger.Info("job runner started")
	return nil
}

// Stop stops scheduling new runs and blocks until in-flight runs finish.
func (r *JobRunner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.Logger.Info("job runner stopped")
}
