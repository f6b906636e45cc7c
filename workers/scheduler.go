// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs the background jobs of the serve command.
type Scheduler struct {
	sched gocron.Scheduler
}

// ScheduleOptions selects which jobs run. A zero RetryInterval or empty
// DigestCron disables that job.
type ScheduleOptions struct {
	Retry         *NotificationRetryWorker
	RetryInterval time.Duration
	Digest        *DigestWorker
	DigestCron    string
}

// NewScheduler registers the jobs but does not start them.
func NewScheduler(ctx context.Context, opts ScheduleOptions) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	if opts.Retry != nil && opts.RetryInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(opts.RetryInterval),
			gocron.NewTask(func() {
				if _, err := opts.Retry.RunOnce(ctx); err != nil {
					zap.L().Error("❌ [Scheduler] notification retry failed", zap.Error(err))
				}
			}),
			gocron.WithName("notification-retry"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule notification retry: %w", err)
		}
	}

	if opts.Digest != nil && opts.DigestCron != "" {
		_, err = sched.NewJob(
			gocron.CronJob(opts.DigestCron, false),
			gocron.NewTask(func() {
				if err := opts.Digest.RunOnce(ctx); err != nil {
					zap.L().Error("❌ [Scheduler] digest failed", zap.Error(err))
				}
			}),
			gocron.WithName("internal-digest"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule digest %q: %w", opts.DigestCron, err)
		}
	}

	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	zap.L().Info("⏱️ [Scheduler] started", zap.Int("jobs", len(s.sched.Jobs())))
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
