package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Entry is one cron-driven task.
type Entry struct {
	Spec     string
	TaskType string
}

// Entries reads the cron specs from config. An empty spec disables the
// task.
func Entries(cfg config.SchedulerConfig) []Entry {
	all := []Entry{
		{Spec: cfg.GetInboxPollCron(), TaskType: TaskInboxPoll},
		{Spec: cfg.GetAssignmentCron(), TaskType: TaskAssignLeads},
		{Spec: cfg.GetCallDelayCron(), TaskType: TaskMarkCallDelays},
		{Spec: cfg.GetBreakSweepCron(), TaskType: TaskSweepBreaks},
		{Spec: cfg.GetPerformanceCron(), TaskType: TaskRecomputeTracker},
		{Spec: cfg.GetBreakResetCron(), TaskType: TaskResetDailyBreaks},
	}
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.TrimSpace(e.Spec) != "" {
			out = append(out, e)
		}
	}
	return out
}

// Periodic enqueues sweep tasks on their cron schedules. Runs are not
// retried; the next tick is the retry.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: loc,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Error("periodic enqueue failed", slog.String("error", err.Error()))
			}
		},
	})

	queue := queueName(cfg)
	for _, e := range Entries(cfg) {
		task, err := NewSweepTask(e.TaskType, TriggerSchedule)
		if err != nil {
			return nil, err
		}
		if _, err := scheduler.Register(e.Spec, task, asynq.Queue(queue), asynq.MaxRetry(0)); err != nil {
			return nil, fmt.Errorf("register %s (%s): %w", e.TaskType, e.Spec, err)
		}
		log.Info("periodic task registered", slog.String("task", e.TaskType), slog.String("cron", e.Spec))
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
