package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"leadops_backend/internal/maintenance"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// JobRunner executes a sweep.
type JobRunner interface {
	Run(ctx context.Context, job maintenance.Job) (maintenance.Report, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner JobRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner JobRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    newServeMux(runner, log),
		runner: runner,
		log:    log,
	}
	return w, nil
}

func newServeMux(runner JobRunner, log *logger.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	for taskType := range taskJobs {
		mux.HandleFunc(taskType, sweepHandler(runner, log))
	}
	return mux
}

// sweepHandler runs the job mapped to the task type.
func sweepHandler(runner JobRunner, log *logger.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		job, ok := taskJobs[task.Type()]
		if !ok {
			return fmt.Errorf("unknown task type %q", task.Type())
		}
		payload, err := ParseSweepPayload(task)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", task.Type(), asynq.SkipRetry, err)
		}
		log.WithContext(ctx).Debug("task received", slog.String("task", task.Type()), slog.String("trigger", payload.Trigger))
		_, err = runner.Run(ctx, job)
		return err
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
