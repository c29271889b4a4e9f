// Package maintenance runs the periodic sweeps. The scheduler worker and the
// admin ops routes both go through Runner so a job behaves the same however
// it is triggered.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leadops_backend/internal/assignment"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

// Job names a sweep.
type Job string

const (
	JobInboxPoll   Job = "inbox-poll"
	JobAssign      Job = "assign"
	JobCallDelays  Job = "call-delays"
	JobBreakSweep  Job = "break-sweep"
	JobPerformance Job = "performance"
	JobBreakReset  Job = "break-reset"
)

// Jobs lists every job in a stable order.
var Jobs = []Job{JobInboxPoll, JobAssign, JobCallDelays, JobBreakSweep, JobPerformance, JobBreakReset}

// MailboxSession is one open inbound mailbox.
type MailboxSession interface {
	ingest.Mailbox
	Close() error
}

// MailboxOpener connects to the inbound mailbox.
type MailboxOpener func(ctx context.Context) (MailboxSession, error)

type MailboxIngester interface {
	ProcessMailbox(ctx context.Context, mb ingest.Mailbox) (ingest.Result, error)
}

type Assigner interface {
	Run(ctx context.Context) (assignment.Result, error)
}

type DelayMarker interface {
	MarkCallDelays(ctx context.Context) (int, error)
}

type TrackerBuilder interface {
	RecomputeTracker(ctx context.Context) (int, error)
}

type BreakKeeper interface {
	SweepBreaks(ctx context.Context) (int, error)
	ResetDailyBreaks(ctx context.Context) (int64, error)
}

// Report is the outcome of one job run.
type Report struct {
	Job       Job   `json:"job"`
	Processed int   `json:"processed"`
	Details   any   `json:"details,omitempty"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// JobObserver records run outcomes, typically as metrics.
type JobObserver interface {
	ObserveJob(job string, elapsed time.Duration, err error)
}

// Options wires a Runner. OpenMailbox may be nil when the inbox is not
// configured.
type Options struct {
	OpenMailbox MailboxOpener
	Ingester    MailboxIngester
	Assigner    Assigner
	Delays      DelayMarker
	Tracker     TrackerBuilder
	Breaks      BreakKeeper
	Observer    JobObserver
	Log         *logger.Logger
}

type Runner struct {
	opts Options
	now  func() time.Time
}

func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts, now: time.Now}
}

// ParseJob validates a job name.
func ParseJob(name string) (Job, error) {
	for _, j := range Jobs {
		if string(j) == name {
			return j, nil
		}
	}
	return "", apperr.NotFound(fmt.Sprintf("unknown job %q", name))
}

// Run executes one job and logs its outcome.
func (r *Runner) Run(ctx context.Context, job Job) (Report, error) {
	ctx = context.WithValue(ctx, logger.JobKey, string(job))
	log := r.opts.Log.WithContext(ctx)
	start := r.now()

	processed, details, err := r.dispatch(ctx, job)
	elapsed := r.now().Sub(start)
	if r.opts.Observer != nil {
		r.opts.Observer.ObserveJob(string(job), elapsed, err)
	}
	if err != nil {
		log.Error("job failed", slog.String("error", err.Error()), slog.Int64("elapsed_ms", elapsed.Milliseconds()))
		return Report{}, err
	}

	log.JobCompleted(string(job), processed, elapsed)
	return Report{Job: job, Processed: processed, Details: details, ElapsedMs: elapsed.Milliseconds()}, nil
}

func (r *Runner) dispatch(ctx context.Context, job Job) (int, any, error) {
	switch job {
	case JobInboxPoll:
		return r.pollInbox(ctx)
	case JobAssign:
		res, err := r.opts.Assigner.Run(ctx)
		return res.Assigned, res, err
	case JobCallDelays:
		n, err := r.opts.Delays.MarkCallDelays(ctx)
		return n, nil, err
	case JobBreakSweep:
		n, err := r.opts.Breaks.SweepBreaks(ctx)
		return n, nil, err
	case JobPerformance:
		n, err := r.opts.Tracker.RecomputeTracker(ctx)
		return n, nil, err
	case JobBreakReset:
		n, err := r.opts.Breaks.ResetDailyBreaks(ctx)
		return int(n), nil, err
	default:
		return 0, nil, apperr.NotFound(fmt.Sprintf("unknown job %q", job))
	}
}

func (r *Runner) pollInbox(ctx context.Context) (int, any, error) {
	if r.opts.OpenMailbox == nil {
		return 0, nil, apperr.BadRequest("inbox is not configured")
	}
	session, err := r.opts.OpenMailbox(ctx)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			r.opts.Log.WithContext(ctx).Warn("mailbox close failed", slog.String("error", cerr.Error()))
		}
	}()

	res, err := r.opts.Ingester.ProcessMailbox(ctx, session)
	return res.Inserted, res, err
}
