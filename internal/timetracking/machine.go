// Package timetracking implements the agent break state machine. A switch to
// Break opens an interval by storing its start in an expiring keyed store; a
// switch to Active closes it, logs the interval and adds its minutes to the
// agent's daily total. Status edits and the periodic sweep both drive the
// same Machine, so whichever runs first does the accounting.
package timetracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"leadops_backend/internal/events"
	"leadops_backend/platform/logger"
)

// Agent statuses understood by the machine. Any other value is ignored.
const (
	StatusActive = "Active"
	StatusBreak  = "Break"
)

// Triggers recorded on BreakClosed events.
const (
	TriggerEdit  = "edit"
	TriggerSweep = "sweep"
)

// DefaultStartTTL bounds how long an open break survives without a close.
const DefaultStartTTL = 6 * time.Hour

// AgentStatus is the slice of an agent the machine needs.
type AgentStatus struct {
	Name   string
	Email  string
	Status string
}

// Interval is one closed break.
type Interval struct {
	AgentName       string
	AgentEmail      string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Date            string // yyyy-MM-dd in the configured zone
}

// StartStore keeps open break starts per agent with expiry.
type StartStore interface {
	// PutIfAbsent stores start unless one is already stored. It reports
	// whether the value was written.
	PutIfAbsent(ctx context.Context, email string, start time.Time, ttl time.Duration) (bool, error)
	// Take removes and returns the stored start atomically.
	Take(ctx context.Context, email string) (time.Time, bool, error)
	// Peek returns the stored start without removing it.
	Peek(ctx context.Context, email string) (time.Time, bool, error)
}

// Recorder persists a closed interval together with the daily total it adds
// to. Either both writes land or neither does.
type Recorder interface {
	RecordBreak(ctx context.Context, iv Interval) error
}

// Machine applies status transitions.
type Machine struct {
	store    StartStore
	recorder Recorder
	ttl      time.Duration
	loc      *time.Location
	now      func() time.Time
	eventBus events.Bus
	log      *logger.Logger
}

// Options configures a Machine.
type Options struct {
	Store    StartStore
	Recorder Recorder
	TTL      time.Duration
	Location *time.Location
	Now      func() time.Time
	EventBus events.Bus
	Log      *logger.Logger
}

// NewMachine builds a Machine with defaults for TTL, zone and clock.
func NewMachine(opts Options) *Machine {
	if opts.TTL <= 0 {
		opts.TTL = DefaultStartTTL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		store:    opts.Store,
		recorder: opts.Recorder,
		ttl:      opts.TTL,
		loc:      opts.Location,
		now:      opts.Now,
		eventBus: opts.EventBus,
		log:      opts.Log,
	}
}

// Apply runs the transition implied by agent.Status. It returns the closed
// interval, or nil when nothing was accounted.
func (m *Machine) Apply(ctx context.Context, agent AgentStatus, trigger string) (*Interval, error) {
	now := m.now()
	switch strings.ToLower(strings.TrimSpace(agent.Status)) {
	case "break":
		if _, err := m.store.PutIfAbsent(ctx, agent.Email, now, m.ttl); err != nil {
			return nil, fmt.Errorf("open break for %s: %w", agent.Email, err)
		}
		return nil, nil
	case "active":
		return m.close(ctx, agent, now, trigger)
	default:
		return nil, nil
	}
}

func (m *Machine) close(ctx context.Context, agent AgentStatus, now time.Time, trigger string) (*Interval, error) {
	start, ok, err := m.store.Take(ctx, agent.Email)
	if err != nil {
		return nil, fmt.Errorf("take break start for %s: %w", agent.Email, err)
	}
	if !ok {
		return nil, nil
	}

	iv := Interval{
		AgentName:       agent.Name,
		AgentEmail:      agent.Email,
		Start:           start,
		End:             now,
		DurationMinutes: RoundMinutes(now.Sub(start)),
		Date:            now.In(m.loc).Format("2006-01-02"),
	}
	if err := m.recorder.RecordBreak(ctx, iv); err != nil {
		// Put the start back so a later edit or sweep accounts the break.
		if _, rerr := m.store.PutIfAbsent(ctx, agent.Email, start, m.ttl); rerr != nil {
			m.log.WithContext(ctx).Error("break start lost after failed record",
				slog.String("email", agent.Email),
				slog.Time("start", start),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, &RecordError{Op: "record break", Err: err}
	}

	if m.eventBus != nil {
		m.eventBus.Publish(ctx, events.BreakClosed{
			BaseEvent:       events.BaseEvent{Timestamp: now},
			AgentName:       iv.AgentName,
			AgentEmail:      iv.AgentEmail,
			Start:           iv.Start,
			End:             iv.End,
			DurationMinutes: iv.DurationMinutes,
			Trigger:         trigger,
		})
	}
	return &iv, nil
}

// Sweep applies every agent's current status. Break store failures are
// logged per agent; recorder failures abort the pass.
func (m *Machine) Sweep(ctx context.Context, agents []AgentStatus) (int, error) {
	closed := 0
	for _, a := range agents {
		iv, err := m.Apply(ctx, a, TriggerSweep)
		if err != nil {
			var recErr *RecordError
			if errors.As(err, &recErr) {
				return closed, err
			}
			m.log.WithContext(ctx).Warn("break sweep skipped agent",
				slog.String("email", a.Email),
				slog.String("error", err.Error()),
			)
			continue
		}
		if iv != nil {
			closed++
		}
	}
	return closed, nil
}

// OpenSince reports the start of an agent's open break, if any.
func (m *Machine) OpenSince(ctx context.Context, email string) (time.Time, bool, error) {
	return m.store.Peek(ctx, email)
}

// RoundMinutes converts d to whole minutes, halves rounding up. Negative
// durations from clock skew count as zero.
func RoundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Minutes() + 0.5))
}

// RecordError reports a failed write of break accounting to the store.
type RecordError struct {
	Op  string
	Err error
}

func (e *RecordError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *RecordError) Unwrap() error { return e.Err }
