// Package team manages the agent roster, live status and break accounting.
package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadops_backend/internal/timetracking"
	"leadops_backend/platform/apperr"
)

// Store is the agent persistence the service needs.
type Store interface {
	List(ctx context.Context) ([]Agent, error)
	GetByEmail(ctx context.Context, email string) (Agent, error)
	SetStatus(ctx context.Context, email, status string) error
	Upsert(ctx context.Context, name, email, status string) (Agent, error)
	ListBreaks(ctx context.Context, email, date string) ([]BreakLogEntry, error)
	ResetBreakMinutes(ctx context.Context) (int64, error)
}

// Service exposes roster and status operations. Every status write goes
// through the time-tracking machine.
type Service struct {
	store   Store
	machine *timetracking.Machine
	loc     *time.Location
	now     func() time.Time
}

// NewService wires the store and machine.
func NewService(store Store, machine *timetracking.Machine, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, machine: machine, loc: loc, now: time.Now}
}

// StatusView is the live status of one agent.
type StatusView struct {
	Status       string     `json:"status"`
	BreakMinutes int        `json:"breakMinutes"`
	OnBreakSince *time.Time `json:"onBreakSince,omitempty"`
}

// TeamRow mirrors the team status table header.
type TeamRow struct {
	Name   string `json:"Name"`
	Email  string `json:"Email"`
	Status string `json:"Status"`
}

// Roster returns all agents in rotation order.
func (s *Service) Roster(ctx context.Context) ([]Agent, error) {
	return s.store.List(ctx)
}

// TeamStatus lists name, email and status for every agent.
func (s *Service) TeamStatus(ctx context.Context) ([]TeamRow, error) {
	agents, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]TeamRow, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, TeamRow{Name: a.Name, Email: a.Email, Status: a.Status})
	}
	return rows, nil
}

// Status returns one agent's live status and accumulated break minutes.
func (s *Service) Status(ctx context.Context, email string) (StatusView, error) {
	a, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrAgentNotFound) {
		return StatusView{}, apperr.NotFound("User not found in Live Status")
	}
	if err != nil {
		return StatusView{}, err
	}
	view := StatusView{Status: a.Status, BreakMinutes: a.BreakMinutesToday}
	if since, ok, err := s.machine.OpenSince(ctx, a.Email); err == nil && ok {
		view.OnBreakSince = &since
	}
	return view, nil
}

// UpdateStatus is the agent-facing toggle: "break" selects Break, anything
// else selects Active.
func (s *Service) UpdateStatus(ctx context.Context, email, raw string) error {
	status := timetracking.StatusActive
	if strings.EqualFold(strings.TrimSpace(raw), "break") {
		status = timetracking.StatusBreak
	}
	return s.setStatus(ctx, email, status, "User not found in Live Status")
}

// UpdateTeamStatus stores the status verbatim. Values other than Active or
// Break take the agent out of rotation without touching break accounting.
func (s *Service) UpdateTeamStatus(ctx context.Context, email, status string) error {
	if strings.TrimSpace(status) == "" {
		return apperr.Validation("Missing status")
	}
	return s.setStatus(ctx, email, strings.TrimSpace(status), "Email not found in Team Status")
}

func (s *Service) setStatus(ctx context.Context, email, status, notFound string) error {
	a, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrAgentNotFound) {
		return apperr.NotFound(notFound)
	}
	if err != nil {
		return err
	}
	if err := s.store.SetStatus(ctx, a.Email, status); err != nil {
		return err
	}
	if _, err := s.machine.Apply(ctx, timetracking.AgentStatus{Name: a.Name, Email: a.Email, Status: status}, timetracking.TriggerEdit); err != nil {
		// The break could not be opened or closed; keep the previous status so
		// the stored status and the open break stay in step.
		if rerr := s.store.SetStatus(ctx, a.Email, a.Status); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore status %q: %w", a.Status, rerr))
		}
		return err
	}
	return nil
}

// SweepBreaks runs the poll trigger over the whole roster.
func (s *Service) SweepBreaks(ctx context.Context) (int, error) {
	agents, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	statuses := make([]timetracking.AgentStatus, 0, len(agents))
	for _, a := range agents {
		statuses = append(statuses, timetracking.AgentStatus{Name: a.Name, Email: a.Email, Status: a.Status})
	}
	return s.machine.Sweep(ctx, statuses)
}

// ResetDailyBreaks zeroes daily totals. Scheduled at local midnight.
func (s *Service) ResetDailyBreaks(ctx context.Context) (int64, error) {
	return s.store.ResetBreakMinutes(ctx)
}

// Breaks lists an agent's intervals for today in the configured zone.
func (s *Service) Breaks(ctx context.Context, email string) ([]BreakLogEntry, error) {
	return s.store.ListBreaks(ctx, email, s.now().In(s.loc).Format("2006-01-02"))
}

// AddAgent appends an agent to the roster.
func (s *Service) AddAgent(ctx context.Context, name, email, status string) (Agent, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return Agent{}, apperr.Validation("name and email are required")
	}
	if status == "" {
		status = timetracking.StatusActive
	}
	return s.store.Upsert(ctx, name, email, status)
}
