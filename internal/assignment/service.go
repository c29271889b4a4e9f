package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leadops_backend/internal/events"
	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/team"
	"leadops_backend/platform/logger"
)

// LeadStore is the lead persistence an assignment pass needs.
type LeadStore interface {
	ListUnassigned(ctx context.Context) ([]domain.Lead, error)
	Assign(ctx context.Context, leadID, agentName, agentEmail string, at time.Time) error
}

// Roster lists agents in rotation order.
type Roster interface {
	List(ctx context.Context) ([]team.Agent, error)
}

// CursorStore persists the rotation cursor.
type CursorStore interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, cursor int64) error
}

// Result summarises one pass.
type Result struct {
	Unassigned int   `json:"unassigned"`
	Assigned   int   `json:"assigned"`
	Notified   int   `json:"notified"`
	Cursor     int64 `json:"cursor"`
}

type Service struct {
	leads    LeadStore
	roster   Roster
	cursor   CursorStore
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func NewService(leads LeadStore, roster Roster, cursor CursorStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{leads: leads, roster: roster, cursor: cursor, eventBus: eventBus, log: log, now: time.Now}
}

// Run assigns every unassigned lead. The cursor is read once and persisted
// after each written lead so a failed pass resumes where it stopped.
// Notification failures are logged and never roll the assignment back.
func (s *Service) Run(ctx context.Context) (Result, error) {
	leads, err := s.leads.ListUnassigned(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list unassigned leads: %w", err)
	}
	res := Result{Unassigned: len(leads)}
	if len(leads) == 0 {
		return res, nil
	}

	agents, err := s.roster.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list agents: %w", err)
	}
	cursor, err := s.cursor.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load cursor: %w", err)
	}
	res.Cursor = cursor

	picks, _ := Assign(leads, agents, cursor)
	if len(picks) == 0 {
		s.log.WithContext(ctx).Info("no active agents, leads left unassigned", slog.Int("leads", len(leads)))
		return res, nil
	}

	for _, p := range picks {
		at := s.now()
		if err := s.leads.Assign(ctx, p.Lead.LeadID, p.Agent.Name, p.Agent.Email, at); err != nil {
			return res, fmt.Errorf("assign lead %s: %w", p.Lead.LeadID, err)
		}
		res.Assigned++
		if err := s.cursor.Save(ctx, p.Cursor); err != nil {
			return res, fmt.Errorf("persist cursor: %w", err)
		}
		res.Cursor = p.Cursor

		if s.notify(ctx, p, at) {
			res.Notified++
		}
	}
	return res, nil
}

func (s *Service) notify(ctx context.Context, p Pick, at time.Time) bool {
	if s.eventBus == nil {
		return false
	}
	err := s.eventBus.PublishSync(ctx, events.LeadAssigned{
		BaseEvent:     events.BaseEvent{Timestamp: at},
		LeadID:        p.Lead.LeadID,
		Project:       p.Lead.Project,
		Source:        string(p.Lead.Source),
		Name:          p.Lead.Name,
		Email:         p.Lead.Email,
		Phone:         p.Lead.Phone,
		City:          p.Lead.City,
		AssignedTo:    p.Agent.Name,
		AssignedEmail: p.Agent.Email,
		AssignedAt:    at,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn("assignment notification failed",
			slog.String("leadId", p.Lead.LeadID),
			slog.String("agent", p.Agent.Email),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
