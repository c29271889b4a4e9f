package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/team"
	"leadops_backend/platform/logger"
)

// LeadReader lists leads in storage order.
type LeadReader interface {
	List(ctx context.Context) ([]domain.Lead, error)
}

// DelayStore is the lead persistence the call delay sweep needs.
type DelayStore interface {
	ListAwaitingDelayCheck(ctx context.Context) ([]domain.Lead, error)
	SetCallDelayStatus(ctx context.Context, leadID, status string) (bool, error)
}

// AgentReader reads the roster for break totals.
type AgentReader interface {
	List(ctx context.Context) ([]team.Agent, error)
	GetByEmail(ctx context.Context, email string) (team.Agent, error)
}

// TrackerStore persists the performance tracker.
type TrackerStore interface {
	Names(ctx context.Context) ([]string, error)
	Write(ctx context.Context, rows []TrackerRow) error
}

// Service answers metric queries and runs the metric sweeps.
type Service struct {
	leads   LeadReader
	delays  DelayStore
	agents  AgentReader
	tracker TrackerStore
	loc     *time.Location
	now     func() time.Time
	log     *logger.Logger
}

// Options configures a Service.
type Options struct {
	Leads    LeadReader
	Delays   DelayStore
	Agents   AgentReader
	Tracker  TrackerStore
	Location *time.Location
	Log      *logger.Logger
}

func NewService(opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		leads:   opts.Leads,
		delays:  opts.Delays,
		agents:  opts.Agents,
		tracker: opts.Tracker,
		loc:     opts.Location,
		now:     time.Now,
		log:     opts.Log,
	}
}

// Performance returns the scorecard of the agent with email.
func (s *Service) Performance(ctx context.Context, email string) (Performance, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return Performance{}, err
	}
	breakMinutes := 0
	agent, err := s.agents.GetByEmail(ctx, email)
	switch {
	case err == nil:
		breakMinutes = agent.BreakMinutesToday
	case !errors.Is(err, team.ErrAgentNotFound):
		return Performance{}, err
	}
	return ForAgent(leads, email, breakMinutes), nil
}

// Leaderboard ranks every assignee.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return nil, err
	}
	return Leaderboard(leads), nil
}

// AdminStats builds the admin analytics for a filter.
func (s *Service) AdminStats(ctx context.Context, f AdminFilter) (AdminStats, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return AdminStats{}, err
	}
	return ComputeAdminStats(leads, f, s.now(), s.loc), nil
}

// Challenge tallies progress against a month's targets.
func (s *Service) Challenge(ctx context.Context, email string, siteVisitTarget, bookingTarget int) (ChallengeTally, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return ChallengeTally{}, err
	}
	return TallyChallenge(leads, email, siteVisitTarget, bookingTarget), nil
}

// CurrentMonth is the challenge key for the present month in the
// configured zone.
func (s *Service) CurrentMonth() string {
	return MonthKey(s.now().In(s.loc))
}

// MarkCallDelays classifies every eligible lead once. A failed write is
// logged and the sweep moves on; listing failures abort it.
func (s *Service) MarkCallDelays(ctx context.Context) (int, error) {
	leads, err := s.delays.ListAwaitingDelayCheck(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leads awaiting delay check: %w", err)
	}
	now := s.now()
	marked := 0
	for _, l := range leads {
		status, ok := ClassifyDelay(l, now)
		if !ok {
			continue
		}
		changed, err := s.delays.SetCallDelayStatus(ctx, l.LeadID, status)
		if err != nil {
			s.log.WithContext(ctx).Warn("call delay update failed",
				slog.String("leadId", l.LeadID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if changed {
			marked++
		}
	}
	return marked, nil
}

// RecomputeTracker rewrites the performance tracker for every tracked
// agent and every agent on the roster.
func (s *Service) RecomputeTracker(ctx context.Context) (int, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leads: %w", err)
	}
	agents, err := s.agents.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list agents: %w", err)
	}
	tracked, err := s.tracker.Names(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tracker rows: %w", err)
	}

	seen := map[string]bool{}
	var names []string
	for _, n := range tracked {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	breaks := make([]AgentBreak, 0, len(agents))
	for _, a := range agents {
		if !seen[a.Name] {
			seen[a.Name] = true
			names = append(names, a.Name)
		}
		breaks = append(breaks, AgentBreak{Name: a.Name, BreakMinutes: a.BreakMinutesToday})
	}

	rows := BuildTracker(names, leads, breaks)
	if err := s.tracker.Write(ctx, rows); err != nil {
		return 0, fmt.Errorf("write tracker: %w", err)
	}
	return len(rows), nil
}
