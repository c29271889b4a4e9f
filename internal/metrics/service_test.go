package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/team"
	"leadops_backend/platform/logger"
)

type fakeLeads struct {
	leads   []domain.Lead
	failFor string
	writes  map[string]string
}

func (f *fakeLeads) List(context.Context) ([]domain.Lead, error) { return f.leads, nil }

func (f *fakeLeads) ListAwaitingDelayCheck(context.Context) ([]domain.Lead, error) {
	var out []domain.Lead
	for _, l := range f.leads {
		if l.AssignedTo != "" && l.AssignedTime != nil && !domain.IsClassified(l.CallDelayStatus) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeads) SetCallDelayStatus(_ context.Context, id, status string) (bool, error) {
	if id == f.failFor {
		return false, errors.New("write failed")
	}
	if f.writes == nil {
		f.writes = map[string]string{}
	}
	f.writes[id] = status
	return true, nil
}

type fakeAgents []team.Agent

func (a fakeAgents) List(context.Context) ([]team.Agent, error) { return a, nil }

func (a fakeAgents) GetByEmail(_ context.Context, email string) (team.Agent, error) {
	for _, ag := range a {
		if ag.Email == email {
			return ag, nil
		}
	}
	return team.Agent{}, team.ErrAgentNotFound
}

type fakeTracker struct {
	names []string
	rows  []TrackerRow
}

func (f *fakeTracker) Names(context.Context) ([]string, error) { return f.names, nil }

func (f *fakeTracker) Write(_ context.Context, rows []TrackerRow) error {
	f.rows = rows
	return nil
}

func newTestService(leads *fakeLeads, agents fakeAgents, tracker *fakeTracker, now time.Time) *Service {
	svc := NewService(Options{
		Leads:   leads,
		Delays:  leads,
		Agents:  agents,
		Tracker: tracker,
		Log:     logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil)),
	})
	svc.now = func() time.Time { return now }
	return svc
}

func TestMarkCallDelaysContinuesPastWriteFailures(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	leads := &fakeLeads{
		failFor: "L1",
		leads: []domain.Lead{
			{LeadID: "L1", AssignedTo: "A", AssignedTime: at(now.Add(-time.Hour))},
			{LeadID: "L2", AssignedTo: "A", AssignedTime: at(now.Add(-time.Hour))},
			{LeadID: "L3", AssignedTo: "A", AssignedTime: at(now.Add(-time.Minute)), Called: "incorrect"},
			{LeadID: "L4", AssignedTo: "A", AssignedTime: at(now.Add(-time.Minute))},
		},
	}
	marked, err := newTestService(leads, nil, &fakeTracker{}, now).MarkCallDelays(context.Background())
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if marked != 2 || leads.writes["L2"] != domain.DelayDelayed || leads.writes["L3"] != domain.DelayOnTime {
		t.Fatalf("unexpected result marked=%d writes=%v", marked, leads.writes)
	}
	if _, ok := leads.writes["L4"]; ok {
		t.Fatal("fresh lead must not be classified")
	}
}

func TestPerformanceForUnknownAgentHasNoBreak(t *testing.T) {
	leads := &fakeLeads{leads: []domain.Lead{{AssignedEmail: "x@y.com", Booked: "Yes"}}}
	p, err := newTestService(leads, fakeAgents{}, &fakeTracker{}, time.Now()).Performance(context.Background(), "x@y.com")
	if err != nil || p.Bookings != 1 || p.BreakMinutes != 0 || p.Score != 2 {
		t.Fatalf("unexpected performance %+v err=%v", p, err)
	}
}

func TestRecomputeTrackerIncludesRosterAndTrackedNames(t *testing.T) {
	leads := &fakeLeads{leads: []domain.Lead{{AssignedTo: "Old", Booked: "Yes"}, {AssignedTo: "New", SiteVisit: "Yes"}}}
	agents := fakeAgents{{Name: "New", Email: "n@x.com", BreakMinutesToday: 100}}
	tracker := &fakeTracker{names: []string{"Old"}}

	n, err := newTestService(leads, agents, tracker, time.Now()).RecomputeTracker(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 rows, got %d err=%v", n, err)
	}
	if tracker.rows[0].AgentName != "Old" || tracker.rows[0].Score != "2.00" {
		t.Fatalf("unexpected first row %+v", tracker.rows[0])
	}
	if tracker.rows[1].AgentName != "New" || tracker.rows[1].Score != "0.00" {
		t.Fatalf("unexpected second row %+v", tracker.rows[1])
	}
}
