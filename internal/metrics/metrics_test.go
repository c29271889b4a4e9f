package metrics

import (
	"testing"
	"time"

	"leadops_backend/internal/leads/domain"
)

func at(t time.Time) *time.Time { return &t }

func TestPerformanceScore(t *testing.T) {
	// 3 bookings, 5 visits, 2 delays, 40 break minutes.
	if got := PerformanceScore(3, 5, 2, 40); got != 10.1 {
		t.Fatalf("expected 10.1, got %v", got)
	}
	if got := LeaderboardScore(5, 3); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}

func TestForAgentMatchesEmailCaseInsensitively(t *testing.T) {
	leads := []domain.Lead{
		{AssignedEmail: "Ravi@X.com", Called: "Yes", SiteVisit: "yes", Booked: "YES"},
		{AssignedEmail: "ravi@x.com", CallDelayStatus: "Delayed"},
		{AssignedEmail: "other@x.com", Booked: "Yes"},
	}
	p := ForAgent(leads, "ravi@x.com", 50)
	if p.TotalLeads != 2 || p.TotalCalls != 1 || p.SiteVisits != 1 || p.Bookings != 1 || p.Delays != 1 {
		t.Fatalf("unexpected tally %+v", p)
	}
	if p.Score != 2.25 {
		t.Fatalf("expected score 2.25, got %v", p.Score)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	leads := []domain.Lead{
		{AssignedTo: "A", SiteVisit: "Yes"},
		{AssignedTo: "B", Booked: "Yes"},
		{AssignedTo: ""},
		{AssignedTo: "C", SiteVisit: "Yes", Booked: "Yes"},
	}
	board := Leaderboard(leads)
	want := []string{"C", "B", "A", UnknownAgent}
	for i, name := range want {
		if board[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s (%+v)", i, name, board[i].Name, board)
		}
	}
	if board[0].Score != 3 {
		t.Fatalf("expected top score 3, got %d", board[0].Score)
	}
}

func TestClassifyDelay(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		lead   domain.Lead
		want   string
		wantOK bool
	}{
		{"unassigned", domain.Lead{AssignedTime: at(now.Add(-time.Hour))}, "", false},
		{"no time", domain.Lead{AssignedTo: "A"}, "", false},
		{"called", domain.Lead{AssignedTo: "A", AssignedTime: at(now.Add(-time.Hour)), Called: "Yes"}, domain.DelayOnTime, true},
		{"not answered", domain.Lead{AssignedTo: "A", AssignedTime: at(now), Called: "Not Answered"}, domain.DelayOnTime, true},
		{"late", domain.Lead{AssignedTo: "A", AssignedTime: at(now.Add(-10 * time.Minute))}, domain.DelayDelayed, true},
		{"still fresh", domain.Lead{AssignedTo: "A", AssignedTime: at(now.Add(-9 * time.Minute))}, "", false},
		{"already classified", domain.Lead{AssignedTo: "A", AssignedTime: at(now.Add(-time.Hour)), CallDelayStatus: "on time"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyDelay(tt.lead, now)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestComputeAdminStats(t *testing.T) {
	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	leads := []domain.Lead{
		{AssignedTo: "A", Project: "P1", AssignedTime: at(now.AddDate(0, 0, -1)), Booked: "Yes", LeadQuality: "Warm", CallDelayStatus: "Delayed"},
		{AssignedTo: "A", Project: "P1", AssignedTime: at(now.AddDate(0, 0, -3)), Called: "yes", LeadQuality: "wip"},
		{AssignedTo: "B", Project: "P2", AssignedTime: at(now.AddDate(0, 0, -3)), Booked: "Yes"},
		{AssignedTo: "B", Project: "P1", AssignedTime: at(now.AddDate(0, 0, -40))},
		{AssignedTo: "C", Project: "P1"},
	}

	stats := ComputeAdminStats(leads, AdminFilter{DateRange: RangeLast30Days}, now, time.UTC)
	if len(stats.TeamStats) != 2 || stats.TeamStats[0].Name != "A" || stats.TeamStats[0].Leads != 2 {
		t.Fatalf("unexpected team stats %+v", stats.TeamStats)
	}
	if stats.TeamStats[0].CallDelay != 1 || stats.TeamStats[0].Called != 1 || stats.TeamStats[1].Bookings != 1 {
		t.Fatalf("unexpected counters %+v", stats.TeamStats)
	}
	wantTrend := []BookingPoint{{Date: "2025-05-17", Bookings: 1}, {Date: "2025-05-19", Bookings: 1}}
	if len(stats.BookingTrend) != 2 || stats.BookingTrend[0] != wantTrend[0] || stats.BookingTrend[1] != wantTrend[1] {
		t.Fatalf("unexpected trend %+v", stats.BookingTrend)
	}
	if stats.QualityDistribution[0].Value != 1 || stats.QualityDistribution[1].Value != 1 || stats.QualityDistribution[2].Value != 0 {
		t.Fatalf("unexpected quality %+v", stats.QualityDistribution)
	}

	filtered := ComputeAdminStats(leads, AdminFilter{Project: "P1"}, now, time.UTC)
	if len(filtered.TeamStats) != 2 || filtered.TeamStats[1].Leads != 1 {
		t.Fatalf("project filter should keep old P1 lead, got %+v", filtered.TeamStats)
	}
}

func TestRangeStartThisMonth(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC) // already June 1st in IST
	got := RangeStart(RangeThisMonth, now, loc)
	if got.Month() != time.June || got.Day() != 1 {
		t.Fatalf("expected June 1st, got %v", got)
	}
	if !RangeStart("", now, loc).IsZero() {
		t.Fatal("empty range should be unbounded")
	}
}

func TestTallyChallenge(t *testing.T) {
	leads := []domain.Lead{
		{AssignedEmail: "a@x.com", SiteVisit: "Yes", Booked: "Yes"},
		{AssignedEmail: "a@x.com", SiteVisit: "Yes"},
		{AssignedEmail: "b@x.com", SiteVisit: "Yes"},
	}
	got := TallyChallenge(leads, "A@x.com", 2, 1)
	if got.SiteVisitDone != 2 || got.BookingDone != 1 || !got.Completed {
		t.Fatalf("unexpected tally %+v", got)
	}
	if TallyChallenge(leads, "a@x.com", 2, 2).Completed {
		t.Fatal("booking target not met")
	}
	if MonthKey(time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)) != "May 2025" {
		t.Fatal("unexpected month key")
	}
}

func TestBuildTracker(t *testing.T) {
	leads := []domain.Lead{
		{AssignedTo: "A", Booked: "Yes", SiteVisit: "Yes", CallDelayStatus: "Delayed"},
		{AssignedTo: "A"},
		{AssignedTo: "Z", Booked: "Yes"},
	}
	rows := BuildTracker([]string{"A", "B"}, leads, []AgentBreak{{Name: "A", BreakMinutes: 30}})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	a := rows[0]
	if a.TotalLeads != 2 || a.Delays != 1 || a.BreakMinutes != 30 || a.Score != "2.45" {
		t.Fatalf("unexpected row %+v", a)
	}
	if rows[1].Score != "0.00" {
		t.Fatalf("expected zero score, got %s", rows[1].Score)
	}
}
