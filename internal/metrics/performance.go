// Package metrics derives per-agent performance, the leaderboard, admin
// analytics and call delay classification from the lead store.
package metrics

import (
	"math"
	"strings"

	"leadops_backend/internal/leads/domain"
)

// Performance is one agent's scorecard.
type Performance struct {
	TotalLeads   int     `json:"totalLeads"`
	TotalCalls   int     `json:"totalCalls"`
	Delays       int     `json:"delays"`
	SiteVisits   int     `json:"siteVisits"`
	Bookings     int     `json:"bookings"`
	BreakMinutes int     `json:"breakMinutes"`
	Score        float64 `json:"score"`
}

// PerformanceScore weighs bookings double, penalises delays by a quarter
// point and break minutes by a hundredth. Rounded to two decimals.
func PerformanceScore(bookings, siteVisits, delays, breakMinutes int) float64 {
	raw := float64(bookings)*2 + float64(siteVisits) - float64(delays)*0.25 - float64(breakMinutes)*0.01
	return math.Round(raw*100) / 100
}

// ForAgent tallies the leads assigned to email and applies PerformanceScore.
func ForAgent(leads []domain.Lead, email string, breakMinutes int) Performance {
	email = strings.ToLower(strings.TrimSpace(email))
	p := Performance{BreakMinutes: breakMinutes}
	for _, l := range leads {
		if strings.ToLower(strings.TrimSpace(l.AssignedEmail)) != email {
			continue
		}
		p.add(l)
	}
	p.Score = PerformanceScore(p.Bookings, p.SiteVisits, p.Delays, p.BreakMinutes)
	return p
}

func (p *Performance) add(l domain.Lead) {
	p.TotalLeads++
	if domain.IsAffirmative(l.Called) {
		p.TotalCalls++
	}
	if domain.IsDelayed(l.CallDelayStatus) {
		p.Delays++
	}
	if domain.IsAffirmative(l.SiteVisit) {
		p.SiteVisits++
	}
	if domain.IsAffirmative(l.Booked) {
		p.Bookings++
	}
}
