package metrics

import (
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
)

// MonthKey renders the challenge key for t, e.g. "May 2025".
func MonthKey(t time.Time) string {
	return t.Format("January 2006")
}

// ChallengeTally counts an agent's site visits and bookings against the
// month's targets.
type ChallengeTally struct {
	SiteVisitDone int  `json:"siteVisitDone"`
	BookingDone   int  `json:"bookingDone"`
	Completed     bool `json:"completed"`
}

// TallyChallenge counts across every lead assigned to email. Completion
// needs both targets met.
func TallyChallenge(leads []domain.Lead, email string, siteVisitTarget, bookingTarget int) ChallengeTally {
	email = strings.ToLower(strings.TrimSpace(email))
	var t ChallengeTally
	for _, l := range leads {
		if strings.ToLower(strings.TrimSpace(l.AssignedEmail)) != email {
			continue
		}
		if domain.IsAffirmative(l.SiteVisit) {
			t.SiteVisitDone++
		}
		if domain.IsAffirmative(l.Booked) {
			t.BookingDone++
		}
	}
	t.Completed = t.SiteVisitDone >= siteVisitTarget && t.BookingDone >= bookingTarget
	return t
}
