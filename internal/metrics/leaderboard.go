package metrics

import (
	"sort"
	"strings"

	"leadops_backend/internal/leads/domain"
)

// UnknownAgent groups leads without an assignee.
const UnknownAgent = "Unknown"

// LeaderboardEntry is one row of the leaderboard.
type LeaderboardEntry struct {
	Name       string `json:"name"`
	Leads      int    `json:"leads"`
	Called     int    `json:"called"`
	SiteVisits int    `json:"siteVisits"`
	Bookings   int    `json:"bookings"`
	Score      int    `json:"score"`
}

// LeaderboardScore counts a site visit once and a booking twice. It is
// deliberately separate from PerformanceScore.
func LeaderboardScore(siteVisits, bookings int) int {
	return siteVisits + bookings*2
}

// Leaderboard groups every lead by assignee and sorts by score, highest
// first. Ties keep first-seen order.
func Leaderboard(leads []domain.Lead) []LeaderboardEntry {
	index := map[string]int{}
	var out []LeaderboardEntry
	for _, l := range leads {
		name := strings.TrimSpace(l.AssignedTo)
		if name == "" {
			name = UnknownAgent
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, LeaderboardEntry{Name: name})
		}
		e := &out[i]
		e.Leads++
		if domain.IsAffirmative(l.Called) {
			e.Called++
		}
		if domain.IsAffirmative(l.SiteVisit) {
			e.SiteVisits++
		}
		if domain.IsAffirmative(l.Booked) {
			e.Bookings++
		}
	}
	for i := range out {
		out[i].Score = LeaderboardScore(out[i].SiteVisits, out[i].Bookings)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}
