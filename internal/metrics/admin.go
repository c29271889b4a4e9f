package metrics

import (
	"sort"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
)

// Date range filters accepted by AdminStats.
const (
	RangeLast7Days  = "7d"
	RangeLast30Days = "30d"
	RangeThisMonth  = "thisMonth"
)

// QualityLabels are the lead quality buckets reported, in order.
var QualityLabels = []string{"WIP", "Warm", "Cold"}

// AdminFilter narrows the leads AdminStats looks at. Empty fields match all.
type AdminFilter struct {
	Project   string
	Member    string
	DateRange string
}

type TeamStat struct {
	Name       string `json:"name"`
	Leads      int    `json:"leads"`
	Called     int    `json:"called"`
	SiteVisits int    `json:"siteVisits"`
	Bookings   int    `json:"bookings"`
	CallDelay  int    `json:"callDelay"`
}

type BookingPoint struct {
	Date     string `json:"date"`
	Bookings int    `json:"bookings"`
}

type QualityBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// AdminStats is the admin dashboard payload.
type AdminStats struct {
	TeamStats           []TeamStat      `json:"teamStats"`
	BookingTrend        []BookingPoint  `json:"bookingTrend"`
	QualityDistribution []QualityBucket `json:"qualityDistribution"`
}

// RangeStart returns the inclusive lower bound for a date range. Unknown or
// empty ranges return the zero time.
func RangeStart(dateRange string, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	switch dateRange {
	case RangeLast7Days:
		return local.AddDate(0, 0, -7)
	case RangeLast30Days:
		return local.AddDate(0, 0, -30)
	case RangeThisMonth:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	default:
		return time.Time{}
	}
}

// ComputeAdminStats builds the admin analytics over assigned leads that
// match the filter. Trend dates use the given zone.
func ComputeAdminStats(leads []domain.Lead, f AdminFilter, now time.Time, loc *time.Location) AdminStats {
	if loc == nil {
		loc = time.UTC
	}
	from := RangeStart(f.DateRange, now, loc)

	stats := AdminStats{
		TeamStats:           []TeamStat{},
		BookingTrend:        []BookingPoint{},
		QualityDistribution: make([]QualityBucket, len(QualityLabels)),
	}
	for i, q := range QualityLabels {
		stats.QualityDistribution[i] = QualityBucket{Name: q}
	}

	teamIndex := map[string]int{}
	trend := map[string]int{}
	for _, l := range leads {
		if l.AssignedTime == nil || l.AssignedTime.Before(from) {
			continue
		}
		if f.Project != "" && l.Project != f.Project {
			continue
		}
		if f.Member != "" && l.AssignedTo != f.Member {
			continue
		}

		name := strings.TrimSpace(l.AssignedTo)
		if name == "" {
			name = UnknownAgent
		}
		i, ok := teamIndex[name]
		if !ok {
			i = len(stats.TeamStats)
			teamIndex[name] = i
			stats.TeamStats = append(stats.TeamStats, TeamStat{Name: name})
		}
		ts := &stats.TeamStats[i]
		ts.Leads++
		if domain.IsAffirmative(l.Called) {
			ts.Called++
		}
		if domain.IsAffirmative(l.SiteVisit) {
			ts.SiteVisits++
		}
		booked := domain.IsAffirmative(l.Booked)
		if booked {
			ts.Bookings++
		}
		if domain.IsDelayed(l.CallDelayStatus) {
			ts.CallDelay++
		}

		day := l.AssignedTime.In(loc).Format("2006-01-02")
		if _, seen := trend[day]; !seen {
			trend[day] = 0
		}
		if booked {
			trend[day]++
		}

		for qi, q := range QualityLabels {
			if strings.EqualFold(strings.TrimSpace(l.LeadQuality), q) {
				stats.QualityDistribution[qi].Value++
				break
			}
		}
	}

	for day, n := range trend {
		stats.BookingTrend = append(stats.BookingTrend, BookingPoint{Date: day, Bookings: n})
	}
	sort.Slice(stats.BookingTrend, func(a, b int) bool {
		return stats.BookingTrend[a].Date < stats.BookingTrend[b].Date
	})
	return stats
}
