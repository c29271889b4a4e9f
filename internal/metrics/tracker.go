package metrics

import (
	"context"
	"fmt"
	"strings"

	"leadops_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TrackerRow is one row of the performance tracker table. Delays is
// written twice, to delays and delays_dup, and the score is stored as
// text with two decimals.
type TrackerRow struct {
	AgentName    string
	TotalLeads   int
	Delays       int
	SiteVisits   int
	Bookings     int
	BreakMinutes int
	Score        string
}

// AgentBreak pairs an agent name with today's break total.
type AgentBreak struct {
	Name         string
	BreakMinutes int
}

// BuildTracker computes tracker rows for names, counting leads by the
// exact assignee name. Leads assigned to names outside the list are ignored.
func BuildTracker(names []string, leads []domain.Lead, breaks []AgentBreak) []TrackerRow {
	rows := make([]TrackerRow, len(names))
	byName := make(map[string]int, len(names))
	for i, n := range names {
		rows[i] = TrackerRow{AgentName: n}
		byName[n] = i
	}
	for _, l := range leads {
		i, ok := byName[l.AssignedTo]
		if !ok || strings.TrimSpace(l.AssignedTo) == "" {
			continue
		}
		r := &rows[i]
		r.TotalLeads++
		if domain.IsDelayed(l.CallDelayStatus) {
			r.Delays++
		}
		if domain.IsAffirmative(l.SiteVisit) {
			r.SiteVisits++
		}
		if domain.IsAffirmative(l.Booked) {
			r.Bookings++
		}
	}
	for _, b := range breaks {
		if i, ok := byName[b.Name]; ok {
			rows[i].BreakMinutes = b.BreakMinutes
		}
	}
	for i := range rows {
		r := &rows[i]
		r.Score = fmt.Sprintf("%.2f", PerformanceScore(r.Bookings, r.SiteVisits, r.Delays, r.BreakMinutes))
	}
	return rows
}

// TrackerRepository persists tracker rows in PostgreSQL.
type TrackerRepository struct {
	pool *pgxpool.Pool
}

func NewTrackerRepository(pool *pgxpool.Pool) *TrackerRepository {
	return &TrackerRepository{pool: pool}
}

// Names returns the agents already present in the tracker.
func (r *TrackerRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT agent_name FROM performance_tracker ORDER BY agent_name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Write upserts every row in one batch.
func (r *TrackerRepository) Write(ctx context.Context, rows []TrackerRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO performance_tracker (
				agent_name, total_leads, delays, delays_dup, site_visits, bookings, break_minutes, score, updated_at
			) VALUES ($1, $2, $3, $3, $4, $5, $6, $7, now())
			ON CONFLICT (agent_name) DO UPDATE SET
				total_leads = EXCLUDED.total_leads,
				delays = EXCLUDED.delays,
				delays_dup = EXCLUDED.delays_dup,
				site_visits = EXCLUDED.site_visits,
				bookings = EXCLUDED.bookings,
				break_minutes = EXCLUDED.break_minutes,
				score = EXCLUDED.score,
				updated_at = now()
		`, row.AgentName, row.TotalLeads, row.Delays, row.SiteVisits, row.Bookings, row.BreakMinutes, row.Score)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}
