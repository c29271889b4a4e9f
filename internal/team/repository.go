package team

import (
	"context"
	"errors"
	"time"

	"leadops_backend/internal/timetracking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAgentNotFound = errors.New("agent not found")

// Agent is one roster row. Position fixes rotation order.
type Agent struct {
	Position          int64  `json:"position"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Status            string `json:"status"`
	BreakMinutesToday int    `json:"breakMinutesToday"`
}

// Repository stores agents, their live status and the break log.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the roster in position order.
func (r *Repository) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT position, name, email, status, break_minutes_today
		FROM agents
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Agent, 0)
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.Position, &a.Name, &a.Email, &a.Status, &a.BreakMinutesToday); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// GetByEmail looks an agent up case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Agent, error) {
	var a Agent
	err := r.pool.QueryRow(ctx, `
		SELECT position, name, email, status, break_minutes_today
		FROM agents WHERE lower(email) = lower($1)
	`, email).Scan(&a.Position, &a.Name, &a.Email, &a.Status, &a.BreakMinutesToday)
	if errors.Is(err, pgx.ErrNoRows) {
		return Agent{}, ErrAgentNotFound
	}
	return a, err
}

// SetStatus writes the status cell for an agent.
func (r *Repository) SetStatus(ctx context.Context, email, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET status = $2, updated_at = now() WHERE lower(email) = lower($1)
	`, email, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// Upsert adds an agent at the end of the roster or renames an existing one.
func (r *Repository) Upsert(ctx context.Context, name, email, status string) (Agent, error) {
	var a Agent
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, email, status) VALUES ($1, $2, $3)
		ON CONFLICT ((lower(email))) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING position, name, email, status, break_minutes_today
	`, name, email, status).Scan(&a.Position, &a.Name, &a.Email, &a.Status, &a.BreakMinutesToday)
	return a, err
}

// RecordBreak appends a closed break to the log and adds its minutes to the
// agent's running daily total in one transaction.
func (r *Repository) RecordBreak(ctx context.Context, iv timetracking.Interval) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE agents SET break_minutes_today = break_minutes_today + $2, updated_at = now()
		WHERE lower(email) = lower($1)
	`, iv.AgentEmail, iv.DurationMinutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAgentNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO break_log (agent_name, agent_email, started_at, ended_at, duration_minutes, log_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, iv.AgentName, iv.AgentEmail, iv.Start, iv.End, iv.DurationMinutes, iv.Date); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// BreakLogEntry is a logged interval as stored.
type BreakLogEntry struct {
	AgentName       string    `json:"name"`
	AgentEmail      string    `json:"email"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	Date            string    `json:"date"`
}

// ListBreaks returns one agent's intervals for a date, oldest first.
func (r *Repository) ListBreaks(ctx context.Context, email, date string) ([]BreakLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT agent_name, agent_email, started_at, ended_at, duration_minutes, log_date
		FROM break_log
		WHERE lower(agent_email) = lower($1) AND log_date = $2
		ORDER BY started_at ASC
	`, email, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BreakLogEntry, 0)
	for rows.Next() {
		var e BreakLogEntry
		if err := rows.Scan(&e.AgentName, &e.AgentEmail, &e.Start, &e.End, &e.DurationMinutes, &e.Date); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ResetBreakMinutes zeroes every agent's daily total.
func (r *Repository) ResetBreakMinutes(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET break_minutes_today = 0, updated_at = now() WHERE break_minutes_today <> 0`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
