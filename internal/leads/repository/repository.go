// Package repository persists leads in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/schema"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("lead not found")
	ErrDuplicateID = errors.New("lead id already exists")
)

const uniqueViolation = "23505"

const leadColumns = `lead_id, project, source, name, email, phone, city,
	size, budget, purpose, priority, work_location,
	assigned_to, assigned_email, assigned_time, called, call_time, call_delay_status,
	site_visit, booked, lead_quality,
	feedback_1, time_1, feedback_2, time_2, feedback_3, time_3, feedback_4, time_4, feedback_5, time_5`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create appends a lead. A repeated lead id yields ErrDuplicateID.
func (r *Repository) Create(ctx context.Context, l domain.Lead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (
			lead_id, project, source, name, email, phone, city,
			size, budget, purpose, priority, work_location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		l.LeadID, l.Project, string(l.Source), l.Name, l.Email, l.Phone, l.City,
		l.Size, l.Budget, l.Purpose, l.Priority, l.WorkLocation,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// GetByID returns a single lead.
func (r *Repository) GetByID(ctx context.Context, leadID string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE lead_id = $1`, leadID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// List returns every lead in storage order.
func (r *Repository) List(ctx context.Context) ([]domain.Lead, error) {
	return r.query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY seq ASC`)
}

// ListUnassigned returns leads with a name and no assignee, oldest first.
func (r *Repository) ListUnassigned(ctx context.Context) ([]domain.Lead, error) {
	return r.query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE btrim(assigned_to) = '' AND btrim(name) <> ''
		ORDER BY seq ASC`)
}

// ListAwaitingDelayCheck returns assigned leads that carry an assignment
// time and no terminal call delay status.
func (r *Repository) ListAwaitingDelayCheck(ctx context.Context) ([]domain.Lead, error) {
	return r.query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE btrim(assigned_to) <> ''
			AND assigned_time IS NOT NULL
			AND lower(btrim(call_delay_status)) NOT IN ('delayed', 'on time')
		ORDER BY seq ASC`)
}

// ListByAssigneeContains returns leads whose assigned email contains the
// given fragment, case-insensitively.
func (r *Repository) ListByAssigneeContains(ctx context.Context, emailFragment string) ([]domain.Lead, error) {
	return r.query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE strpos(lower(assigned_email), lower($1)) > 0
		ORDER BY seq ASC`, emailFragment)
}

// Assign writes the assignee and assignment time onto a lead.
func (r *Repository) Assign(ctx context.Context, leadID, agentName, agentEmail string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET assigned_to = $2, assigned_email = $3, assigned_time = $4, updated_at = now()
		WHERE lead_id = $1
	`, leadID, agentName, agentEmail, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCallDelayStatus classifies a lead. Already classified leads are left
// untouched; the returned bool reports whether a row changed.
func (r *Repository) SetCallDelayStatus(ctx context.Context, leadID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET call_delay_status = $2, updated_at = now()
		WHERE lead_id = $1 AND lower(btrim(call_delay_status)) NOT IN ('delayed', 'on time')
	`, leadID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyPatch writes the resolved columns of a patch onto one lead.
func (r *Repository) ApplyPatch(ctx context.Context, leadID string, patch schema.Patch) error {
	if len(patch) == 0 {
		_, err := r.GetByID(ctx, leadID)
		return err
	}

	sets := make([]string, 0, len(patch)+1)
	args := make([]any, 0, len(patch)+1)
	args = append(args, leadID)
	for _, a := range patch {
		args = append(args, a.Value)
		sets = append(sets, a.Field.Column+" = $"+strconv.Itoa(len(args)))
	}
	sets = append(sets, "updated_at = now()")

	// Column names come from the schema, never from the request.
	query := fmt.Sprintf(`UPDATE leads SET %s WHERE lead_id = $1`, strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l      domain.Lead
		source string
	)
	fb := &l.Feedback
	err := row.Scan(
		&l.LeadID, &l.Project, &source, &l.Name, &l.Email, &l.Phone, &l.City,
		&l.Size, &l.Budget, &l.Purpose, &l.Priority, &l.WorkLocation,
		&l.AssignedTo, &l.AssignedEmail, &l.AssignedTime, &l.Called, &l.CallTime, &l.CallDelayStatus,
		&l.SiteVisit, &l.Booked, &l.LeadQuality,
		&fb[0].Text, &fb[0].At, &fb[1].Text, &fb[1].At, &fb[2].Text, &fb[2].At,
		&fb[3].Text, &fb[3].At, &fb[4].Text, &fb[4].At,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	l.Source = domain.Source(source)
	return l, nil
}
