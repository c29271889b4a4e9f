// Package workspace holds the agent-facing auxiliary records: manual leads,
// task lists, daily tips, monthly challenges and the project catalogue.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrManualLeadNotFound = errors.New("manual lead not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrProjectNotFound    = errors.New("project not found")
)

// ManualLead is a lead an agent logged by hand.
type ManualLead struct {
	LeadID     string
	Project    string
	Name       string
	Phone      string
	LookingFor string
	Assignee   string
	SiteVisit  string
	Booked     string
	Feedback   string
}

// UserTask is a personal to-do entry.
type UserTask struct {
	Email     string
	Task      string
	Status    string
	CreatedAt time.Time
}

// Task is an admin-assigned task.
type Task struct {
	Email       string
	Title       string
	Description string
	DueDate     string
	Status      string
}

// Challenge holds one month's targets.
type Challenge struct {
	Month           string
	SiteVisitTarget int
	BookingTarget   int
	Prize           string
}

// Project is one catalogue entry.
type Project struct {
	Name           string
	Location       string
	Configuration  string
	PriceRange     string
	BrochureURL    string
	BrochureObject string
	Notes          string
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListManualLeads returns manual leads whose assignee equals email, ignoring case.
func (r *Repository) ListManualLeads(ctx context.Context, email string) ([]ManualLead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, project, name, phone, looking_for, assignee, site_visit, booked, feedback
		FROM manual_leads
		WHERE lower(assignee) = lower($1)
		ORDER BY seq ASC`, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ManualLead, error) {
		var m ManualLead
		err := row.Scan(&m.LeadID, &m.Project, &m.Name, &m.Phone, &m.LookingFor, &m.Assignee, &m.SiteVisit, &m.Booked, &m.Feedback)
		return m, err
	})
}

// CreateManualLead appends a manual lead.
func (r *Repository) CreateManualLead(ctx context.Context, m ManualLead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO manual_leads (lead_id, project, name, phone, looking_for, assignee, site_visit, booked, feedback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.LeadID, m.Project, m.Name, m.Phone, m.LookingFor, m.Assignee, m.SiteVisit, m.Booked, m.Feedback)
	return err
}

// UpdateManualLeadColumn writes one column. column must come from the
// manual lead field table.
func (r *Repository) UpdateManualLeadColumn(ctx context.Context, leadID, column, value string) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`UPDATE manual_leads SET %s = $2 WHERE lead_id = $1`, column), leadID, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrManualLeadNotFound
	}
	return nil
}

// ListUserTasks returns an agent's personal tasks, oldest first.
func (r *Repository) ListUserTasks(ctx context.Context, email string) ([]UserTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email, task, status, created_at FROM user_tasks
		WHERE lower(email) = lower($1)
		ORDER BY id ASC`, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserTask, error) {
		var t UserTask
		err := row.Scan(&t.Email, &t.Task, &t.Status, &t.CreatedAt)
		return t, err
	})
}

// CreateUserTask appends a pending task.
func (r *Repository) CreateUserTask(ctx context.Context, email, task string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO user_tasks (email, task, status, created_at) VALUES ($1, $2, 'Pending', $3)`, email, task, at)
	return err
}

// MarkUserTaskDone sets the first task matching email and text exactly to Done.
func (r *Repository) MarkUserTaskDone(ctx context.Context, email, task string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE user_tasks SET status = 'Done'
		WHERE id = (SELECT id FROM user_tasks WHERE email = $1 AND task = $2 ORDER BY id LIMIT 1)`, email, task)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListTasks returns admin-assigned tasks for email.
func (r *Repository) ListTasks(ctx context.Context, email string) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email, title, description, due_date, status FROM tasks
		WHERE lower(email) = lower($1)
		ORDER BY id ASC`, email)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Task, error) {
		var t Task
		err := row.Scan(&t.Email, &t.Title, &t.Description, &t.DueDate, &t.Status)
		return t, err
	})
}

// ListTips returns all tips in position order.
func (r *Repository) ListTips(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT tip FROM daily_tips ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// GetChallenge returns the challenge for a month key such as "May 2025".
func (r *Repository) GetChallenge(ctx context.Context, month string) (Challenge, error) {
	var c Challenge
	err := r.pool.QueryRow(ctx, `
		SELECT month, site_visit_target, booking_target, prize
		FROM monthly_challenges WHERE month = $1`, month).
		Scan(&c.Month, &c.SiteVisitTarget, &c.BookingTarget, &c.Prize)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challenge{}, ErrChallengeNotFound
	}
	return c, err
}

// GetProject finds a project by name, ignoring case and surrounding space.
func (r *Repository) GetProject(ctx context.Context, name string) (Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `
		SELECT name, location, configuration, price_range, brochure_url, brochure_object, notes
		FROM projects WHERE lower(trim(name)) = lower(trim($1))`, name).
		Scan(&p.Name, &p.Location, &p.Configuration, &p.PriceRange, &p.BrochureURL, &p.BrochureObject, &p.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	}
	return p, err
}

// SetProjectBrochure records the object key of an uploaded brochure.
func (r *Repository) SetProjectBrochure(ctx context.Context, name, objectKey string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET brochure_object = $2
		WHERE lower(trim(name)) = lower(trim($1))`, name, objectKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// ManualLeadExists reports whether a manual lead id is present.
func (r *Repository) ManualLeadExists(ctx context.Context, leadID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM manual_leads WHERE lead_id = $1)`, leadID).Scan(&exists)
	return exists, err
}
