package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/metrics"
	"leadops_backend/internal/storage"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/sanitize"
)

// NoTipMessage is returned when no tip exists for the day.
const NoTipMessage = "No tip available today."

// Store is the persistence the workspace service needs.
type Store interface {
	ListManualLeads(ctx context.Context, email string) ([]ManualLead, error)
	CreateManualLead(ctx context.Context, m ManualLead) error
	ManualLeadExists(ctx context.Context, leadID string) (bool, error)
	UpdateManualLeadColumn(ctx context.Context, leadID, column, value string) error
	ListUserTasks(ctx context.Context, email string) ([]UserTask, error)
	CreateUserTask(ctx context.Context, email, task string, at time.Time) error
	MarkUserTaskDone(ctx context.Context, email, task string) error
	ListTasks(ctx context.Context, email string) ([]Task, error)
	ListTips(ctx context.Context) ([]string, error)
	GetChallenge(ctx context.Context, month string) (Challenge, error)
	GetProject(ctx context.Context, name string) (Project, error)
	SetProjectBrochure(ctx context.Context, name, objectKey string) error
}

// ChallengeTallier counts an agent's progress against targets.
type ChallengeTallier interface {
	Challenge(ctx context.Context, email string, siteVisitTarget, bookingTarget int) (metrics.ChallengeTally, error)
}

type manualField struct {
	label  string
	key    string
	column string
}

var manualFields = []manualField{
	{"Lead ID", "leadId", "lead_id"},
	{"Project", "project", "project"},
	{"Name", "name", "name"},
	{"Phone", "phone", "phone"},
	{"Looking For", "lookingFor", "looking_for"},
	{"Assignee", "assignee", "assignee"},
	{"Site Visit", "siteVisit", "site_visit"},
	{"Booked", "booked", "booked"},
	{"Feedback", "feedback", "feedback"},
}

// manualColumn resolves a header label or JSON key to a writable column.
// The lead id is not writable.
func manualColumn(field string) (string, bool) {
	field = strings.TrimSpace(field)
	for _, f := range manualFields[1:] {
		if f.label == field || f.key == field {
			return f.column, true
		}
	}
	return "", false
}

func manualRow(m ManualLead) map[string]any {
	return map[string]any{
		"Lead ID":     m.LeadID,
		"Project":     m.Project,
		"Name":        m.Name,
		"Phone":       m.Phone,
		"Looking For": m.LookingFor,
		"Assignee":    m.Assignee,
		"Site Visit":  m.SiteVisit,
		"Booked":      m.Booked,
		"Feedback":    m.Feedback,
	}
}

// Service implements the workspace operations.
type Service struct {
	store   Store
	tallier ChallengeTallier
	storage storage.StorageService
	bucket  string
	ids     *domain.IDGenerator
	loc     *time.Location
	now     func() time.Time
	log     *logger.Logger
}

// Options configures a Service. Storage may be nil when object storage is
// not configured.
type Options struct {
	Store    Store
	Tallier  ChallengeTallier
	Storage  storage.StorageService
	Bucket   string
	IDs      *domain.IDGenerator
	Location *time.Location
	Log      *logger.Logger
}

func NewService(opts Options) *Service {
	if opts.IDs == nil {
		opts.IDs = domain.NewIDGenerator()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:   opts.Store,
		tallier: opts.Tallier,
		storage: opts.Storage,
		bucket:  opts.Bucket,
		ids:     opts.IDs,
		loc:     opts.Location,
		now:     time.Now,
		log:     opts.Log,
	}
}

// ManualLeads lists an agent's manual leads as label-keyed rows.
func (s *Service) ManualLeads(ctx context.Context, email string) ([]map[string]any, error) {
	leads, err := s.store.ListManualLeads(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(leads))
	for _, m := range leads {
		rows = append(rows, manualRow(m))
	}
	return rows, nil
}

// AddManualLead stores a manual lead. An empty id gets an ML token.
func (s *Service) AddManualLead(ctx context.Context, m ManualLead) (string, error) {
	if strings.TrimSpace(m.LeadID) == "" {
		m.LeadID = s.ids.NextManual()
	}
	if err := s.store.CreateManualLead(ctx, m); err != nil {
		return "", err
	}
	return m.LeadID, nil
}

// UpdateManualLead writes one field of a manual lead.
func (s *Service) UpdateManualLead(ctx context.Context, leadID, field, value string) error {
	exists, err := s.store.ManualLeadExists(ctx, leadID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Lead not found")
	}
	column, ok := manualColumn(field)
	if !ok {
		return apperr.Validation("Field not found")
	}
	err = s.store.UpdateManualLeadColumn(ctx, leadID, column, value)
	if errors.Is(err, ErrManualLeadNotFound) {
		return apperr.NotFound("Lead not found")
	}
	return err
}

// UserTasks lists an agent's personal tasks.
func (s *Service) UserTasks(ctx context.Context, email string) ([]map[string]any, error) {
	tasks, err := s.store.ListUserTasks(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, map[string]any{
			"Email":  t.Email,
			"Task":   t.Task,
			"Status": t.Status,
			"Date":   t.CreatedAt.In(s.loc).Format(time.RFC3339),
		})
	}
	return rows, nil
}

// AddUserTask appends a pending task.
func (s *Service) AddUserTask(ctx context.Context, email, task string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(task) == "" {
		return apperr.Validation("Missing parameters")
	}
	return s.store.CreateUserTask(ctx, email, sanitize.Text(task), s.now())
}

// MarkTaskDone completes the first task matching email and text exactly.
func (s *Service) MarkTaskDone(ctx context.Context, email, task string) error {
	err := s.store.MarkUserTaskDone(ctx, email, sanitize.Text(task))
	if errors.Is(err, ErrTaskNotFound) {
		return apperr.NotFound("Task not found")
	}
	return err
}

// Tasks lists admin-assigned tasks for an agent.
func (s *Service) Tasks(ctx context.Context, email string) ([]map[string]any, error) {
	tasks, err := s.store.ListTasks(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, map[string]any{
			"Email":       t.Email,
			"Title":       t.Title,
			"Description": t.Description,
			"Due Date":    t.DueDate,
			"Status":      t.Status,
		})
	}
	return rows, nil
}

// DailyTip picks the tip for today's day of month, cycling through the list.
func (s *Service) DailyTip(ctx context.Context) (string, error) {
	tips, err := s.store.ListTips(ctx)
	if err != nil {
		return "", err
	}
	return TipForDay(tips, s.now().In(s.loc).Day()), nil
}

// TipForDay returns tips[(day-1) mod len], or NoTipMessage when there is
// nothing to show.
func TipForDay(tips []string, day int) string {
	if len(tips) == 0 {
		return NoTipMessage
	}
	tip := strings.TrimSpace(tips[(day-1)%len(tips)])
	if tip == "" {
		return NoTipMessage
	}
	return tip
}

// ChallengeView is the monthly challenge with the agent's progress.
type ChallengeView struct {
	Month           string `json:"month"`
	SiteVisitTarget int    `json:"siteVisitTarget"`
	BookingTarget   int    `json:"bookingTarget"`
	Prize           string `json:"prize"`
	SiteVisitDone   int    `json:"siteVisitDone"`
	BookingDone     int    `json:"bookingDone"`
	Completed       bool   `json:"completed"`
}

// MonthlyChallenge returns this month's challenge and the agent's progress.
func (s *Service) MonthlyChallenge(ctx context.Context, email string) (ChallengeView, error) {
	month := metrics.MonthKey(s.now().In(s.loc))
	c, err := s.store.GetChallenge(ctx, month)
	if errors.Is(err, ErrChallengeNotFound) {
		return ChallengeView{}, apperr.NotFound("No challenge set")
	}
	if err != nil {
		return ChallengeView{}, err
	}
	tally, err := s.tallier.Challenge(ctx, email, c.SiteVisitTarget, c.BookingTarget)
	if err != nil {
		return ChallengeView{}, err
	}
	return ChallengeView{
		Month:           month,
		SiteVisitTarget: c.SiteVisitTarget,
		BookingTarget:   c.BookingTarget,
		Prize:           c.Prize,
		SiteVisitDone:   tally.SiteVisitDone,
		BookingDone:     tally.BookingDone,
		Completed:       tally.Completed,
	}, nil
}

// ProjectInfo looks a project up by name. An uploaded brochure is served
// through a presigned link; otherwise the stored URL is returned.
func (s *Service) ProjectInfo(ctx context.Context, name string) (map[string]any, error) {
	p, err := s.store.GetProject(ctx, name)
	if errors.Is(err, ErrProjectNotFound) {
		return nil, apperr.NotFound("Project not found")
	}
	if err != nil {
		return nil, err
	}

	brochure := p.BrochureURL
	if p.BrochureObject != "" && s.storage != nil {
		link, err := s.storage.GenerateDownloadURL(ctx, s.bucket, p.BrochureObject)
		if err != nil {
			s.log.WithContext(ctx).Warn("brochure link failed",
				slog.String("project", p.Name),
				slog.String("error", err.Error()),
			)
		} else {
			brochure = link.URL
		}
	}
	return map[string]any{
		"Project Name":  p.Name,
		"Location":      p.Location,
		"Configuration": p.Configuration,
		"Price Range":   p.PriceRange,
		"Brochure":      brochure,
		"Notes":         p.Notes,
	}, nil
}

// UploadBrochure stores a brochure file and links it to the project.
func (s *Service) UploadBrochure(ctx context.Context, project, fileName, contentType string, r io.Reader, size int64) (string, error) {
	if s.storage == nil {
		return "", apperr.BadRequest("object storage is not configured")
	}
	if err := s.storage.ValidateContentType(contentType); err != nil {
		return "", apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return "", apperr.Validation(err.Error())
	}
	p, err := s.store.GetProject(ctx, project)
	if errors.Is(err, ErrProjectNotFound) {
		return "", apperr.NotFound("Project not found")
	}
	if err != nil {
		return "", err
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, folderFor(p.Name), fileName, contentType, r, size)
	if err != nil {
		return "", err
	}
	if err := s.store.SetProjectBrochure(ctx, p.Name, key); err != nil {
		return "", err
	}
	return key, nil
}

func folderFor(project string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(project, "/", " "))), "-")
}
