// Package dashboard serves the action-dispatched query and command surface
// used by the agent and admin dashboards.
package dashboard

import (
	"context"
	"strconv"
	"strings"

	"leadops_backend/internal/leads/domain"
	leadsvc "leadops_backend/internal/leads/service"
	"leadops_backend/internal/metrics"
	"leadops_backend/internal/team"
	"leadops_backend/internal/workspace"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// DefaultAction runs when the query omits action.
const DefaultAction = "getLeads"

// LeadService is the lead workflow the dashboard drives.
type LeadService interface {
	ForAgent(ctx context.Context, email string) ([]map[string]any, error)
	RecordOutcome(ctx context.Context, u leadsvc.OutcomeUpdate) error
	Patch(ctx context.Context, leadID string, updates map[string]any) error
}

// TeamService exposes roster status.
type TeamService interface {
	TeamStatus(ctx context.Context) ([]team.TeamRow, error)
	UpdateTeamStatus(ctx context.Context, email, status string) error
	Status(ctx context.Context, email string) (team.StatusView, error)
	UpdateStatus(ctx context.Context, email, status string) error
}

// MetricsService answers scorecard queries.
type MetricsService interface {
	Performance(ctx context.Context, email string) (metrics.Performance, error)
	AdminStats(ctx context.Context, f metrics.AdminFilter) (metrics.AdminStats, error)
	Leaderboard(ctx context.Context) ([]metrics.LeaderboardEntry, error)
}

// WorkspaceService exposes the auxiliary records.
type WorkspaceService interface {
	ManualLeads(ctx context.Context, email string) ([]map[string]any, error)
	AddManualLead(ctx context.Context, m workspace.ManualLead) (string, error)
	UpdateManualLead(ctx context.Context, leadID, field, value string) error
	UserTasks(ctx context.Context, email string) ([]map[string]any, error)
	AddUserTask(ctx context.Context, email, task string) error
	MarkTaskDone(ctx context.Context, email, task string) error
	Tasks(ctx context.Context, email string) ([]map[string]any, error)
	DailyTip(ctx context.Context) (string, error)
	MonthlyChallenge(ctx context.Context, email string) (workspace.ChallengeView, error)
	ProjectInfo(ctx context.Context, name string) (map[string]any, error)
}

// request is what an action sees: the lowercased email and raw query.
type request struct {
	email string
	c     *gin.Context
}

func (r request) param(name string) string { return r.c.Query(name) }

// optional returns a pointer to the parameter value, or nil when absent.
func (r request) optional(name string) *string {
	v, ok := r.c.GetQuery(name)
	if !ok {
		return nil
	}
	return &v
}

type action struct {
	needsEmail bool
	run        func(ctx context.Context, r request) (any, error)
}

type Handler struct {
	leads     LeadService
	team      TeamService
	metrics   MetricsService
	workspace WorkspaceService
	log       *logger.Logger
	actions   map[string]action
}

func New(leads LeadService, teamSvc TeamService, metricsSvc MetricsService, ws WorkspaceService, log *logger.Logger) *Handler {
	h := &Handler{leads: leads, team: teamSvc, metrics: metricsSvc, workspace: ws, log: log}
	h.actions = map[string]action{
		"getLeads":            {true, h.getLeads},
		"getTeamStatus":       {false, h.getTeamStatus},
		"updateTeamStatus":    {false, h.updateTeamStatus},
		"getStatus":           {true, h.getStatus},
		"updateStatus":        {true, h.updateStatus},
		"getPerformance":      {true, h.getPerformance},
		"getManualLeads":      {true, h.getManualLeads},
		"addManualLead":       {false, h.addManualLead},
		"updateLead":          {false, h.updateLead},
		"getAdminStats":       {false, h.getAdminStats},
		"updateManualLead":    {false, h.updateManualLead},
		"getDailyTip":         {false, h.getDailyTip},
		"getLeaderboard":      {false, h.getLeaderboard},
		"getUserTasks":        {true, h.getUserTasks},
		"addUserTask":         {true, h.addUserTask},
		"markTaskDone":        {true, h.markTaskDone},
		"getTasks":            {true, h.getTasks},
		"getMonthlyChallenge": {true, h.getMonthlyChallenge},
		"getProjectInfo":      {false, h.getProjectInfo},
	}
	return h
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/exec", h.Query)
	rg.POST("/exec", h.Command)
}

// Query dispatches GET /exec?action=... Every failure is answered as
// {error: message}.
func (h *Handler) Query(c *gin.Context) {
	name := c.Query("action")
	if name == "" {
		name = DefaultAction
	}
	act, ok := h.actions[name]
	if !ok {
		httpkit.PlainError(c, apperr.BadRequest("Invalid action"))
		return
	}

	rawEmail := strings.TrimSpace(c.Query("email"))
	if act.needsEmail && rawEmail == "" {
		httpkit.PlainError(c, apperr.Validation("Missing email parameter"))
		return
	}

	result, err := act.run(c.Request.Context(), request{email: strings.ToLower(rawEmail), c: c})
	if err != nil {
		h.fail(c, name, err)
		return
	}
	httpkit.OK(c, result)
}

// CommandRequest is the body of POST /exec.
type CommandRequest struct {
	LeadID  string         `json:"leadId"`
	Updates map[string]any `json:"updates"`
}

// CommandResponse reports a command outcome.
type CommandResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Command applies a label-keyed patch to one lead.
func (h *Handler) Command(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.OK(c, CommandResponse{Error: "invalid request body"})
		return
	}
	if err := h.leads.Patch(c.Request.Context(), req.LeadID, req.Updates); err != nil {
		if apperr.GetKind(err) == apperr.KindUnknown {
			_ = c.Error(err)
		}
		httpkit.OK(c, CommandResponse{Error: apperr.Message(err)})
		return
	}
	httpkit.OK(c, CommandResponse{Success: true})
}

func (h *Handler) fail(c *gin.Context, name string, err error) {
	if apperr.GetKind(err) == apperr.KindUnknown {
		_ = c.Error(err)
		h.log.WithContext(c.Request.Context()).Error("dashboard action failed", "action", name, "error", err)
	}
	httpkit.PlainError(c, err)
}

func success() any { return gin.H{"success": true} }

func (h *Handler) getLeads(ctx context.Context, r request) (any, error) {
	return h.leads.ForAgent(ctx, r.email)
}

func (h *Handler) getTeamStatus(ctx context.Context, _ request) (any, error) {
	return h.team.TeamStatus(ctx)
}

func (h *Handler) updateTeamStatus(ctx context.Context, r request) (any, error) {
	if err := h.team.UpdateTeamStatus(ctx, r.email, r.param("status")); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) getStatus(ctx context.Context, r request) (any, error) {
	return h.team.Status(ctx, r.email)
}

func (h *Handler) updateStatus(ctx context.Context, r request) (any, error) {
	if err := h.team.UpdateStatus(ctx, r.email, r.param("status")); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) getPerformance(ctx context.Context, r request) (any, error) {
	return h.metrics.Performance(ctx, r.email)
}

func (h *Handler) getManualLeads(ctx context.Context, r request) (any, error) {
	return h.workspace.ManualLeads(ctx, r.email)
}

func (h *Handler) addManualLead(ctx context.Context, r request) (any, error) {
	id, err := h.workspace.AddManualLead(ctx, workspace.ManualLead{
		LeadID:     r.param("leadId"),
		Project:    r.param("project"),
		Name:       r.param("name"),
		Phone:      r.param("phone"),
		LookingFor: r.param("lookingFor"),
		Assignee:   r.param("email"),
		SiteVisit:  r.param("siteVisit"),
		Booked:     r.param("booked"),
		Feedback:   r.param("feedback"),
	})
	if err != nil {
		return nil, err
	}
	return gin.H{"success": true, "leadId": id}, nil
}

func (h *Handler) updateLead(ctx context.Context, r request) (any, error) {
	u := leadsvc.OutcomeUpdate{
		LeadID:    r.param("leadId"),
		Called:    r.optional("called"),
		SiteVisit: r.optional("siteVisit"),
		Booked:    r.optional("booked"),
		Quality:   r.optional("quality"),
	}
	for i := 0; i < domain.FeedbackSlots; i++ {
		u.Feedback[i] = r.optional("feedback" + strconv.Itoa(i+1))
	}
	if err := h.leads.RecordOutcome(ctx, u); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) getAdminStats(ctx context.Context, r request) (any, error) {
	return h.metrics.AdminStats(ctx, metrics.AdminFilter{
		Project:   r.param("project"),
		Member:    r.param("member"),
		DateRange: r.param("dateRange"),
	})
}

func (h *Handler) updateManualLead(ctx context.Context, r request) (any, error) {
	if err := h.workspace.UpdateManualLead(ctx, r.param("leadId"), r.param("field"), r.param("value")); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) getDailyTip(ctx context.Context, _ request) (any, error) {
	tip, err := h.workspace.DailyTip(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{"tip": tip}, nil
}

func (h *Handler) getLeaderboard(ctx context.Context, _ request) (any, error) {
	return h.metrics.Leaderboard(ctx)
}

func (h *Handler) getUserTasks(ctx context.Context, r request) (any, error) {
	return h.workspace.UserTasks(ctx, r.email)
}

// addUserTask and markTaskDone keep the email as typed; task rows store it
// verbatim.
func (h *Handler) addUserTask(ctx context.Context, r request) (any, error) {
	if err := h.workspace.AddUserTask(ctx, strings.TrimSpace(r.param("email")), r.param("task")); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) markTaskDone(ctx context.Context, r request) (any, error) {
	if err := h.workspace.MarkTaskDone(ctx, strings.TrimSpace(r.param("email")), r.param("task")); err != nil {
		return nil, err
	}
	return success(), nil
}

func (h *Handler) getTasks(ctx context.Context, r request) (any, error) {
	return h.workspace.Tasks(ctx, r.email)
}

func (h *Handler) getMonthlyChallenge(ctx context.Context, r request) (any, error) {
	return h.workspace.MonthlyChallenge(ctx, r.email)
}

func (h *Handler) getProjectInfo(ctx context.Context, r request) (any, error) {
	return h.workspace.ProjectInfo(ctx, r.param("project"))
}
