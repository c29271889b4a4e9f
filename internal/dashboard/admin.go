package dashboard

import (
	"context"
	"io"
	"net/http"

	"leadops_backend/internal/team"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// RosterAdmin manages agents.
type RosterAdmin interface {
	Roster(ctx context.Context) ([]team.Agent, error)
	AddAgent(ctx context.Context, name, email, status string) (team.Agent, error)
	Breaks(ctx context.Context, email string) ([]team.BreakLogEntry, error)
}

// BrochureUploader stores project brochures.
type BrochureUploader interface {
	UploadBrochure(ctx context.Context, project, fileName, contentType string, r io.Reader, size int64) (string, error)
}

// AdminHandler serves roster and project management under /admin.
type AdminHandler struct {
	roster   RosterAdmin
	brochure BrochureUploader
	val      *validator.Validator
}

func NewAdminHandler(roster RosterAdmin, brochure BrochureUploader, val *validator.Validator) *AdminHandler {
	return &AdminHandler{roster: roster, brochure: brochure, val: val}
}

// AddAgentRequest registers an agent in the rotation.
type AddAgentRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	Email  string `json:"email" validate:"required,email,max=254"`
	Status string `json:"status" validate:"omitempty,oneof=Active Break"`
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agents", h.ListAgents)
	rg.POST("/agents", h.AddAgent)
	rg.GET("/agents/:email/breaks", h.ListBreaks)
	rg.POST("/projects/:name/brochure", h.UploadBrochure)
}

func (h *AdminHandler) ListAgents(c *gin.Context) {
	agents, err := h.roster.Roster(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list agents", nil)
		return
	}
	httpkit.OK(c, gin.H{"items": agents})
}

func (h *AdminHandler) AddAgent(c *gin.Context) {
	var req AddAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.Describe(err))
		return
	}
	agent, err := h.roster.AddAgent(c.Request.Context(), req.Name, req.Email, req.Status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, agent)
}

func (h *AdminHandler) ListBreaks(c *gin.Context) {
	entries, err := h.roster.Breaks(c.Request.Context(), c.Param("email"))
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list breaks", nil)
		return
	}
	httpkit.OK(c, gin.H{"items": entries})
}

// UploadBrochure accepts a multipart "file" field.
func (h *AdminHandler) UploadBrochure(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer file.Close()

	key, err := h.brochure.UploadBrochure(c.Request.Context(), c.Param("name"), header.Filename,
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindUnknown {
			_ = c.Error(err)
			httpkit.Error(c, http.StatusInternalServerError, "failed to store brochure", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{"objectKey": key})
}
