package webhook

import (
	"io"
	"log/slog"
	"net/http"

	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds a notification body.
const maxBodyBytes = 1 << 20

// Handler serves the lead ads webhook endpoints.
type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// TestLeadResponse reports the outcome of the test endpoint.
type TestLeadResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	LeadID    string `json:"leadId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Verify handles GET /fb-webhook subscription verification.
func (h *Handler) Verify(c *gin.Context) {
	challenge, ok := h.service.Verify(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if !ok {
		c.Status(http.StatusForbidden)
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive handles POST /fb-webhook. The sender only needs a 2xx; per-lead
// failures are logged, not returned.
func (h *Handler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	sum, err := h.service.Receive(c.Request.Context(), raw)
	if err != nil {
		if apperr.Is(err, apperr.KindBadRequest) {
			httpkit.HandleError(c, err)
			return
		}
		h.log.WithContext(c.Request.Context()).Error("webhook failed", slog.String("error", err.Error()))
		c.Status(http.StatusInternalServerError)
		return
	}

	h.log.WithContext(c.Request.Context()).Info("webhook processed",
		slog.String("kind", sum.Kind),
		slog.Int("received", sum.Received),
		slog.Int("added", sum.Added),
		slog.Int("duplicates", sum.Duplicates),
		slog.Int("failed", sum.Failed),
	)
	c.Status(http.StatusOK)
}

// TestLead handles POST /test-webhook.
func (h *Handler) TestLead(c *gin.Context) {
	out, err := h.service.AppendTestLead(c.Request.Context())
	if err != nil {
		h.log.WithContext(c.Request.Context()).Error("test lead append failed", slog.String("error", err.Error()))
		httpkit.JSON(c, http.StatusInternalServerError, TestLeadResponse{
			Message: "Failed to add test lead",
			LeadID:  out.LeadID,
			Error:   err.Error(),
		})
		return
	}
	httpkit.OK(c, TestLeadResponse{
		Success:   true,
		Message:   "Test lead added",
		LeadID:    out.LeadID,
		Duplicate: out.Duplicate,
	})
}
