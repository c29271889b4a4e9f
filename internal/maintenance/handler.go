package maintenance

import (
	"context"
	"net/http"

	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// JobRunner runs one job on demand.
type JobRunner interface {
	Run(ctx context.Context, job Job) (Report, error)
}

// Handler exposes the jobs under the admin group.
type Handler struct {
	runner JobRunner
}

func NewHandler(runner JobRunner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ops", h.List)
	rg.POST("/ops/:job", h.Run)
}

func (h *Handler) List(c *gin.Context) {
	httpkit.OK(c, gin.H{"jobs": Jobs})
}

// Run executes the job named in the path and returns its report.
func (h *Handler) Run(c *gin.Context) {
	job, err := ParseJob(c.Param("job"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	report, err := h.runner.Run(c.Request.Context(), job)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindUnknown {
			_ = c.Error(err)
			httpkit.Error(c, http.StatusInternalServerError, "job failed", apperr.Message(err))
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, report)
}
