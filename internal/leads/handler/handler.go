// Package handler exposes the lead-append API over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/leads/transport"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Appender is the ingestion entry point behind the append route.
type Appender interface {
	Append(ctx context.Context, lead domain.Lead) (ingest.Outcome, error)
}

type Handler struct {
	appender Appender
	val      *validator.Validator
}

func New(appender Appender, val *validator.Validator) *Handler {
	return &Handler{appender: appender, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/append", h.Append)
}

// Append stores one lead through the deduplicating pipeline. A duplicate
// is acknowledged with 200 and duplicate=true. A lead id already taken by a
// different lead is a 409.
func (h *Handler) Append(c *gin.Context) {
	var req transport.AppendLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}

	outcome, err := h.appender.Append(c.Request.Context(), req.ToLead())
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, repository.ErrDuplicateID) {
			httpkit.HandleError(c, apperr.Conflict("lead id already exists").
				WithOp("append lead").
				WithDetails(gin.H{"leadId": req.LeadID}))
			return
		}
		httpkit.HandleError(c, apperr.Internal("failed to append lead").WithOp("append lead"))
		return
	}

	status := http.StatusCreated
	if outcome.Duplicate {
		status = http.StatusOK
	}
	httpkit.JSON(c, status, transport.AppendLeadResponse{
		Success:   true,
		LeadID:    outcome.LeadID,
		Duplicate: outcome.Duplicate,
	})
}
