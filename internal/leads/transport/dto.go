// Package transport holds the request and response shapes of the lead routes.
package transport

import (
	"strings"

	"leadops_backend/internal/leads/domain"
)

// AppendLeadRequest is the fixed-column body of the lead-append API.
// Missing fields arrive as empty strings.
type AppendLeadRequest struct {
	LeadID       string `json:"leadId" validate:"max=64"`
	Project      string `json:"project" validate:"max=200"`
	Source       string `json:"source" validate:"max=64"`
	Name         string `json:"name" validate:"max=200"`
	Email        string `json:"email" validate:"max=254"`
	Phone        string `json:"phone" validate:"max=40"`
	City         string `json:"city" validate:"max=120"`
	Size         string `json:"size" validate:"max=120"`
	Budget       string `json:"budget" validate:"max=120"`
	Purpose      string `json:"purpose" validate:"max=120"`
	Priority     string `json:"priority" validate:"max=120"`
	WorkLocation string `json:"workLocation" validate:"max=200"`
}

// ToLead converts the request into a lead. An empty source means Webhook.
func (r AppendLeadRequest) ToLead() domain.Lead {
	source := domain.Source(strings.TrimSpace(r.Source))
	if source == "" {
		source = domain.SourceWebhook
	}
	return domain.Lead{
		LeadID:       strings.TrimSpace(r.LeadID),
		Project:      strings.TrimSpace(r.Project),
		Source:       source,
		Name:         strings.TrimSpace(r.Name),
		Email:        strings.TrimSpace(r.Email),
		Phone:        strings.TrimSpace(r.Phone),
		City:         strings.TrimSpace(r.City),
		Size:         r.Size,
		Budget:       r.Budget,
		Purpose:      r.Purpose,
		Priority:     r.Priority,
		WorkLocation: r.WorkLocation,
	}
}

// FromLead builds the append body for a lead. Remote sinks use it so both
// ends share one shape.
func FromLead(l domain.Lead) AppendLeadRequest {
	return AppendLeadRequest{
		LeadID:       l.LeadID,
		Project:      l.Project,
		Source:       string(l.Source),
		Name:         l.Name,
		Email:        l.Email,
		Phone:        l.Phone,
		City:         l.City,
		Size:         l.Size,
		Budget:       l.Budget,
		Purpose:      l.Purpose,
		Priority:     l.Priority,
		WorkLocation: l.WorkLocation,
	}
}

// AppendLeadResponse reports the stored id and whether it was a duplicate.
type AppendLeadResponse struct {
	Success   bool   `json:"success"`
	LeadID    string `json:"leadId"`
	Duplicate bool   `json:"duplicate"`
}
