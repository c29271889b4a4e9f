// Package email delivers agent notifications.
package email

import "context"

// LeadAssignment is what an agent needs to follow up on a new lead.
type LeadAssignment struct {
	AgentName  string
	AgentEmail string
	LeadID     string
	Name       string
	Phone      string
	Email      string
	Project    string
	Source     string
	City       string
}

type Sender interface {
	SendLeadAssigned(ctx context.Context, a LeadAssignment) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAssigned(ctx context.Context, a LeadAssignment) error {
	return nil
}
