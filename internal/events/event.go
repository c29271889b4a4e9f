// Package events defines the lead and team events exchanged over the bus.
// The bus itself lives in platform/events.
package events

import (
	"time"

	"leadops_backend/platform/events"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadIngested is published after a novel lead has been persisted.
type LeadIngested struct {
	BaseEvent
	LeadID  string `json:"leadId"`
	Project string `json:"project"`
	Source  string `json:"source"`
	Channel string `json:"channel"`
}

func (e LeadIngested) EventName() string { return "leads.ingested" }

// LeadAssigned is published once per lead handed to an agent by the rotator.
type LeadAssigned struct {
	BaseEvent
	LeadID        string    `json:"leadId"`
	Project       string    `json:"project"`
	Source        string    `json:"source"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	City          string    `json:"city"`
	AssignedTo    string    `json:"assignedTo"`
	AssignedEmail string    `json:"assignedEmail"`
	AssignedAt    time.Time `json:"assignedAt"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// =============================================================================
// Team Domain Events
// =============================================================================

// BreakClosed is published when a break interval has been accounted.
type BreakClosed struct {
	BaseEvent
	AgentName       string    `json:"agentName"`
	AgentEmail      string    `json:"agentEmail"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	Trigger         string    `json:"trigger"`
}

func (e BreakClosed) EventName() string { return "team.break.closed" }
