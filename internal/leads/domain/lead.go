// Package domain holds the lead record and the value sets shared by
// ingestion, assignment and metrics.
package domain

import (
	"strings"
	"time"
)

// Source identifies the channel a lead arrived through.
type Source string

const (
	SourceWebsite  Source = "Website"
	SourceFacebook Source = "Facebook"
	SourceWebhook  Source = "Webhook"
	SourceManual   Source = "Manual"
)

// Call delay classifications. An empty value means not yet classified.
const (
	DelayOnTime  = "On Time"
	DelayDelayed = "Delayed"
)

// FeedbackSlots is the number of ordered (feedback, time) pairs on a lead.
const FeedbackSlots = 5

// Lead is one row of the lead store.
type Lead struct {
	LeadID       string `json:"leadId"`
	Project      string `json:"project"`
	Source       Source `json:"source"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	Size         string `json:"size"`
	Budget       string `json:"budget"`
	Purpose      string `json:"purpose"`
	Priority     string `json:"priority"`
	WorkLocation string `json:"workLocation"`

	AssignedTo      string                       `json:"assignedTo"`
	AssignedEmail   string                       `json:"assignedEmail"`
	AssignedTime    *time.Time                   `json:"assignedTime,omitempty"`
	Called          string                       `json:"called"`
	CallTime        *time.Time                   `json:"callTime,omitempty"`
	CallDelayStatus string                       `json:"callDelayStatus"`
	SiteVisit       string                       `json:"siteVisit"`
	Booked          string                       `json:"booked"`
	LeadQuality     string                       `json:"leadQuality"`
	Feedback        [FeedbackSlots]FeedbackEntry `json:"feedback"`
}

// FeedbackEntry is one agent note and the moment it was recorded.
type FeedbackEntry struct {
	Text string     `json:"text"`
	At   *time.Time `json:"at,omitempty"`
}

// IsUnassigned reports whether the rotator should pick this lead up. Rows
// without a name are placeholders and never assigned.
func (l Lead) IsUnassigned() bool {
	return strings.TrimSpace(l.AssignedTo) == "" && strings.TrimSpace(l.Name) != ""
}

// IsAffirmative matches the "yes" marker the team types into flag columns,
// ignoring case and surrounding space.
func IsAffirmative(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "yes")
}

// IsDelayed reports whether a call delay status is the Delayed terminal.
func IsDelayed(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), DelayDelayed)
}

// IsClassified reports whether a call delay status already holds a terminal value.
func IsClassified(status string) bool {
	s := strings.TrimSpace(status)
	return strings.EqualFold(s, DelayDelayed) || strings.EqualFold(s, DelayOnTime)
}
