// Package service implements the lead workflow operations used by the
// dashboard: listing an agent's leads, recording call outcomes and feedback,
// and label-keyed patches.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/leads/schema"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/sanitize"
)

// Store is the lead persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, leadID string) (domain.Lead, error)
	ListByAssigneeContains(ctx context.Context, emailFragment string) ([]domain.Lead, error)
	ApplyPatch(ctx context.Context, leadID string, patch schema.Patch) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// OutcomeUpdate carries the call outcome fields an agent records. Nil
// fields are left untouched.
type OutcomeUpdate struct {
	LeadID    string
	Called    *string
	SiteVisit *string
	Booked    *string
	Quality   *string
	Feedback  [domain.FeedbackSlots]*string
}

// ForAgent returns the leads whose assigned email contains email, rendered
// as label-keyed rows.
func (s *Service) ForAgent(ctx context.Context, email string) ([]map[string]any, error) {
	leads, err := s.store.ListByAssigneeContains(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, schema.Leads.Row(l))
	}
	return rows, nil
}

// RecordOutcome writes the supplied outcome fields. A non-empty feedback
// stamps its time slot.
func (s *Service) RecordOutcome(ctx context.Context, u OutcomeUpdate) error {
	updates := map[string]any{}
	put := func(label string, v *string) {
		if v != nil {
			updates[label] = *v
		}
	}
	put(schema.LabelCalled, u.Called)
	put(schema.LabelSiteVisit, u.SiteVisit)
	put(schema.LabelBooked, u.Booked)
	put(schema.LabelLeadQuality, u.Quality)
	for i, fb := range u.Feedback {
		put(schema.FeedbackLabel(i+1), sanitize.TextPtr(fb))
	}

	err := s.Patch(ctx, u.LeadID, updates)
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NotFound("Lead ID not found")
	}
	return err
}

// Patch applies a label-keyed update to one lead. Unknown labels are
// ignored. Setting Called? to yes stamps an empty call time, and a
// non-empty feedback stamps its time slot unless the patch sets it.
func (s *Service) Patch(ctx context.Context, leadID string, updates map[string]any) error {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return apperr.Validation("Missing leadId")
	}
	current, err := s.store.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Lead not found")
	}
	if err != nil {
		return err
	}

	patch, err := schema.Leads.BuildPatch(updates)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}
	patch = withEditStamps(current, patch, s.now())

	err = s.store.ApplyPatch(ctx, leadID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Lead not found")
	}
	return err
}

func withEditStamps(current domain.Lead, patch schema.Patch, now time.Time) schema.Patch {
	stamp := func(label string) {
		t := now
		patch = append(patch, schema.Assignment{Field: schema.Leads.MustLookup(label), Value: &t})
	}

	if called, ok := patch.Text(schema.LabelCalled); ok && domain.IsAffirmative(called) {
		if current.CallTime == nil && !patch.Has(schema.LabelCallTime) {
			stamp(schema.LabelCallTime)
		}
	}
	for n := 1; n <= domain.FeedbackSlots; n++ {
		fb, ok := patch.Text(schema.FeedbackLabel(n))
		if !ok || strings.TrimSpace(fb) == "" || patch.Has(schema.TimeLabel(n)) {
			continue
		}
		stamp(schema.TimeLabel(n))
	}
	return patch
}
