// Package ingest runs normalized leads through deduplication into storage.
// Every channel (mailbox poll, webhook, append API) goes through Pipeline so
// the fingerprint rule is enforced in one place.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadops_backend/internal/events"
	"leadops_backend/internal/leads/dedup"
	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/platform/logger"
)

// Store is the lead persistence the pipeline needs.
type Store interface {
	List(ctx context.Context) ([]domain.Lead, error)
	Create(ctx context.Context, lead domain.Lead) error
}

// Message is one unread inbound email.
type Message struct {
	UID     int
	Subject string
	Plain   string
	HTML    string
}

// Mailbox supplies unread messages and acknowledges consumed ones.
type Mailbox interface {
	FetchUnread(ctx context.Context, limit int) ([]Message, error)
	MarkConsumed(ctx context.Context, uid int) error
}

// Outcome describes what happened to one lead.
type Outcome struct {
	LeadID    string `json:"leadId"`
	Duplicate bool   `json:"duplicate"`
}

// Result counts a mailbox pass.
type Result struct {
	Fetched    int `json:"fetched"`
	Unmatched  int `json:"unmatched"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Failed     int `json:"failed"`
}

// Pipeline deduplicates and persists leads.
type Pipeline struct {
	store    Store
	text     *normalize.TextNormalizer
	ids      *domain.IDGenerator
	eventBus events.Bus
	log      *logger.Logger
	batch    int
}

// Options configures a Pipeline.
type Options struct {
	Store     Store
	Text      *normalize.TextNormalizer
	IDs       *domain.IDGenerator
	EventBus  events.Bus
	Log       *logger.Logger
	BatchSize int
}

// New builds a pipeline. BatchSize defaults to 20 messages per poll.
func New(opts Options) *Pipeline {
	if opts.Text == nil {
		opts.Text = normalize.NewTextNormalizer(nil)
	}
	if opts.IDs == nil {
		opts.IDs = domain.NewIDGenerator()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	return &Pipeline{
		store:    opts.Store,
		text:     opts.Text,
		ids:      opts.IDs,
		eventBus: opts.EventBus,
		log:      opts.Log,
		batch:    opts.BatchSize,
	}
}

// IDs exposes the generator so adapters mint ids from the same sequence.
func (p *Pipeline) IDs() *domain.IDGenerator { return p.ids }

// ProcessMailbox reads up to one batch of unread messages and ingests the
// recognised ones. Unrecognised messages stay unread. A failed write is
// logged and the message stays unread so the next poll retries it.
func (p *Pipeline) ProcessMailbox(ctx context.Context, mb Mailbox) (Result, error) {
	var res Result

	existing, err := p.store.List(ctx)
	if err != nil {
		return res, fmt.Errorf("load leads: %w", err)
	}
	seen := dedup.NewSet(existing)

	messages, err := mb.FetchUnread(ctx, p.batch)
	if err != nil {
		return res, fmt.Errorf("fetch unread: %w", err)
	}
	res.Fetched = len(messages)
	log := p.log.WithContext(ctx)

	for _, msg := range messages {
		lead, rule, ok := p.text.Normalize(msg.Subject, msg.Plain, msg.HTML)
		if !ok {
			res.Unmatched++
			continue
		}

		if seen.IsDuplicate(lead) {
			res.Duplicates++
			log.Info("duplicate lead skipped", slog.String("fingerprint", dedup.Of(lead)), slog.Int("uid", msg.UID))
			p.markConsumed(ctx, mb, msg.UID)
			continue
		}

		lead.LeadID = p.ids.Next(domain.PrefixLead)
		if err := p.store.Create(ctx, lead); err != nil {
			res.Failed++
			log.DatabaseError("insert lead", err, slog.String("leadId", lead.LeadID), slog.String("rule", rule))
			continue
		}
		seen.Accept(lead)
		res.Inserted++
		p.markConsumed(ctx, mb, msg.UID)
		p.publishIngested(ctx, lead, "mailbox")
	}

	return res, nil
}

func (p *Pipeline) markConsumed(ctx context.Context, mb Mailbox, uid int) {
	if err := mb.MarkConsumed(ctx, uid); err != nil {
		p.log.WithContext(ctx).Warn("mark consumed failed", slog.Int("uid", uid), slog.String("error", err.Error()))
	}
}

// Append ingests one already normalized lead. A lead without an id gets a
// fresh LEAD- token.
func (p *Pipeline) Append(ctx context.Context, lead domain.Lead) (Outcome, error) {
	outcomes, err := p.AppendBatch(ctx, []domain.Lead{lead}, "direct")
	if err != nil {
		return Outcome{}, err
	}
	if len(outcomes) == 0 {
		return Outcome{}, errors.New("lead was not appended")
	}
	return outcomes[0], nil
}

// AppendBatch ingests leads from one request. Fingerprints accepted earlier
// in the batch count as seen. A failing lead is logged and skipped; only a
// failure to load existing leads aborts the batch.
func (p *Pipeline) AppendBatch(ctx context.Context, leads []domain.Lead, channel string) ([]Outcome, error) {
	existing, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	seen := dedup.NewSet(existing)
	log := p.log.WithContext(ctx)

	outcomes := make([]Outcome, 0, len(leads))
	var firstErr error
	for _, lead := range leads {
		if lead.LeadID == "" {
			lead.LeadID = p.ids.Next(domain.PrefixLead)
		}
		if seen.IsDuplicate(lead) {
			log.Info("duplicate lead skipped", slog.String("leadId", lead.LeadID), slog.String("channel", channel))
			outcomes = append(outcomes, Outcome{LeadID: lead.LeadID, Duplicate: true})
			continue
		}
		if err := p.store.Create(ctx, lead); err != nil {
			log.DatabaseError("insert lead", err, slog.String("leadId", lead.LeadID), slog.String("channel", channel))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		seen.Accept(lead)
		outcomes = append(outcomes, Outcome{LeadID: lead.LeadID})
		p.publishIngested(ctx, lead, channel)
	}

	if len(outcomes) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return outcomes, nil
}

func (p *Pipeline) publishIngested(ctx context.Context, lead domain.Lead, channel string) {
	if p.eventBus == nil {
		return
	}
	p.eventBus.Publish(ctx, events.LeadIngested{
		BaseEvent: events.BaseEvent{Timestamp: time.Now()},
		LeadID:    lead.LeadID,
		Project:   lead.Project,
		Source:    string(lead.Source),
		Channel:   channel,
	})
}
