package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

const (
	fieldLeadgen  = "leadgen"
	modeSubscribe = "subscribe"
	modeTest      = "test"
)

// Test lead values appended by the test endpoint.
const (
	TestProject = "Test Project"
	TestSource  = domain.Source("Test Webhook")
	TestName    = "Test User"
	TestEmail   = "test@example.com"
	TestPhone   = "1234567890"
	TestCity    = "Test City"
)

// flexID accepts ids sent either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	*f = flexID(b)
	return nil
}

type leadgenValue struct {
	LeadgenID flexID `json:"leadgen_id"`
	FormID    flexID `json:"form_id"`
	PageID    flexID `json:"page_id"`
}

type change struct {
	Field string       `json:"field"`
	Value leadgenValue `json:"value"`
}

type entry struct {
	Changes []change `json:"changes"`
}

type envelope struct {
	Object    string          `json:"object"`
	Mode      string          `json:"mode"`
	Challenge json.RawMessage `json:"challenge"`
	Entry     json.RawMessage `json:"entry"`
}

// Summary reports what one notification produced.
type Summary struct {
	Kind       string `json:"kind"`
	Received   int    `json:"received"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
}

// Notification kinds.
const (
	KindLeadgen      = "leadgen"
	KindVerification = "verification"
	KindPage         = "page"
	KindDirect       = "direct"
)

// Service turns webhook notifications into leads.
type Service struct {
	sink        LeadSink
	fetcher     LeadFetcher
	normalizer  *normalize.PayloadNormalizer
	ids         *domain.IDGenerator
	verifyToken string
	log         *logger.Logger
}

// Options configures a Service.
type Options struct {
	Sink        LeadSink
	Fetcher     LeadFetcher
	Normalizer  *normalize.PayloadNormalizer
	IDs         *domain.IDGenerator
	VerifyToken string
	Log         *logger.Logger
}

func NewService(opts Options) *Service {
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.NewPayloadNormalizer(nil)
	}
	if opts.IDs == nil {
		opts.IDs = domain.NewIDGenerator()
	}
	return &Service{
		sink:        opts.Sink,
		fetcher:     opts.Fetcher,
		normalizer:  opts.Normalizer,
		ids:         opts.IDs,
		verifyToken: opts.VerifyToken,
		log:         opts.Log,
	}
}

// Verify answers the subscription handshake. It returns the challenge to
// echo when mode and token match.
func (s *Service) Verify(mode, token, challenge string) (string, bool) {
	if s.verifyToken == "" || mode != modeSubscribe || token != s.verifyToken {
		return "", false
	}
	return challenge, true
}

// Receive handles one POSTed notification. Individual lead failures are
// logged and counted; only an unreadable body is an error.
func (s *Service) Receive(ctx context.Context, raw []byte) (Summary, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Summary{}, apperr.BadRequest("body must be a JSON object")
	}

	// Only an entry array selects the leadgen path; null or a scalar falls
	// through to the direct lead handling.
	var entries []entry
	if len(env.Entry) > 0 && json.Unmarshal(env.Entry, &entries) == nil && entries != nil {
		return s.receiveLeadgen(ctx, entries), nil
	}

	if env.Object == "page" || env.Object == "application" {
		if env.Mode == modeTest || hasValue(env.Challenge) {
			return Summary{Kind: KindVerification}, nil
		}
		s.log.WithContext(ctx).Info("page notification without leadgen changes", slog.String("object", env.Object))
		return Summary{Kind: KindPage}, nil
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Summary{}, apperr.BadRequest("body must be a JSON object")
	}
	lead := s.normalizer.FromDirect(body, func() string { return s.ids.Next(domain.PrefixLead) })
	sum := Summary{Kind: KindDirect, Received: 1}
	s.append(ctx, lead, &sum)
	return sum, nil
}

func (s *Service) receiveLeadgen(ctx context.Context, entries []entry) Summary {
	sum := Summary{Kind: KindLeadgen}
	log := s.log.WithContext(ctx)
	for _, e := range entries {
		for _, ch := range e.Changes {
			if ch.Field != fieldLeadgen {
				log.Info("skipping non-leadgen change", slog.String("field", ch.Field))
				continue
			}
			sum.Received++

			leadgenID := string(ch.Value.LeadgenID)
			var fields []normalize.FieldData
			if s.fetcher != nil && leadgenID != "" {
				details, err := s.fetcher.FetchLead(ctx, leadgenID)
				if err != nil {
					log.Warn("lead fetch failed",
						slog.String("leadgenId", leadgenID),
						slog.String("error", err.Error()),
					)
				} else {
					fields = details.FieldData
				}
			}

			lead := s.normalizer.FromLeadgen(leadgenID, string(ch.Value.FormID), fields)
			if lead.LeadID == "" {
				lead.LeadID = s.ids.Next(domain.PrefixLead)
			}
			s.append(ctx, lead, &sum)
		}
	}
	return sum
}

func (s *Service) append(ctx context.Context, lead domain.Lead, sum *Summary) {
	out, err := s.sink.Append(ctx, lead)
	if err != nil {
		sum.Failed++
		s.log.WithContext(ctx).Error("lead append failed",
			slog.String("leadId", lead.LeadID),
			slog.String("error", err.Error()),
		)
		return
	}
	if out.Duplicate {
		sum.Duplicates++
		return
	}
	sum.Added++
}

// AppendTestLead stores a synthetic lead to check the append path end to end.
func (s *Service) AppendTestLead(ctx context.Context) (ingest.Outcome, error) {
	lead := domain.Lead{
		LeadID:  s.ids.Next(domain.PrefixTest),
		Project: TestProject,
		Source:  TestSource,
		Name:    TestName,
		Email:   TestEmail,
		Phone:   TestPhone,
		City:    TestCity,
	}
	out, err := s.sink.Append(ctx, lead)
	if err != nil {
		return ingest.Outcome{LeadID: lead.LeadID}, err
	}
	return out, nil
}

func hasValue(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null" && v != `""` && v != "false" && v != "0"
}
