package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/internal/leads/transport"
)

// LeadSink accepts a normalized lead for storage. The ingestion pipeline is
// the in-process sink; RemoteSink forwards to another deployment.
type LeadSink interface {
	Append(ctx context.Context, lead domain.Lead) (ingest.Outcome, error)
}

// RemoteSink posts leads to a lead-append endpoint.
type RemoteSink struct {
	httpClient *http.Client
	url        string
}

func NewRemoteSink(url string) *RemoteSink {
	return &RemoteSink{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
	}
}

// Append sends the fixed lead columns. Absent values go out as "".
func (s *RemoteSink) Append(ctx context.Context, lead domain.Lead) (ingest.Outcome, error) {
	payload, err := json.Marshal(transport.FromLead(lead))
	if err != nil {
		return ingest.Outcome{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return ingest.Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return ingest.Outcome{}, fmt.Errorf("append request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ingest.Outcome{}, fmt.Errorf("append returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var out transport.AppendLeadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ingest.Outcome{}, fmt.Errorf("decode append response: %w", err)
	}
	if out.LeadID == "" {
		out.LeadID = lead.LeadID
	}
	return ingest.Outcome{LeadID: out.LeadID, Duplicate: out.Duplicate}, nil
}
