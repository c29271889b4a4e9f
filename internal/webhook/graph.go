package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadops_backend/internal/leads/normalize"
)

// LeadDetails is the Graph API view of one leadgen submission.
type LeadDetails struct {
	FieldData   []normalize.FieldData `json:"field_data"`
	CreatedTime string                `json:"created_time"`
}

// LeadFetcher resolves a leadgen id to the submitted answers.
type LeadFetcher interface {
	FetchLead(ctx context.Context, leadgenID string) (LeadDetails, error)
}

// GraphClient reads leadgen submissions with a page access token.
type GraphClient struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
}

func NewGraphClient(baseURL, accessToken string) *GraphClient {
	return &GraphClient{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
	}
}

// FetchLead requests field_data and created_time for one lead.
func (c *GraphClient) FetchLead(ctx context.Context, leadgenID string) (LeadDetails, error) {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("fields", "field_data,created_time")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(leadgenID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return LeadDetails{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LeadDetails{}, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return LeadDetails{}, fmt.Errorf("graph returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var details LeadDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return LeadDetails{}, fmt.Errorf("decode graph response: %w", err)
	}
	return details, nil
}
