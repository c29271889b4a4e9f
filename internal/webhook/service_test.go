package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/internal/leads/transport"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type fakeSink struct {
	leads     []domain.Lead
	duplicate map[string]bool
	err       error
}

func (f *fakeSink) Append(_ context.Context, l domain.Lead) (ingest.Outcome, error) {
	if f.err != nil {
		return ingest.Outcome{}, f.err
	}
	f.leads = append(f.leads, l)
	return ingest.Outcome{LeadID: l.LeadID, Duplicate: f.duplicate[l.LeadID]}, nil
}

type fakeFetcher struct {
	details LeadDetails
	err     error
	calls   []string
}

func (f *fakeFetcher) FetchLead(_ context.Context, id string) (LeadDetails, error) {
	f.calls = append(f.calls, id)
	return f.details, f.err
}

func testLogger() *logger.Logger {
	return logger.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func fixedIDs() *domain.IDGenerator {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return domain.NewIDGeneratorWithClock(func() time.Time { return at })
}

func newService(sink LeadSink, fetcher LeadFetcher) *Service {
	projects := normalize.NewProjectResolver(normalize.ProjectTables{
		Forms: map[string]string{"1234": "skyline heights"},
	})
	return NewService(Options{
		Sink:        sink,
		Fetcher:     fetcher,
		Normalizer:  normalize.NewPayloadNormalizer(projects),
		IDs:         fixedIDs(),
		VerifyToken: "titan_verify",
		Log:         testLogger(),
	})
}

const leadgenBody = `{"object":"page","entry":[{"changes":[
	{"field":"leadgen","value":{"leadgen_id":"990011","form_id":"1234","page_id":"77"}},
	{"field":"feed","value":{}}
]}]}`

func TestReceiveLeadgenFetchesDetails(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{details: LeadDetails{FieldData: []normalize.FieldData{
		{Name: "full_name", Values: []string{"Asha Rao"}},
		{Name: "phone_number", Values: []string{"+919876543210"}},
		{Name: "Which city do you live in?", Values: []string{"Pune"}},
	}}}

	sum, err := newService(sink, fetcher).Receive(context.Background(), []byte(leadgenBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Kind != KindLeadgen || sum.Received != 1 || sum.Added != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "990011" {
		t.Fatalf("unexpected fetches %v", fetcher.calls)
	}
	lead := sink.leads[0]
	if lead.LeadID != "990011" || lead.Source != domain.SourceFacebook || lead.Name != "Asha Rao" || lead.City != "Pune" {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Project == normalize.FallbackLeadgenProject {
		t.Fatalf("expected form id to resolve a project, got %q", lead.Project)
	}
}

func TestReceiveLeadgenKeepsLeadWhenFetchFails(t *testing.T) {
	sink := &fakeSink{}
	fetcher := &fakeFetcher{err: errors.New("token expired")}
	body := `{"entry":[{"changes":[{"field":"leadgen","value":{"leadgen_id":5550001,"form_id":"999"}}]}]}`

	sum, err := newService(sink, fetcher).Receive(context.Background(), []byte(body))
	if err != nil || sum.Added != 1 {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}
	if sink.leads[0].LeadID != "5550001" || sink.leads[0].Project != normalize.FallbackLeadgenProject {
		t.Fatalf("unexpected lead %+v", sink.leads[0])
	}
}

func TestReceiveVerificationAndPage(t *testing.T) {
	sink := &fakeSink{}
	svc := newService(sink, nil)
	for _, body := range []string{`{"object":"page","mode":"test"}`, `{"object":"application","challenge":"abc"}`} {
		sum, err := svc.Receive(context.Background(), []byte(body))
		if err != nil || sum.Kind != KindVerification {
			t.Fatalf("body %s: unexpected result %+v %v", body, sum, err)
		}
	}
	sum, err := svc.Receive(context.Background(), []byte(`{"object":"page"}`))
	if err != nil || sum.Kind != KindPage {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}
	if len(sink.leads) != 0 {
		t.Fatalf("no lead expected, got %d", len(sink.leads))
	}
}

func TestReceiveDirectPayload(t *testing.T) {
	sink := &fakeSink{}
	sum, err := newService(sink, nil).Receive(context.Background(),
		[]byte(`{"full_name":"Ravi","phone_number":"98765","location":"Thane"}`))
	if err != nil || sum.Kind != KindDirect || sum.Added != 1 {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}
	lead := sink.leads[0]
	if !strings.HasPrefix(lead.LeadID, domain.PrefixLead) || lead.Source != domain.SourceWebhook {
		t.Fatalf("unexpected lead %+v", lead)
	}
	if lead.Project != normalize.FallbackDirectProject || lead.City != "Thane" {
		t.Fatalf("unexpected lead %+v", lead)
	}
}

func TestReceiveNullEntryIsDirectLead(t *testing.T) {
	sink := &fakeSink{}
	sum, err := newService(sink, nil).Receive(context.Background(),
		[]byte(`{"entry":null,"full_name":"Meera","phone_number":"90000"}`))
	if err != nil || sum.Kind != KindDirect || sum.Added != 1 {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}
	if len(sink.leads) != 1 || sink.leads[0].Name != "Meera" {
		t.Fatalf("unexpected leads %+v", sink.leads)
	}

	sum, err = newService(&fakeSink{}, nil).Receive(context.Background(), []byte(`{"entry":[]}`))
	if err != nil || sum.Kind != KindLeadgen || sum.Received != 0 {
		t.Fatalf("empty entry array should stay on the leadgen path: %+v %v", sum, err)
	}
}

func TestReceiveCountsFailuresAndDuplicates(t *testing.T) {
	sink := &fakeSink{duplicate: map[string]bool{"990011": true}}
	sum, err := newService(sink, &fakeFetcher{}).Receive(context.Background(), []byte(leadgenBody))
	if err != nil || sum.Duplicates != 1 || sum.Added != 0 {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}

	sum, err = newService(&fakeSink{err: errors.New("db down")}, nil).Receive(context.Background(), []byte(`{"name":"x"}`))
	if err != nil || sum.Failed != 1 {
		t.Fatalf("unexpected result %+v %v", sum, err)
	}

	if _, err := newService(sink, nil).Receive(context.Background(), []byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object body")
	}
}

func TestVerify(t *testing.T) {
	svc := newService(&fakeSink{}, nil)
	if got, ok := svc.Verify("subscribe", "titan_verify", "42"); !ok || got != "42" {
		t.Fatalf("expected challenge echo, got %q %v", got, ok)
	}
	if _, ok := svc.Verify("subscribe", "wrong", "42"); ok {
		t.Fatal("wrong token accepted")
	}
	if _, ok := NewService(Options{Sink: &fakeSink{}, Log: testLogger()}).Verify("subscribe", "", "42"); ok {
		t.Fatal("empty verify token must never match")
	}
}

func TestAppendTestLead(t *testing.T) {
	sink := &fakeSink{}
	out, err := newService(sink, nil).AppendTestLead(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lead := sink.leads[0]
	if !strings.HasPrefix(out.LeadID, domain.PrefixTest) || lead.Source != TestSource || lead.Email != TestEmail {
		t.Fatalf("unexpected test lead %+v", lead)
	}
}

func TestGraphClientFetchLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/990011" || r.URL.Query().Get("access_token") != "page-token" ||
			r.URL.Query().Get("fields") != "field_data,created_time" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"created_time":"2026-03-01T10:00:00+0000","field_data":[{"name":"email","values":["a@b.in"]}]}`))
	}))
	defer srv.Close()

	details, err := NewGraphClient(srv.URL+"/v19.0/", "page-token").FetchLead(context.Background(), "990011")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(details.FieldData) != 1 || details.FieldData[0].Values[0] != "a@b.in" {
		t.Fatalf("unexpected details %+v", details)
	}

	if _, err := NewGraphClient(srv.URL, "other").FetchLead(context.Background(), "1"); err == nil {
		t.Fatal("expected error on non-200")
	}
}

func TestRemoteSinkPostsFixedColumns(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(transport.AppendLeadResponse{Success: true, LeadID: "LEAD-42"})
	}))
	defer srv.Close()

	out, err := NewRemoteSink(srv.URL).Append(context.Background(), domain.Lead{LeadID: "LEAD-42", Name: "Asha"})
	if err != nil || out.LeadID != "LEAD-42" || out.Duplicate {
		t.Fatalf("unexpected result %+v %v", out, err)
	}
	if got["name"] != "Asha" || got["workLocation"] != "" {
		t.Fatalf("unexpected payload %v", got)
	}
}

func newWebhookRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc, testLogger())
	r.GET("/api/fb-webhook", h.Verify)
	r.POST("/api/fb-webhook", h.Receive)
	r.POST("/api/test-webhook", h.TestLead)
	return r
}

func TestHandlerRoutes(t *testing.T) {
	sink := &fakeSink{}
	r := newWebhookRouter(newService(sink, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/fb-webhook?hub.mode=subscribe&hub.verify_token=titan_verify&hub.challenge=ok123", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok123" {
		t.Fatalf("unexpected verify response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fb-webhook?hub.mode=subscribe&hub.verify_token=x", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fb-webhook", strings.NewReader(`{"name":"Asha"}`)))
	if rec.Code != http.StatusOK || len(sink.leads) != 1 {
		t.Fatalf("unexpected receive response %d, leads %d", rec.Code, len(sink.leads))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/test-webhook", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected test response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerTestLeadFailure(t *testing.T) {
	r := newWebhookRouter(newService(&fakeSink{err: errors.New("append down")}, nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/test-webhook", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "append down") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
