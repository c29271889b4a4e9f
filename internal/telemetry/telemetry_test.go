package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadops_backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/admin/agents/:email/breaks", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, email := range []string{"a@x.com", "b@x.com"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/agents/"+email+"/breaks", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/admin/agents/:email/breaks", "200")); got != 2 {
		t.Fatalf("expected 2 route hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched hit, got %v", got)
	}
}

func TestEventsAreCounted(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	_ = m.Handle(ctx, events.LeadIngested{LeadID: "LEAD-1", Channel: "mailbox", Source: "Website"})
	_ = m.Handle(ctx, events.LeadIngested{LeadID: "LEAD-2", Channel: "mailbox", Source: "Website"})
	_ = m.Handle(ctx, events.LeadAssigned{LeadID: "LEAD-1", AssignedEmail: "ravi@titans.in"})
	_ = m.Handle(ctx, events.BreakClosed{AgentEmail: "ravi@titans.in"})

	if got := testutil.ToFloat64(m.ingested.WithLabelValues("mailbox", "Website")); got != 2 {
		t.Fatalf("expected 2 ingested, got %v", got)
	}
	if got := testutil.ToFloat64(m.assigned.WithLabelValues("ravi@titans.in")); got != 1 {
		t.Fatalf("expected 1 assigned, got %v", got)
	}
	if got := testutil.ToFloat64(m.breaks); got != 1 {
		t.Fatalf("expected 1 break, got %v", got)
	}
}

func TestObserveJobAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveJob("assign", 20*time.Millisecond, nil)
	m.ObserveJob("assign", 10*time.Millisecond, errors.New("db down"))

	if got := testutil.ToFloat64(m.jobs.WithLabelValues("assign", "ok")); got != 1 {
		t.Fatalf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(m.jobs.WithLabelValues("assign", "error")); got != 1 {
		t.Fatalf("expected 1 failed run, got %v", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "leadops_jobs_total") {
		t.Fatalf("metrics output missing job counter:\n%s", w.Body.String())
	}
}
