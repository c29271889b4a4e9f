// Package telemetry exposes Prometheus collectors for the HTTP surface, the
// lead flow and the maintenance jobs.
package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"leadops_backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadops"

// Metrics bundles the collectors registered on one registry.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	ingested    *prometheus.CounterVec
	assigned    *prometheus.CounterVec
	breaks      prometheus.Counter
	jobs        *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests received.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Number of requests currently being handled.",
		}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_ingested_total",
			Help:      "Novel leads persisted, by ingestion channel.",
		}, []string{"channel", "source"}),
		assigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_assigned_total",
			Help:      "Leads handed to an agent by the rotator.",
		}, []string{"agent"}),
		breaks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaks_closed_total",
			Help:      "Break intervals accounted.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Maintenance job runs by outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Maintenance job run time.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight, m.ingested, m.assigned, m.breaks, m.jobs, m.jobDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by matched route so path parameters do not
// inflate cardinality. Unmatched requests share the "unmatched" route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := []string{c.Request.Method, route, strconv.Itoa(c.Writer.Status())}
		m.requests.WithLabelValues(labels...).Inc()
		m.duration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	}
}

// ObserveJob records one maintenance run.
func (m *Metrics) ObserveJob(job string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobs.WithLabelValues(job, outcome).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// RegisterHandlers counts lead and team events.
func (m *Metrics) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadIngested{}.EventName(), m)
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.BreakClosed{}.EventName(), m)
}

func (m *Metrics) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadIngested:
		m.ingested.WithLabelValues(e.Channel, e.Source).Inc()
	case events.LeadAssigned:
		m.assigned.WithLabelValues(e.AssignedEmail).Inc()
	case events.BreakClosed:
		m.breaks.Inc()
	}
	return nil
}
