// Package metrics exposes request metrics over prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder aggregates http metrics for one server process.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	jobsCreated     prometheus.Counter
	jobsCompleted   *prometheus.CounterVec
}

func New() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datapress_http_requests_total",
				Help: "Requests served, by route and status code.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datapress_http_request_duration_seconds",
				Help:    "Request latency, by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		jobsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "datapress_jobs_created_total",
				Help: "Processing jobs created, including retries.",
			},
		),
		jobsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datapress_jobs_finished_total",
				Help: "Processing jobs reaching a terminal state.",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		r.requestsTotal, r.requestDuration, r.jobsCreated, r.jobsCompleted,
	)
	return r
}

// Middleware observes every request passing through echo.
//
// The routed path pattern (not the raw url) is used as the label, so
// cardinality stays bounded by the route table.
func (r *Recorder) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			path := c.Path()
			status := c.Response().Status
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}

			r.requestsTotal.
				WithLabelValues(method, path, strconv.Itoa(status)).
				Inc()
			r.requestDuration.
				WithLabelValues(method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the /metrics scrape endpoint.
func (r *Recorder) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(
		r.registry, promhttp.HandlerOpts{},
	))
}

// JobCreated counts a new processing job.
func (r *Recorder) JobCreated() { r.jobsCreated.Inc() }

// JobFinished counts a job reaching status "completed" or "failed".
func (r *Recorder) JobFinished(status string) {
	r.jobsCompleted.WithLabelValues(status).Inc()
}
