package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixmate_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fixmate_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	workflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixmate_workflow_transitions_total",
		Help: "Count of request and task lifecycle transitions",
	}, []string{"transition"})

	schedulerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixmate_scheduler_assets_total",
		Help: "Preventive maintenance scheduler outcomes per due asset",
	}, []string{"result"})

	schedulerLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fixmate_scheduler_last_run_timestamp_seconds",
		Help: "Unix time of the last completed scheduler tick",
	})

	jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fixmate_jobs_total",
		Help: "Background job outcomes by type",
	}, []string{"type", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveTransition counts a workflow transition such as "approved".
func ObserveTransition(transition string) {
	workflowTransitions.WithLabelValues(transition).Inc()
}

// ObserveScheduler adds n assets to the given scheduler result.
func ObserveScheduler(result string, n int) {
	if n <= 0 {
		return
	}
	schedulerRequests.WithLabelValues(result).Add(float64(n))
}

func SetSchedulerLastRun(t time.Time) {
	schedulerLastRun.Set(float64(t.Unix()))
}

func ObserveJob(typ, result string) {
	jobOutcomes.WithLabelValues(typ, result).Inc()
}
