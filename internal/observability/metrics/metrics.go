package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenantcms_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	uploadValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_upload_validations_total",
		Help: "Upload validation verdicts",
	}, []string{"result"})

	uploadFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_upload_findings_total",
		Help: "Upload pipeline findings by check and severity",
	}, []string{"check", "severity"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tenantcms_upload_size_bytes",
		Help:    "Size of validated uploads",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_cache_lookups_total",
		Help: "Cache lookups by outcome",
	}, []string{"outcome"})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantcms_cache_invalidations_total",
		Help: "Prefix invalidations issued against the cache",
	})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	authzDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_authorization_denied_total",
		Help: "Authorization policy denials by operation",
	}, []string{"operation"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_circuit_breaker_transitions_total",
		Help: "Circuit breaker state transitions",
	}, []string{"name", "to"})

	eventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tenantcms_event_subscribers",
		Help: "Open event stream subscriptions",
	})

	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_sweep_runs_total",
		Help: "Background sweep runs by task and result",
	}, []string{"task", "result"})

	sweepRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantcms_sweep_removed_total",
		Help: "Entries removed by background sweeps",
	}, []string{"task"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveUpload records a pipeline verdict and the candidate size.
func ObserveUpload(accepted bool, size int64) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	uploadValidations.WithLabelValues(result).Inc()
	if size > 0 {
		uploadBytes.Observe(float64(size))
	}
}

// ObserveUploadFinding counts a single pipeline finding.
func ObserveUploadFinding(check, severity string) {
	uploadFindings.WithLabelValues(check, severity).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheInvalidation counts a prefix invalidation.
func ObserveCacheInvalidation() {
	cacheInvalidations.Inc()
}

// ObserveLogin counts a login attempt with its result.
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveAuthorizationDenied counts a policy denial.
func ObserveAuthorizationDenied(operation string) {
	authzDenied.WithLabelValues(operation).Inc()
}

// ObserveBreakerTransition counts a circuit breaker state change.
func ObserveBreakerTransition(name, to string) {
	breakerTransitions.WithLabelValues(name, to).Inc()
}

// AddEventSubscribers moves the open subscription gauge by delta.
func AddEventSubscribers(delta int) {
	eventSubscribers.Add(float64(delta))
}

// ObserveSweep records one sweep run and how many entries it removed.
func ObserveSweep(task string, removed int, err error) {
	if err != nil {
		sweepRuns.WithLabelValues(task, "error").Inc()
		return
	}
	sweepRuns.WithLabelValues(task, "success").Inc()
	sweepRemoved.WithLabelValues(task).Add(float64(removed))
}
