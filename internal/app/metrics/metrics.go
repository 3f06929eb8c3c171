package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fastfood",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fastfood",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders placed.",
		},
	)

	orderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Total number of order status updates by target status.",
		},
		[]string{"status"},
	)

	paymentCodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "orders",
			Name:      "payment_codes_total",
			Help:      "Total number of payment codes generated by method.",
		},
		[]string{"method"},
	)

	tokensIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Total number of access tokens issued by role.",
		},
		[]string{"role"},
	)

	authFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fastfood",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total number of rejected requests by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		orderStatusChanges,
		paymentCodes,
		tokensIssued,
		authFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// pathOf maps a request to its route template so ids do not explode label
// cardinality; nil falls back to CanonicalPath.
func InstrumentHandler(next http.Handler, pathOf func(*http.Request) string) http.Handler {
	if pathOf == nil {
		pathOf = func(r *http.Request) string { return CanonicalPath(r.URL.Path) }
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		ObserveHTTP(r.Method, pathOf(r), rec.status, time.Since(start))
	})
}

// ObserveHTTP records a completed request.
func ObserveHTTP(method, path string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordOrderCreated counts a placed order.
func RecordOrderCreated() {
	ordersCreated.Inc()
}

// RecordOrderStatusChange counts a status update to status.
func RecordOrderStatusChange(status string) {
	orderStatusChanges.WithLabelValues(status).Inc()
}

// RecordPaymentCode counts a generated payment code.
func RecordPaymentCode(method string) {
	paymentCodes.WithLabelValues(method).Inc()
}

// RecordTokenIssued counts an issued token for role.
func RecordTokenIssued(role string) {
	if role == "" {
		role = "unknown"
	}
	tokensIssued.WithLabelValues(role).Inc()
}

// RecordAuthFailure counts a request rejected by the access gate.
func RecordAuthFailure(reason string) {
	authFailures.WithLabelValues(reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// CanonicalPath collapses numeric path segments to ":id".
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
