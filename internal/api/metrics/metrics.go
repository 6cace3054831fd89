// Package metrics defines and registers all custom Prometheus metrics for the
// nutrition portal. It is the single source of truth for metric names, labels
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto). The Observe* helpers match the callback shapes
// the session, gateway and query layers accept.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Backend gateway metrics ──────────────────────────────────────────────────

// GatewayRequestsTotal counts calls made to the REST backend.
// Labels:
//   - op: gateway operation (e.g. "list meals", "login")
//   - status: HTTP status returned, or "0" when no response was received
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of backend requests, by operation and status.",
	},
	[]string{"op", "status"},
)

// GatewayRequestDuration measures backend round-trip time per operation.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionResolutionsTotal counts completed identity resolutions.
// Label:
//   - outcome: "anonymous", "authenticated", "expired", "rejected" or "store_error"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of session identity resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// ActiveSessions tracks the number of Session Stores held in memory.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of in-memory session stores.",
	},
)

// ── Query cache metrics ──────────────────────────────────────────────────────

// QueryCacheLookupsTotal counts query layer reads.
// Labels:
//   - resource: cached resource (e.g. "meals", "summaries")
//   - result: "hit" (served from cache) or "miss" (fetched from the backend)
var QueryCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_lookups_total",
		Help:      "Total number of query cache lookups, labelled by result (hit/miss).",
	},
	[]string{"resource", "result"},
)

func ObserveGateway(op string, status int, elapsed time.Duration) {
	GatewayRequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	GatewayRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func ObserveResolution(outcome string) {
	SessionResolutionsTotal.WithLabelValues(outcome).Inc()
}

func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

func ObserveCacheLookup(resource string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	QueryCacheLookupsTotal.WithLabelValues(resource, result).Inc()
}
