// Package metrics defines the custom Prometheus metrics of the event planner
// API. Metrics are registered with the default registry through promauto and
// exposed on /metrics next to the echoprometheus request metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventplanner"

// ── Authentication ────────────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Labels:
//   - role: the role requested ("User" or "Admin")
//   - result: "created", "duplicate", "rejected" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_username", "invalid_password" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRejectionsTotal counts requests that failed authentication.
// Label:
//   - reason: "missing_header", "malformed_header" or "invalid_token"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_rejections_total",
		Help:      "Total number of requests rejected because the bearer token did not validate.",
	},
	[]string{"reason"},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// ForbiddenTotal counts authenticated requests denied by the authorization gate.
// Label:
//   - route: the matched route path (e.g. "/api/Events/:eventId")
var ForbiddenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "authz",
		Name:      "forbidden_total",
		Help:      "Total number of authenticated requests denied for missing role or ownership.",
	},
	[]string{"route"},
)

// ── Events ────────────────────────────────────────────────────────────────────

// EventsCreatedTotal counts event creations.
// Label:
//   - result: "created" or "replayed" (Idempotency-Key hit)
var EventsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of event create requests, labelled by result (created/replayed).",
	},
	[]string{"result"},
)

// RegisterAuditDropped exposes the audit dispatcher's drop counter.
func RegisterAuditDropped(dropped func() uint64) {
	promauto.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Total number of audit entries dropped because a worker buffer was full.",
		},
		func() float64 { return float64(dropped()) },
	)
}
