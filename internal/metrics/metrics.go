// Package metrics defines Prometheus metrics for the Aegis auth service.
//
// Metric naming follows Prometheus conventions:
//   - aegis_ prefix for all custom metrics
//   - _total suffix for counters
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts registration attempts by terminal result.
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_registrations_total",
			Help: "Total registration attempts by result.",
		},
		[]string{"result"},
	)

	// LoginsTotal counts login attempts by terminal result.
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_logins_total",
			Help: "Total login attempts by result.",
		},
		[]string{"result"},
	)

	// RefreshesTotal counts refresh-rotation attempts by terminal result.
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_refreshes_total",
			Help: "Total refresh-token rotations by result.",
		},
		[]string{"result"},
	)

	// GuardRejectionsTotal counts requests rejected by the auth guard.
	GuardRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_guard_rejections_total",
			Help: "Total requests rejected before reaching a handler.",
		},
		[]string{"reason"},
	)
)
