// Package metrics provides Prometheus metrics for Tend: counters and
// gauges for XP accrual, events, streaks, and quests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Accrual ────────────────────────────────────────────────────────────────

// XPAwarded tracks XP granted by source kind.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "xp_awarded_total",
	Help:      "Total XP granted, by ledger source kind.",
}, []string{"source"})

// CapTruncations counts awards truncated by the daily cap.
var CapTruncations = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "cap_truncations_total",
	Help:      "Awards truncated by the daily XP cap.",
})

// ─── Events ─────────────────────────────────────────────────────────────────

// SignalsLogged counts logged signals.
var SignalsLogged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "signals_logged_total",
	Help:      "Total signals logged.",
})

// ReflectionsLogged counts submitted reflections.
var ReflectionsLogged = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "reflections_logged_total",
	Help:      "Total reflections submitted.",
})

// ─── Quests ─────────────────────────────────────────────────────────────────

// QuestsCompleted counts quest instance completions by quest type.
var QuestsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "quests_completed_total",
	Help:      "Total quest instances completed, by quest type.",
}, []string{"type"})

// ─── Insight ────────────────────────────────────────────────────────────────

// InsightRequests counts insight generations by outcome.
var InsightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tend",
	Name:      "insight_requests_total",
	Help:      "Insight generation attempts, by outcome (ok, cached, error).",
}, []string{"outcome"})
