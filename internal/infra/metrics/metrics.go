// Package metrics provides Prometheus metrics for hotelscore: scored actions,
// XP, badges, rate limiting, persistence health and dispatch latency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Action outcomes.
const (
	OutcomeApplied      = "applied"
	OutcomeLimited      = "limited"
	OutcomeDuplicate    = "duplicate"
	OutcomeUnauthorized = "unauthorized"
	OutcomeUnknown      = "unknown"
	OutcomeReadFailed   = "read_failed"
	OutcomeReserved     = "reserved"
)

// ─── Actions ────────────────────────────────────────────────────────────────

// ActionsTotal counts dispatched actions by type and outcome.
var ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "actions_total",
	Help:      "Total scored actions by outcome.",
}, []string{"type", "outcome"})

// XPAwarded counts XP granted by action type.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded.",
}, []string{"type"})

// BadgesUnlocked counts badge unlocks.
var BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "badges_unlocked_total",
	Help:      "Total badge unlocks.",
}, []string{"badge"})

// ChallengesCompleted counts weekly challenge rewards granted.
var ChallengesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "challenges_completed_total",
	Help:      "Total weekly challenge rewards granted.",
}, []string{"challenge"})

// ─── Rate Limiting ──────────────────────────────────────────────────────────

// RateLimited counts actions dropped by the rate limiter.
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "rate_limited_total",
	Help:      "Total actions rejected by the rate limiter.",
}, []string{"type"})

// LimiterFailOpen counts limiter checks that could not read history.
var LimiterFailOpen = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "limiter_fail_open_total",
	Help:      "Rate-limit checks allowed because history was unavailable.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistenceFailures counts store errors by operation.
var PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "persistence_failures_total",
	Help:      "Total document store failures.",
}, []string{"op"})

// ─── Dispatch ───────────────────────────────────────────────────────────────

// DispatchDuration tracks end-to-end dispatch latency.
var DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "hotelscore",
	Name:      "dispatch_duration_seconds",
	Help:      "Action dispatch duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus reports the last result of each health check (1 healthy, 0 not).
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "hotelscore",
	Name:      "health_status",
	Help:      "Health check status (1 = healthy, 0 = unhealthy).",
}, []string{"check"})

// HealthRecoveries counts successful recoveries per check.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "hotelscore",
	Name:      "health_recoveries_total",
	Help:      "Total automatic recoveries per health check.",
}, []string{"check"})
