package scoring

import (
	"context"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/metrics"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// Limit caps one action type per calendar hour and day. Zero means unlimited.
type Limit struct {
	MaxPerHour int `toml:"max_per_hour" json:"maxPerHour"`
	MaxPerDay  int `toml:"max_per_day" json:"maxPerDay"`
}

// RateLimits is the limiter configuration.
type RateLimits struct {
	Default   Limit
	PerAction map[domain.ActionType]Limit
}

// DefaultRateLimits returns the stock per-action caps.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		Default: Limit{MaxPerHour: 20, MaxPerDay: 100},
		PerAction: map[domain.ActionType]Limit{
			domain.ActionCreateIncident:       {MaxPerHour: 10, MaxPerDay: 40},
			domain.ActionResolveIncident:      {MaxPerHour: 15, MaxPerDay: 60},
			domain.ActionCreateMaintenance:    {MaxPerHour: 10, MaxPerDay: 40},
			domain.ActionCompleteMaintenance:  {MaxPerHour: 15, MaxPerDay: 60},
			domain.ActionCompleteQualityCheck: {MaxPerHour: 10, MaxPerDay: 40},
			domain.ActionRegisterLostItem:     {MaxPerHour: 10, MaxPerDay: 30},
			domain.ActionReturnLostItem:       {MaxPerHour: 10, MaxPerDay: 30},
			domain.ActionCreateProcedure:      {MaxPerHour: 3, MaxPerDay: 10},
			domain.ActionReadProcedure:        {MaxPerHour: 10, MaxPerDay: 30},
			domain.ActionValidateProcedure:    {MaxPerHour: 5, MaxPerDay: 20},
			domain.ActionHelpColleague:        {MaxPerHour: 5, MaxPerDay: 15},
			domain.ActionReceiveThanks:        {MaxPerHour: 5, MaxPerDay: 20},
			domain.ActionLogin:                {MaxPerHour: 5, MaxPerDay: 10},
		},
	}
}

// WithOverrides returns a copy of l with per-action limits replaced.
func (l RateLimits) WithOverrides(overrides map[domain.ActionType]Limit) RateLimits {
	cp := l
	cp.PerAction = make(map[domain.ActionType]Limit, len(l.PerAction)+len(overrides))
	for k, v := range l.PerAction {
		cp.PerAction[k] = v
	}
	for k, v := range overrides {
		cp.PerAction[k] = v
	}
	return cp
}

// For returns the limit applying to t.
func (l RateLimits) For(t domain.ActionType) Limit {
	if lim, ok := l.PerAction[t]; ok {
		return lim
	}
	return l.Default
}

// RateLimiter decides whether one more action of a type is allowed, based on
// history counts since the start of the current hour and day.
type RateLimiter struct {
	history *HistoryLog
	limits  RateLimits
	clock   Clock
	log     *logger.Logger
}

// NewRateLimiter creates a limiter backed by history.
func NewRateLimiter(history *HistoryLog, limits RateLimits, clock Clock, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.Nop()
	}
	return &RateLimiter{history: history, limits: limits, clock: clock, log: log.With("component", "ratelimit")}
}

// Limited reports whether userID has used up the hour or day allowance for t.
// A history failure allows the action.
func (r *RateLimiter) Limited(ctx context.Context, userID string, t domain.ActionType) bool {
	lim := r.limits.For(t)
	if lim.MaxPerHour <= 0 && lim.MaxPerDay <= 0 {
		return false
	}

	now := r.clock.Now()
	hour := startOfHour(now)
	entries, err := r.history.Entries(ctx, HistoryFilter{UserID: userID, Type: t, Since: startOfDay(now)})
	if err != nil {
		r.log.Warn("history unavailable, allowing action", "user_id", userID, "type", string(t), "error", err)
		metrics.LimiterFailOpen.Inc()
		return false
	}

	today := len(entries)
	thisHour := 0
	for _, e := range entries {
		if !e.Timestamp.Before(hour) {
			thisHour++
		}
	}

	if lim.MaxPerHour > 0 && thisHour >= lim.MaxPerHour {
		return true
	}
	if lim.MaxPerDay > 0 && today >= lim.MaxPerDay {
		return true
	}
	return false
}
