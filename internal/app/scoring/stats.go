package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/metrics"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// Result is the outcome of one Update call.
type Result struct {
	Stats     domain.UserStats  `json:"stats"`
	Previous  domain.UserStats  `json:"-"`
	XPGained  int64             `json:"xpGained"`
	NewBadges []domain.BadgeDef `json:"newBadges"`
	Limited   bool              `json:"limited"`
	LevelUp   bool              `json:"levelUp"`

	// Applied is true when the action changed and persisted stats.
	Applied bool `json:"applied"`
}

// Options configures an Updater. Zero values take defaults.
type Options struct {
	XP     *XPTable
	Limits *RateLimits
	Badges []domain.BadgeDef
	Clock  Clock
	Logger *logger.Logger
}

// Updater is the sole writer of UserStats. It applies one action per call:
// rate limit, XP, counters, streak, level, badges, then best-effort persistence.
type Updater struct {
	store   domain.DocumentStore
	history *HistoryLog
	limiter *RateLimiter
	xp      XPTable
	badges  []domain.BadgeDef
	clock   Clock
	log     *logger.Logger
}

// NewUpdater wires an updater over store.
func NewUpdater(store domain.DocumentStore, opts Options) *Updater {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	xp := DefaultXPTable()
	if opts.XP != nil {
		xp = *opts.XP
	}
	limits := DefaultRateLimits()
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	badges := opts.Badges
	if badges == nil {
		badges = AllBadges()
	}
	history := NewHistoryLog(store)
	return &Updater{
		store:   store,
		history: history,
		limiter: NewRateLimiter(history, limits, opts.Clock, log),
		xp:      xp,
		badges:  badges,
		clock:   opts.Clock,
		log:     log.With("component", "scoring"),
	}
}

// History exposes the updater's history log.
func (u *Updater) History() *HistoryLog { return u.history }

// Badges returns the badge catalog in use.
func (u *Updater) Badges() []domain.BadgeDef { return u.badges }

// Clock returns the updater's clock.
func (u *Updater) Clock() Clock { return u.clock }

// LoadStats reads userID's stats. A missing record yields fresh defaults.
// A session that does not own userID gets defaults and ErrAuthMismatch.
func (u *Updater) LoadStats(ctx context.Context, sess domain.Session, userID string) (domain.UserStats, error) {
	if !sess.Owns(userID) {
		return domain.NewUserStats(userID), domain.ErrAuthMismatch
	}
	return u.load(ctx, userID)
}

func (u *Updater) load(ctx context.Context, userID string) (domain.UserStats, error) {
	doc, found, err := u.store.GetDocument(ctx, statsKey(userID))
	if err != nil {
		return domain.NewUserStats(userID), fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !found {
		return domain.NewUserStats(userID), nil
	}
	return decodeStats(userID, doc)
}

// Update applies a user-initiated action to userID's stats. It never fails:
// every problem is logged and folded into a zero-XP Result.
// COMPLETE_WEEKLY_GOAL is reserved for challenge rewards and earns nothing here.
func (u *Updater) Update(ctx context.Context, sess domain.Session, userID string, action domain.Action) Result {
	return u.update(ctx, sess, userID, action, false)
}

// grant applies a challenge reward. Rewards skip the rate limiter.
func (u *Updater) grant(ctx context.Context, sess domain.Session, userID string, action domain.Action) Result {
	return u.update(ctx, sess, userID, action, true)
}

// actionLabel bounds the metric label set to the known action types.
func actionLabel(t domain.ActionType) string {
	if !t.Known() {
		return "other"
	}
	return string(t)
}

func (u *Updater) update(ctx context.Context, sess domain.Session, userID string, action domain.Action, reward bool) Result {
	typ := string(action.Type)
	label := actionLabel(action.Type)
	if !sess.Owns(userID) {
		u.log.Warn("session does not own stats", "user_id", userID, "type", typ, "error", domain.ErrAuthMismatch)
		metrics.ActionsTotal.WithLabelValues(label, metrics.OutcomeUnauthorized).Inc()
		return Result{Stats: domain.NewUserStats(userID), Previous: domain.NewUserStats(userID)}
	}

	stats, err := u.load(ctx, userID)
	if err != nil {
		u.log.Error("read stats", "user_id", userID, "error", err)
		metrics.PersistenceFailures.WithLabelValues("stats_read").Inc()
		metrics.ActionsTotal.WithLabelValues(label, metrics.OutcomeReadFailed).Inc()
		return Result{Stats: domain.NewUserStats(userID), Previous: domain.NewUserStats(userID)}
	}
	prev := stats.Clone()
	res := Result{Stats: stats, Previous: prev}

	if !action.Type.Known() {
		u.log.Debug("unknown action type", "user_id", userID, "type", typ, "error", domain.ErrUnknownAction)
		metrics.ActionsTotal.WithLabelValues(label, metrics.OutcomeUnknown).Inc()
		next := stats.Clone()
		next.Level = LevelForXP(next.XP).Level
		EvaluateBadges(u.badges, &next)
		res.Stats = next
		return res
	}

	if action.Type == domain.ActionCompleteWeeklyGoal && !reward {
		u.log.Warn("weekly goal is granted by challenges only", "user_id", userID)
		metrics.ActionsTotal.WithLabelValues(typ, metrics.OutcomeReserved).Inc()
		return res
	}

	if !reward && u.limiter.Limited(ctx, userID, action.Type) {
		u.log.Info("action rate limited", "user_id", userID, "type", typ)
		metrics.RateLimited.WithLabelValues(typ).Inc()
		metrics.ActionsTotal.WithLabelValues(typ, metrics.OutcomeLimited).Inc()
		res.Limited = true
		return res
	}

	now := u.clock.Now()
	next := stats.Clone()
	gained, counted := u.apply(ctx, &next, action, now)
	if !counted {
		metrics.ActionsTotal.WithLabelValues(typ, metrics.OutcomeDuplicate).Inc()
		return res
	}

	next.XP += gained
	next.Level = LevelForXP(next.XP).Level
	next.LastUpdated = now
	newBadges := EvaluateBadges(u.badges, &next)

	res.Stats = next
	res.XPGained = gained
	res.NewBadges = newBadges
	res.LevelUp = next.Level > prev.Level
	res.Applied = true

	u.persist(ctx, next, action, gained, newBadges, now)

	metrics.ActionsTotal.WithLabelValues(typ, metrics.OutcomeApplied).Inc()
	if gained > 0 {
		metrics.XPAwarded.WithLabelValues(typ).Add(float64(gained))
	}
	for _, b := range newBadges {
		metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
	}
	return res
}

// apply mutates stats for one known action and returns the XP earned.
// counted is false only for a duplicate login.
func (u *Updater) apply(ctx context.Context, s *domain.UserStats, a domain.Action, now time.Time) (gained int64, counted bool) {
	base := u.xp.base(a.Type)
	switch a.Type {
	case domain.ActionCreateIncident:
		s.IncidentsCreated++
		return base, true

	case domain.ActionResolveIncident:
		s.IncidentsResolved++
		s.AvgResolutionTime = runningAvg(s.AvgResolutionTime, s.IncidentsResolved, a.ResolutionTime)
		if a.Severity == domain.SeverityCritical {
			s.CriticalIncidentsResolved++
			return int64(math.Round(float64(base) * u.xp.CriticalMultiplier)), true
		}
		return base, true

	case domain.ActionCreateMaintenance:
		s.MaintenanceCreated++
		return base, true

	case domain.ActionCompleteMaintenance:
		s.MaintenanceCompleted++
		if a.BeforeSchedule {
			s.MaintenanceQuickCompleted++
			return base + u.xp.QuickMaintenance, true
		}
		return base, true

	case domain.ActionCompleteQualityCheck:
		s.QualityChecksCompleted++
		s.AvgQualityScore = runningAvg(s.AvgQualityScore, s.QualityChecksCompleted, a.Score)
		if a.Score > u.xp.HighQualityThreshold {
			s.HighQualityChecks++
			return base + u.xp.HighQuality, true
		}
		return base, true

	case domain.ActionRegisterLostItem:
		s.LostItemsRegistered++
		return base, true

	case domain.ActionReturnLostItem:
		s.LostItemsReturned++
		return base, true

	case domain.ActionCreateProcedure:
		s.ProceduresCreated++
		return base, true

	case domain.ActionReadProcedure:
		s.ProceduresRead++
		return base, true

	case domain.ActionValidateProcedure:
		s.ProceduresValidated++
		return base, true

	case domain.ActionLogin:
		return u.applyLogin(ctx, s, now)

	case domain.ActionHelpColleague:
		s.HelpProvided++
		return base, true

	case domain.ActionReceiveThanks:
		s.ThanksReceived++
		return base, true

	case domain.ActionCompleteWeeklyGoal:
		s.WeeklyGoalsCompleted++
		if a.XPReward > 0 {
			return a.XPReward, true
		}
		return base, true
	}
	return 0, true
}

// persist writes stats and appends the history entry. Failures are logged only.
func (u *Updater) persist(ctx context.Context, s domain.UserStats, a domain.Action, gained int64, badges []domain.BadgeDef, now time.Time) {
	doc, err := toDocument(s)
	if err == nil {
		err = u.store.SetDocument(ctx, statsKey(s.UserID), doc, true)
	}
	if err != nil {
		u.log.Error("write stats", "user_id", s.UserID, "error", err)
		metrics.PersistenceFailures.WithLabelValues("stats_write").Inc()
	}

	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	_, err = u.history.Append(ctx, domain.HistoryEntry{
		UserID:     s.UserID,
		ActionType: a.Type,
		Action:     a,
		XPGained:   gained,
		Level:      s.Level,
		NewBadges:  ids,
		TotalXP:    s.XP,
		Timestamp:  now,
	})
	if err != nil {
		u.log.Error("append history", "user_id", s.UserID, "type", string(a.Type), "error", err)
		metrics.PersistenceFailures.WithLabelValues("history_append").Inc()
	}
}

// runningAvg folds v into an average over n samples, n counted after the increment.
func runningAvg(avg float64, n int64, v float64) float64 {
	if n <= 0 {
		return 0
	}
	return (avg*float64(n-1) + v) / float64(n)
}
