// Package domain holds the pure types of the hotelscore scoring engine.
// The engine turns back-office actions (incidents, maintenance, quality checks,
// lost items, procedures, logins) into XP, levels, badges, streaks and ranks.
package domain

import "time"

// ─── Actions ────────────────────────────────────────────────────────────────

// ActionType is the closed set of user actions the engine scores.
type ActionType string

const (
	ActionCreateIncident       ActionType = "CREATE_INCIDENT"
	ActionResolveIncident      ActionType = "RESOLVE_INCIDENT"
	ActionCreateMaintenance    ActionType = "CREATE_MAINTENANCE"
	ActionCompleteMaintenance  ActionType = "COMPLETE_MAINTENANCE"
	ActionCompleteQualityCheck ActionType = "COMPLETE_QUALITY_CHECK"
	ActionRegisterLostItem     ActionType = "REGISTER_LOST_ITEM"
	ActionReturnLostItem       ActionType = "RETURN_LOST_ITEM"
	ActionCreateProcedure      ActionType = "CREATE_PROCEDURE"
	ActionReadProcedure        ActionType = "READ_PROCEDURE"
	ActionValidateProcedure    ActionType = "VALIDATE_PROCEDURE"
	ActionLogin                ActionType = "LOGIN"
	ActionHelpColleague        ActionType = "HELP_COLLEAGUE"
	ActionReceiveThanks        ActionType = "RECEIVE_THANKS"
	ActionCompleteWeeklyGoal   ActionType = "COMPLETE_WEEKLY_GOAL"
)

// AllActionTypes lists every known action type in a stable order.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionCreateIncident, ActionResolveIncident,
		ActionCreateMaintenance, ActionCompleteMaintenance,
		ActionCompleteQualityCheck,
		ActionRegisterLostItem, ActionReturnLostItem,
		ActionCreateProcedure, ActionReadProcedure, ActionValidateProcedure,
		ActionLogin, ActionHelpColleague, ActionReceiveThanks,
		ActionCompleteWeeklyGoal,
	}
}

// Known reports whether t belongs to the closed action enum.
func (t ActionType) Known() bool {
	for _, k := range AllActionTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// SeverityCritical marks an incident whose resolution earns the critical multiplier.
const SeverityCritical = "critical"

// Action is one scored occurrence. Only the fields relevant to Type are read.
type Action struct {
	Type           ActionType `json:"type"`
	Severity       string     `json:"severity,omitempty"`
	ResolutionTime float64    `json:"resolutionTime,omitempty"` // minutes
	Score          float64    `json:"score,omitempty"`          // quality score, 0-100
	BeforeSchedule bool       `json:"beforeSchedule,omitempty"`
	RefID          string     `json:"refId,omitempty"` // business record that triggered the action

	// Set by the challenge rewarder on COMPLETE_WEEKLY_GOAL.
	ChallengeID string `json:"challengeId,omitempty"`
	XPReward    int64  `json:"xpReward,omitempty"`
}

// Session carries the authenticated identity into every engine call.
type Session struct {
	UserID string `json:"userId"`
}

// Owns reports whether the session may read or mutate userID's stats.
func (s Session) Owns(userID string) bool {
	return s.UserID != "" && s.UserID == userID
}

// ─── User Stats ─────────────────────────────────────────────────────────────

// UserStats is the per-user scoring record. Created lazily, mutated only by
// the stats updater. Level is always LevelForXP(XP); Badges only grows.
type UserStats struct {
	UserID string   `json:"userId"`
	XP     int64    `json:"xp"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`

	IncidentsCreated          int64   `json:"incidentsCreated"`
	IncidentsResolved         int64   `json:"incidentsResolved"`
	CriticalIncidentsResolved int64   `json:"criticalIncidentsResolved"`
	AvgResolutionTime         float64 `json:"avgResolutionTime"`

	MaintenanceCreated        int64 `json:"maintenanceCreated"`
	MaintenanceCompleted      int64 `json:"maintenanceCompleted"`
	MaintenanceQuickCompleted int64 `json:"maintenanceQuickCompleted"`

	QualityChecksCompleted int64   `json:"qualityChecksCompleted"`
	AvgQualityScore        float64 `json:"avgQualityScore"`
	HighQualityChecks      int64   `json:"highQualityChecks"`

	LostItemsRegistered int64 `json:"lostItemsRegistered"`
	LostItemsReturned   int64 `json:"lostItemsReturned"`

	ProceduresCreated   int64 `json:"proceduresCreated"`
	ProceduresRead      int64 `json:"proceduresRead"`
	ProceduresValidated int64 `json:"proceduresValidated"`

	TotalLogins       int64      `json:"totalLogins"`
	ConsecutiveLogins int64      `json:"consecutiveLogins"`
	CurrentStreak     int64      `json:"currentStreak"`
	LongestStreak     int64      `json:"longestStreak"`
	LastLoginDate     *time.Time `json:"lastLoginDate,omitempty"`

	WeeklyGoalsCompleted int64 `json:"weeklyGoalsCompleted"`
	ThanksReceived       int64 `json:"thanksReceived"`
	HelpProvided         int64 `json:"helpProvided"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// NewUserStats returns the zeroed record a user starts with.
func NewUserStats(userID string) UserStats {
	return UserStats{UserID: userID, Level: 1, Badges: []string{}}
}

// HasBadge reports whether id is already unlocked.
func (s UserStats) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with s.
func (s UserStats) Clone() UserStats {
	cp := s
	cp.Badges = append([]string{}, s.Badges...)
	if s.LastLoginDate != nil {
		t := *s.LastLoginDate
		cp.LastLoginDate = &t
	}
	return cp
}

// StatField names a numeric UserStats field usable in badge and challenge rules.
type StatField string

const (
	StatXP                        StatField = "xp"
	StatLevel                     StatField = "level"
	StatBadgeCount                StatField = "badgeCount"
	StatIncidentsCreated          StatField = "incidentsCreated"
	StatIncidentsResolved         StatField = "incidentsResolved"
	StatCriticalIncidentsResolved StatField = "criticalIncidentsResolved"
	StatAvgResolutionTime         StatField = "avgResolutionTime"
	StatMaintenanceCreated        StatField = "maintenanceCreated"
	StatMaintenanceCompleted      StatField = "maintenanceCompleted"
	StatMaintenanceQuickCompleted StatField = "maintenanceQuickCompleted"
	StatQualityChecksCompleted    StatField = "qualityChecksCompleted"
	StatAvgQualityScore           StatField = "avgQualityScore"
	StatHighQualityChecks         StatField = "highQualityChecks"
	StatLostItemsRegistered       StatField = "lostItemsRegistered"
	StatLostItemsReturned         StatField = "lostItemsReturned"
	StatProceduresCreated         StatField = "proceduresCreated"
	StatProceduresRead            StatField = "proceduresRead"
	StatProceduresValidated       StatField = "proceduresValidated"
	StatTotalLogins               StatField = "totalLogins"
	StatConsecutiveLogins         StatField = "consecutiveLogins"
	StatCurrentStreak             StatField = "currentStreak"
	StatLongestStreak             StatField = "longestStreak"
	StatWeeklyGoalsCompleted      StatField = "weeklyGoalsCompleted"
	StatThanksReceived            StatField = "thanksReceived"
	StatHelpProvided              StatField = "helpProvided"
)

// Stat returns the value of a named field. ok is false for unknown names.
func (s UserStats) Stat(f StatField) (v float64, ok bool) {
	switch f {
	case StatXP:
		return float64(s.XP), true
	case StatLevel:
		return float64(s.Level), true
	case StatBadgeCount:
		return float64(len(s.Badges)), true
	case StatIncidentsCreated:
		return float64(s.IncidentsCreated), true
	case StatIncidentsResolved:
		return float64(s.IncidentsResolved), true
	case StatCriticalIncidentsResolved:
		return float64(s.CriticalIncidentsResolved), true
	case StatAvgResolutionTime:
		return s.AvgResolutionTime, true
	case StatMaintenanceCreated:
		return float64(s.MaintenanceCreated), true
	case StatMaintenanceCompleted:
		return float64(s.MaintenanceCompleted), true
	case StatMaintenanceQuickCompleted:
		return float64(s.MaintenanceQuickCompleted), true
	case StatQualityChecksCompleted:
		return float64(s.QualityChecksCompleted), true
	case StatAvgQualityScore:
		return s.AvgQualityScore, true
	case StatHighQualityChecks:
		return float64(s.HighQualityChecks), true
	case StatLostItemsRegistered:
		return float64(s.LostItemsRegistered), true
	case StatLostItemsReturned:
		return float64(s.LostItemsReturned), true
	case StatProceduresCreated:
		return float64(s.ProceduresCreated), true
	case StatProceduresRead:
		return float64(s.ProceduresRead), true
	case StatProceduresValidated:
		return float64(s.ProceduresValidated), true
	case StatTotalLogins:
		return float64(s.TotalLogins), true
	case StatConsecutiveLogins:
		return float64(s.ConsecutiveLogins), true
	case StatCurrentStreak:
		return float64(s.CurrentStreak), true
	case StatLongestStreak:
		return float64(s.LongestStreak), true
	case StatWeeklyGoalsCompleted:
		return float64(s.WeeklyGoalsCompleted), true
	case StatThanksReceived:
		return float64(s.ThanksReceived), true
	case StatHelpProvided:
		return float64(s.HelpProvided), true
	}
	return 0, false
}

// ─── History ────────────────────────────────────────────────────────────────

// HistoryEntry is one immutable row of the action history log.
type HistoryEntry struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	ActionType ActionType `json:"actionType"`
	Action     Action     `json:"action"`
	XPGained   int64      `json:"xpGained"`
	Level      int        `json:"level"`
	NewBadges  []string   `json:"newBadges"`
	TotalXP    int64      `json:"totalXp"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ─── Levels & Ranks ─────────────────────────────────────────────────────────

// OpenEnded marks the MaxXP / Max of the top band or tier.
const OpenEnded int64 = -1

// LevelBand maps an inclusive XP range to one level.
type LevelBand struct {
	Level int   `json:"level"`
	MinXP int64 `json:"minXp"`
	MaxXP int64 `json:"maxXp"` // OpenEnded for the top band
}

// Contains reports whether xp falls inside the band.
func (b LevelBand) Contains(xp int64) bool {
	return xp >= b.MinXP && (b.MaxXP == OpenEnded || xp <= b.MaxXP)
}

// LevelInfo is the level calculator's output.
type LevelInfo struct {
	Level    int       `json:"level"`
	XP       int64     `json:"xp"`
	Progress float64   `json:"progress"` // 0-100 within the band
	XPToNext int64     `json:"xpToNext"` // 0 at the top band
	Band     LevelBand `json:"band"`
}

// RankTier is one rung of the rank ladder, inclusive on both ends.
type RankTier struct {
	Name string `json:"name"`
	Min  int64  `json:"min"`
	Max  int64  `json:"max"` // OpenEnded for the top tier
}

// MaxRank is reported as NextRank once the top tier is reached.
const MaxRank = "Max"

// RankInfo is the rank calculator's output.
type RankInfo struct {
	Rank         string  `json:"rank"`
	Points       int64   `json:"points"`
	NextRank     string  `json:"nextRank"`
	PointsNeeded int64   `json:"pointsNeeded"`
	Progress     float64 `json:"progress"`
}

// ─── Badges ─────────────────────────────────────────────────────────────────

// BadgeCategory groups badges by business area.
type BadgeCategory string

const (
	CatIncidents   BadgeCategory = "incidents"
	CatMaintenance BadgeCategory = "maintenance"
	CatQuality     BadgeCategory = "quality"
	CatLostItems   BadgeCategory = "lost_items"
	CatProcedures  BadgeCategory = "procedures"
	CatEngagement  BadgeCategory = "engagement"
	CatTeam        BadgeCategory = "team"
	CatProgression BadgeCategory = "progression"
)

// BadgeRuleKind tags the variant of a BadgeRule.
type BadgeRuleKind string

const (
	RuleStatAtLeast BadgeRuleKind = "stat_at_least"
	RuleStatAtMost  BadgeRuleKind = "stat_at_most"
	RuleAllOf       BadgeRuleKind = "all_of"
	RuleAnyOf       BadgeRuleKind = "any_of"
)

// BadgeRule is a declarative condition over UserStats.
// Leaf kinds use Field and Value; composite kinds use Rules.
type BadgeRule struct {
	Kind  BadgeRuleKind `json:"kind"`
	Field StatField     `json:"field,omitempty"`
	Value float64       `json:"value,omitempty"`
	Rules []BadgeRule   `json:"rules,omitempty"`
}

// BadgeDef is one entry of the static badge catalog.
type BadgeDef struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Category    BadgeCategory `json:"category"`
	Rule        BadgeRule     `json:"rule"`
	Hidden      bool          `json:"hidden,omitempty"`
}

// BadgeView is a catalog entry annotated for one user.
type BadgeView struct {
	BadgeDef
	Unlocked bool `json:"unlocked"`
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeDef is a weekly challenge template. Progress is measured as the
// growth of Field since the start of the ISO week.
type ChallengeDef struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	XPReward    int64     `json:"xpReward"`
	Field       StatField `json:"field"`
	Target      float64   `json:"target"`
}

// Challenge is a ChallengeDef bound to one user and one week.
type Challenge struct {
	ChallengeDef
	Week      string    `json:"week"` // "2025-W28"
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Current   float64   `json:"current"`
	Progress  float64   `json:"progress"` // 0-100
	Completed bool      `json:"completed"`
	Claimed   bool      `json:"claimed"`
}

// ChallengeCompleted is emitted when a challenge flips from incomplete to complete.
type ChallengeCompleted struct {
	UserID    string       `json:"userId"`
	Week      string       `json:"week"`
	Challenge ChallengeDef `json:"challenge"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes UI notifications.
type NotificationType string

const (
	NotifyBadge     NotificationType = "badge_unlocked"
	NotifyXP        NotificationType = "xp_gained"
	NotifyLevelUp   NotificationType = "level_up"
	NotifyChallenge NotificationType = "challenge_completed"
)

// Notification is a user-facing message handed to the UI sink.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	BadgeID   string           `json:"badgeId,omitempty"`
	XP        int64            `json:"xp,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Shown     bool             `json:"shown"`
}
