package scoring

import (
	"fmt"

	"github.com/hotelops/hotelscore/internal/domain"
)

// atLeast and atMost build leaf rules.
func atLeast(f domain.StatField, v float64) domain.BadgeRule {
	return domain.BadgeRule{Kind: domain.RuleStatAtLeast, Field: f, Value: v}
}

func atMost(f domain.StatField, v float64) domain.BadgeRule {
	return domain.BadgeRule{Kind: domain.RuleStatAtMost, Field: f, Value: v}
}

func allOf(rules ...domain.BadgeRule) domain.BadgeRule {
	return domain.BadgeRule{Kind: domain.RuleAllOf, Rules: rules}
}

func anyOf(rules ...domain.BadgeRule) domain.BadgeRule {
	return domain.BadgeRule{Kind: domain.RuleAnyOf, Rules: rules}
}

// EvaluateRule reports whether stats satisfy r. Unknown fields and kinds never hold.
func EvaluateRule(r domain.BadgeRule, s domain.UserStats) bool {
	switch r.Kind {
	case domain.RuleStatAtLeast:
		v, ok := s.Stat(r.Field)
		return ok && v >= r.Value
	case domain.RuleStatAtMost:
		v, ok := s.Stat(r.Field)
		return ok && v <= r.Value
	case domain.RuleAllOf:
		if len(r.Rules) == 0 {
			return false
		}
		for _, sub := range r.Rules {
			if !EvaluateRule(sub, s) {
				return false
			}
		}
		return true
	case domain.RuleAnyOf:
		for _, sub := range r.Rules {
			if EvaluateRule(sub, s) {
				return true
			}
		}
		return false
	}
	return false
}

// ValidateRule rejects rules the evaluator would silently treat as false.
func ValidateRule(r domain.BadgeRule) error {
	switch r.Kind {
	case domain.RuleStatAtLeast, domain.RuleStatAtMost:
		if _, ok := domain.NewUserStats("").Stat(r.Field); !ok {
			return fmt.Errorf("unknown stat field %q", r.Field)
		}
		return nil
	case domain.RuleAllOf, domain.RuleAnyOf:
		if len(r.Rules) == 0 {
			return fmt.Errorf("%s rule has no children", r.Kind)
		}
		for _, sub := range r.Rules {
			if err := ValidateRule(sub); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown rule kind %q", r.Kind)
}

// EvaluateBadges appends every newly satisfied badge to stats.Badges and
// returns the new ones in catalog order. Already-held badges are never
// re-emitted or removed.
func EvaluateBadges(catalog []domain.BadgeDef, stats *domain.UserStats) []domain.BadgeDef {
	var unlocked []domain.BadgeDef
	for _, def := range catalog {
		if stats.HasBadge(def.ID) {
			continue
		}
		if EvaluateRule(def.Rule, *stats) {
			stats.Badges = append(stats.Badges, def.ID)
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

// BadgeViews annotates the catalog for one user. Hidden badges are omitted
// until unlocked.
func BadgeViews(catalog []domain.BadgeDef, stats domain.UserStats) []domain.BadgeView {
	views := make([]domain.BadgeView, 0, len(catalog))
	for _, def := range catalog {
		has := stats.HasBadge(def.ID)
		if def.Hidden && !has {
			continue
		}
		views = append(views, domain.BadgeView{BadgeDef: def, Unlocked: has})
	}
	return views
}

// FindBadge looks up a catalog entry by id.
func FindBadge(catalog []domain.BadgeDef, id string) (domain.BadgeDef, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return domain.BadgeDef{}, false
}

// ─── Badge Catalog ──────────────────────────────────────────────────────────

// AllBadges returns the static badge catalog.
func AllBadges() []domain.BadgeDef {
	return []domain.BadgeDef{
		// ── Incidents ──────────────────────────────────────────────────
		{
			ID: "first_incident", Name: "Vigilant", Category: domain.CatIncidents, Icon: "🚨",
			Description: "Report your first incident",
			Rule:        atLeast(domain.StatIncidentsCreated, 1),
		},
		{
			ID: "incident_resolver_10", Name: "Problem Solver", Category: domain.CatIncidents, Icon: "🛠️",
			Description: "Resolve 10 incidents",
			Rule:        atLeast(domain.StatIncidentsResolved, 10),
		},
		{
			ID: "incident_resolver_50", Name: "Troubleshooter", Category: domain.CatIncidents, Icon: "🧰",
			Description: "Resolve 50 incidents",
			Rule:        atLeast(domain.StatIncidentsResolved, 50),
		},
		{
			ID: "crisis_manager", Name: "Crisis Manager", Category: domain.CatIncidents, Icon: "🔥",
			Description: "Resolve 5 critical incidents",
			Rule:        atLeast(domain.StatCriticalIncidentsResolved, 5),
		},
		{
			ID: "fast_resolver", Name: "Lightning Fast", Category: domain.CatIncidents, Icon: "⚡",
			Description: "Resolve 10 incidents with an average under 30 minutes",
			Rule: allOf(
				atLeast(domain.StatIncidentsResolved, 10),
				atMost(domain.StatAvgResolutionTime, 30),
			),
		},

		// ── Maintenance ────────────────────────────────────────────────
		{
			ID: "first_maintenance", Name: "Handyman", Category: domain.CatMaintenance, Icon: "🔧",
			Description: "Complete your first maintenance task",
			Rule:        atLeast(domain.StatMaintenanceCompleted, 1),
		},
		{
			ID: "maintenance_pro", Name: "Maintenance Pro", Category: domain.CatMaintenance, Icon: "🏗️",
			Description: "Complete 25 maintenance tasks",
			Rule:        atLeast(domain.StatMaintenanceCompleted, 25),
		},
		{
			ID: "ahead_of_schedule", Name: "Ahead of Schedule", Category: domain.CatMaintenance, Icon: "⏱️",
			Description: "Finish 10 maintenance tasks before their due date",
			Rule:        atLeast(domain.StatMaintenanceQuickCompleted, 10),
		},

		// ── Quality ────────────────────────────────────────────────────
		{
			ID: "first_quality_check", Name: "Inspector", Category: domain.CatQuality, Icon: "🔍",
			Description: "Complete your first quality check",
			Rule:        atLeast(domain.StatQualityChecksCompleted, 1),
		},
		{
			ID: "quality_expert", Name: "Quality Expert", Category: domain.CatQuality, Icon: "💎",
			Description: "Complete 20 quality checks averaging above 85",
			Rule: allOf(
				atLeast(domain.StatQualityChecksCompleted, 20),
				atLeast(domain.StatAvgQualityScore, 85),
			),
		},
		{
			ID: "perfectionist", Name: "Perfectionist", Category: domain.CatQuality, Icon: "🌟",
			Description: "Score above 90 on 10 quality checks",
			Rule:        atLeast(domain.StatHighQualityChecks, 10),
		},

		// ── Lost Items ─────────────────────────────────────────────────
		{
			ID: "lost_and_found", Name: "Finder", Category: domain.CatLostItems, Icon: "🧳",
			Description: "Register your first lost item",
			Rule:        atLeast(domain.StatLostItemsRegistered, 1),
		},
		{
			ID: "guest_hero", Name: "Guest Hero", Category: domain.CatLostItems, Icon: "🦸",
			Description: "Return 10 lost items to their owners",
			Rule:        atLeast(domain.StatLostItemsReturned, 10),
		},

		// ── Procedures ─────────────────────────────────────────────────
		{
			ID: "author", Name: "Author", Category: domain.CatProcedures, Icon: "✍️",
			Description: "Write your first procedure",
			Rule:        atLeast(domain.StatProceduresCreated, 1),
		},
		{
			ID: "bookworm", Name: "Bookworm", Category: domain.CatProcedures, Icon: "📚",
			Description: "Read 20 procedures",
			Rule:        atLeast(domain.StatProceduresRead, 20),
		},
		{
			ID: "reviewer", Name: "Reviewer", Category: domain.CatProcedures, Icon: "✅",
			Description: "Validate 10 procedures",
			Rule:        atLeast(domain.StatProceduresValidated, 10),
		},

		// ── Engagement ─────────────────────────────────────────────────
		{
			ID: "first_login", Name: "Welcome Aboard", Category: domain.CatEngagement, Icon: "👋",
			Description: "Log in for the first time",
			Rule:        atLeast(domain.StatTotalLogins, 1),
		},
		{
			ID: "streak_7", Name: "Week Warrior", Category: domain.CatEngagement, Icon: "📅",
			Description: "Log in 7 days in a row",
			Rule:        atLeast(domain.StatLongestStreak, 7),
		},
		{
			ID: "streak_30", Name: "Pillar of the House", Category: domain.CatEngagement, Icon: "🏛️",
			Description: "Log in 30 days in a row",
			Rule:        atLeast(domain.StatLongestStreak, 30),
		},

		// ── Team ───────────────────────────────────────────────────────
		{
			ID: "helper", Name: "Team Player", Category: domain.CatTeam, Icon: "🤝",
			Description: "Help colleagues 10 times",
			Rule:        atLeast(domain.StatHelpProvided, 10),
		},
		{
			ID: "appreciated", Name: "Appreciated", Category: domain.CatTeam, Icon: "💐",
			Description: "Receive 10 thanks from colleagues",
			Rule:        atLeast(domain.StatThanksReceived, 10),
		},
		{
			ID: "goal_getter", Name: "Goal Getter", Category: domain.CatTeam, Icon: "🎯",
			Description: "Complete 5 weekly challenges",
			Rule:        atLeast(domain.StatWeeklyGoalsCompleted, 5),
		},

		// ── Progression ────────────────────────────────────────────────
		{
			ID: "level_5", Name: "Rising Star", Category: domain.CatProgression, Icon: "⭐",
			Description: "Reach level 5",
			Rule:        atLeast(domain.StatLevel, 5),
		},
		{
			ID: "all_rounder", Name: "All-Rounder", Category: domain.CatProgression, Icon: "🧭",
			Description: "Contribute in incidents, maintenance, quality and lost items",
			Rule: allOf(
				atLeast(domain.StatIncidentsResolved, 1),
				atLeast(domain.StatMaintenanceCompleted, 1),
				atLeast(domain.StatQualityChecksCompleted, 1),
				anyOf(
					atLeast(domain.StatLostItemsRegistered, 1),
					atLeast(domain.StatLostItemsReturned, 1),
				),
			),
		},
		{
			ID: "level_10", Name: "Hotel Legend", Category: domain.CatProgression, Icon: "👑",
			Description: "Reach the top level",
			Rule:        atLeast(domain.StatLevel, 10),
			Hidden:      true,
		},
	}
}
