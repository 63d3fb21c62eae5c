package scoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/metrics"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// AllChallenges returns the weekly challenge catalog. Every challenge is
// offered every ISO week.
func AllChallenges() []domain.ChallengeDef {
	return []domain.ChallengeDef{
		{ID: "weekly_resolver", Title: "Incident Buster", Description: "Resolve 5 incidents this week", XPReward: 150, Field: domain.StatIncidentsResolved, Target: 5},
		{ID: "weekly_maintenance", Title: "Fix-It Week", Description: "Complete 5 maintenance tasks this week", XPReward: 150, Field: domain.StatMaintenanceCompleted, Target: 5},
		{ID: "weekly_quality", Title: "Eagle Eye", Description: "Complete 3 quality checks this week", XPReward: 100, Field: domain.StatQualityChecksCompleted, Target: 3},
		{ID: "weekly_lost_items", Title: "Reunited", Description: "Return 2 lost items this week", XPReward: 100, Field: domain.StatLostItemsReturned, Target: 2},
		{ID: "weekly_reader", Title: "Study Hall", Description: "Read 3 procedures this week", XPReward: 75, Field: domain.StatProceduresRead, Target: 3},
		{ID: "weekly_presence", Title: "Always There", Description: "Log in on 5 different days this week", XPReward: 100, Field: domain.StatTotalLogins, Target: 5},
		{ID: "weekly_helper", Title: "Helping Hand", Description: "Help colleagues 3 times this week", XPReward: 100, Field: domain.StatHelpProvided, Target: 3},
	}
}

// ChallengeService tracks weekly challenge progress. Progress is the growth
// of a stat since a baseline captured at the user's first action of the week.
type ChallengeService struct {
	store   domain.DocumentStore
	catalog []domain.ChallengeDef
	clock   Clock
	log     *logger.Logger
}

// NewChallengeService creates a challenge service. A nil catalog uses AllChallenges.
func NewChallengeService(store domain.DocumentStore, catalog []domain.ChallengeDef, clock Clock, log *logger.Logger) *ChallengeService {
	if catalog == nil {
		catalog = AllChallenges()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ChallengeService{store: store, catalog: catalog, clock: clock, log: log.With("component", "challenges")}
}

// Catalog returns the challenge definitions.
func (c *ChallengeService) Catalog() []domain.ChallengeDef { return c.catalog }

// Week returns the ISO week label for t.
func (c *ChallengeService) Week(t time.Time) string { return isoWeek(c.clock.In(t)) }

func baselineKey(userID, week string) string {
	return "challenge_baselines/" + userID + "/" + week
}

func claimsKey(userID, week string) string {
	return "challenge_claims/" + userID + "/" + week
}

// Baseline returns the user's start-of-week snapshot, storing current as
// the baseline when none exists yet.
func (c *ChallengeService) Baseline(ctx context.Context, userID, week string, current domain.UserStats) (domain.UserStats, error) {
	key := baselineKey(userID, week)
	doc, found, err := c.store.GetDocument(ctx, key)
	if err != nil {
		return current, fmt.Errorf("read baseline: %w", err)
	}
	if found {
		return decodeStats(userID, doc)
	}

	doc, err = toDocument(current)
	if err != nil {
		return current, err
	}
	if err := c.store.SetDocument(ctx, key, doc, false); err != nil {
		return current, fmt.Errorf("write baseline: %w", err)
	}
	return current, nil
}

// Claims returns the ids of challenges already rewarded this week.
func (c *ChallengeService) Claims(ctx context.Context, userID, week string) (map[string]bool, error) {
	doc, found, err := c.store.GetDocument(ctx, claimsKey(userID, week))
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}
	claimed := make(map[string]bool)
	if !found {
		return claimed, nil
	}
	var rec struct {
		Claimed []string `json:"claimed"`
	}
	if err := fromDocument(doc, &rec); err != nil {
		return nil, err
	}
	for _, id := range rec.Claimed {
		claimed[id] = true
	}
	return claimed, nil
}

// Claim marks challengeID rewarded for the week. ok is false when it was
// already claimed.
func (c *ChallengeService) Claim(ctx context.Context, userID, week, challengeID string) (ok bool, err error) {
	claimed, err := c.Claims(ctx, userID, week)
	if err != nil {
		return false, err
	}
	if claimed[challengeID] {
		return false, nil
	}
	claimed[challengeID] = true
	if err := c.writeClaims(ctx, userID, week, claimed); err != nil {
		return false, err
	}
	return true, nil
}

// Release drops a claim whose reward could not be applied, so the next
// completion can retry it.
func (c *ChallengeService) Release(ctx context.Context, userID, week, challengeID string) error {
	claimed, err := c.Claims(ctx, userID, week)
	if err != nil {
		return err
	}
	if !claimed[challengeID] {
		return nil
	}
	delete(claimed, challengeID)
	return c.writeClaims(ctx, userID, week, claimed)
}

func (c *ChallengeService) writeClaims(ctx context.Context, userID, week string, claimed map[string]bool) error {
	ids := make([]string, 0, len(claimed))
	for id := range claimed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	doc := domain.Document{"userId": userID, "week": week, "claimed": ids}
	if err := c.store.SetDocument(ctx, claimsKey(userID, week), doc, false); err != nil {
		return fmt.Errorf("write claims: %w", err)
	}
	return nil
}

// Progress evaluates every challenge for stats against baseline.
func (c *ChallengeService) Progress(baseline, stats domain.UserStats, week string, now time.Time, claimed map[string]bool) []domain.Challenge {
	start := startOfWeek(c.clock.In(now))
	end := start.AddDate(0, 0, 7)
	out := make([]domain.Challenge, 0, len(c.catalog))
	for _, def := range c.catalog {
		current := weeklyDelta(def.Field, baseline, stats)
		ch := domain.Challenge{
			ChallengeDef: def,
			Week:         week,
			StartsAt:     start,
			EndsAt:       end,
			Current:      current,
			Completed:    current >= def.Target,
			Claimed:      claimed[def.ID],
		}
		if def.Target > 0 {
			ch.Progress = clampPct(current * 100 / def.Target)
		} else {
			ch.Progress = 100
		}
		out = append(out, ch)
	}
	return out
}

// Flipped returns the challenges incomplete at before and complete at after.
func (c *ChallengeService) Flipped(baseline, before, after domain.UserStats) []domain.ChallengeDef {
	var flipped []domain.ChallengeDef
	for _, def := range c.catalog {
		was := weeklyDelta(def.Field, baseline, before) >= def.Target
		is := weeklyDelta(def.Field, baseline, after) >= def.Target
		if !was && is {
			flipped = append(flipped, def)
		}
	}
	return flipped
}

func weeklyDelta(f domain.StatField, baseline, stats domain.UserStats) float64 {
	from, _ := baseline.Stat(f)
	to, _ := stats.Stat(f)
	if to < from {
		return 0
	}
	return to - from
}

// Weekly returns the user's challenges for the current week without
// capturing a baseline.
func (c *ChallengeService) Weekly(ctx context.Context, userID string, stats domain.UserStats) ([]domain.Challenge, error) {
	now := c.clock.Now()
	week := isoWeek(now)

	baseline := stats
	doc, found, err := c.store.GetDocument(ctx, baselineKey(userID, week))
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	if found {
		if baseline, err = decodeStats(userID, doc); err != nil {
			return nil, err
		}
	}
	claimed, err := c.Claims(ctx, userID, week)
	if err != nil {
		return nil, err
	}
	return c.Progress(baseline, stats, week, now, claimed), nil
}

// ─── Rewarder ───────────────────────────────────────────────────────────────

// ChallengeRewarder consumes ChallengeCompleted events and grants the
// challenge reward once per user, challenge and week.
type ChallengeRewarder struct {
	challenges *ChallengeService
	updater    *Updater
	log        *logger.Logger
}

// NewChallengeRewarder creates a rewarder.
func NewChallengeRewarder(challenges *ChallengeService, updater *Updater, log *logger.Logger) *ChallengeRewarder {
	if log == nil {
		log = logger.Nop()
	}
	return &ChallengeRewarder{challenges: challenges, updater: updater, log: log.With("component", "rewarder")}
}

// Handle grants the reward for ev. granted is false when the challenge was
// already claimed this week or the claim could not be recorded. A claim whose
// reward was not applied is released again.
func (r *ChallengeRewarder) Handle(ctx context.Context, sess domain.Session, ev domain.ChallengeCompleted) (Result, bool) {
	ok, err := r.challenges.Claim(ctx, ev.UserID, ev.Week, ev.Challenge.ID)
	if err != nil {
		r.log.Error("claim challenge", "user_id", ev.UserID, "challenge", ev.Challenge.ID, "error", err)
		metrics.PersistenceFailures.WithLabelValues("challenge_claim").Inc()
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}

	res := r.updater.grant(ctx, sess, ev.UserID, domain.Action{
		Type:        domain.ActionCompleteWeeklyGoal,
		ChallengeID: ev.Challenge.ID,
		XPReward:    ev.Challenge.XPReward,
	})
	if !res.Applied {
		if err := r.challenges.Release(ctx, ev.UserID, ev.Week, ev.Challenge.ID); err != nil {
			r.log.Error("release challenge claim", "user_id", ev.UserID, "challenge", ev.Challenge.ID, "error", err)
			metrics.PersistenceFailures.WithLabelValues("challenge_claim").Inc()
		}
		return res, false
	}
	metrics.ChallengesCompleted.WithLabelValues(ev.Challenge.ID).Inc()
	r.log.Info("challenge rewarded", "user_id", ev.UserID, "challenge", ev.Challenge.ID, "xp", res.XPGained)
	return res, true
}
