package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Dispatcher Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestDispatch_FirstLogin(t *testing.T) {
	clk := newFakeClock(monday)
	rec := &recordingNotifier{}
	e := newEngine(t, testDB(t), clk, rec)

	out := e.Dispatcher.Dispatch(context.Background(), session("alice"), domain.Action{Type: domain.ActionLogin})
	if out.XPGained != 5 || out.Limited {
		t.Fatalf("result = %+v", out)
	}
	if !hasBadge(out.NewBadges, "first_login") {
		t.Error("expected first_login badge")
	}

	snap := out.Snapshot
	if snap.Stats.XP != 5 || snap.Level.Level != 1 || snap.Rank.Rank != "Bronze" {
		t.Errorf("snapshot = %+v", snap)
	}
	// 5 XP + one badge.
	if snap.Rank.Points != 105 {
		t.Errorf("rank points = %d, want 105", snap.Rank.Points)
	}
	if len(snap.Recent) != 1 || snap.Recent[0].ActionType != domain.ActionLogin {
		t.Errorf("recent history = %+v", snap.Recent)
	}
	if len(snap.Challenges) != len(scoring.AllChallenges()) {
		t.Errorf("challenges = %d, want %d", len(snap.Challenges), len(scoring.AllChallenges()))
	}

	if n := rec.byType(domain.NotifyBadge); len(n) != 1 || n[0].BadgeID != "first_login" {
		t.Errorf("badge notifications = %+v", n)
	}
	if n := rec.byType(domain.NotifyXP); len(n) != 1 || n[0].XP != 5 || n[0].UserID != "alice" || n[0].ID == "" {
		t.Errorf("xp notifications = %+v", n)
	}
	if n := rec.byType(domain.NotifyLevelUp); len(n) != 0 {
		t.Errorf("unexpected level-up: %+v", n)
	}
}

func TestDispatch_NoNotificationsForZeroXP(t *testing.T) {
	clk := newFakeClock(monday)
	rec := &recordingNotifier{}
	e := newEngine(t, testDB(t), clk, rec)
	ctx := context.Background()

	e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionLogin})
	before := len(rec.byType(domain.NotifyXP))

	clk.Advance(time.Hour)
	out := e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionLogin})
	if out.XPGained != 0 {
		t.Fatalf("duplicate login scored: %+v", out)
	}
	if after := len(rec.byType(domain.NotifyXP)); after != before {
		t.Error("zero-XP dispatch sent an XP notification")
	}
	if out.Snapshot.Stats.TotalLogins != 1 {
		t.Errorf("snapshot stats = %+v", out.Snapshot.Stats)
	}
}

func TestDispatch_LevelUpNotification(t *testing.T) {
	clk := newFakeClock(monday)
	rec := &recordingNotifier{}
	e := newEngine(t, testDB(t), clk, rec)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionCreateProcedure})
		clk.Advance(time.Hour)
	}
	if n := rec.byType(domain.NotifyLevelUp); len(n) != 1 {
		t.Errorf("level-up notifications = %d, want 1", len(n))
	}
}

func TestDispatch_NoSession(t *testing.T) {
	clk := newFakeClock(monday)
	rec := &recordingNotifier{}
	e := newEngine(t, testDB(t), clk, rec)

	out := e.Dispatcher.Dispatch(context.Background(), domain.Session{}, domain.Action{Type: domain.ActionLogin})
	if out.XPGained != 0 || out.Snapshot.Stats.XP != 0 {
		t.Errorf("anonymous dispatch scored: %+v", out)
	}
	if len(rec.notes) != 0 {
		t.Error("anonymous dispatch notified")
	}
}

type panickyNotifier struct{}

func (panickyNotifier) Notify(context.Context, domain.Notification) error { panic("sink exploded") }

func TestDispatch_RecoversFromPanic(t *testing.T) {
	clk := newFakeClock(monday)
	e := newEngine(t, testDB(t), clk, panickyNotifier{})

	out := e.Dispatcher.Dispatch(context.Background(), session("u"), domain.Action{Type: domain.ActionLogin})
	if out.Snapshot.Level.Level != 1 {
		t.Errorf("expected a default snapshot, got %+v", out.Snapshot)
	}
}

func TestDispatch_StoreDownStillAnswers(t *testing.T) {
	db := testDB(t)
	store := &flakyStore{DocumentStore: db, failSet: true, failAppend: true, failQuery: true}
	clk := newFakeClock(monday)
	e := newEngine(t, store, clk)

	out := e.Dispatcher.Dispatch(context.Background(), session("u"), domain.Action{Type: domain.ActionHelpColleague})
	if out.XPGained != 15 {
		t.Errorf("XPGained = %d, want 15", out.XPGained)
	}
	if out.Snapshot.Stats.HelpProvided != 1 {
		t.Errorf("snapshot should carry in-memory stats, got %+v", out.Snapshot.Stats)
	}
}

func TestSnapshot_ReadModel(t *testing.T) {
	clk := newFakeClock(monday)
	e := newEngine(t, testDB(t), clk)
	ctx := context.Background()

	e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionReturnLostItem})
	snap, err := e.Dispatcher.Snapshot(ctx, session("u"))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Stats.LostItemsReturned != 1 || snap.Stats.XP != 20 {
		t.Errorf("snapshot stats = %+v", snap.Stats)
	}
	for _, c := range snap.Challenges {
		if c.ID == "weekly_lost_items" && c.Progress != 50 {
			t.Errorf("lost item challenge progress = %.0f, want 50", c.Progress)
		}
	}

	// Fresh user: defaults, no error.
	snap, err = e.Dispatcher.Snapshot(ctx, session("nobody"))
	if err != nil || snap.Stats.XP != 0 || snap.Level.Level != 1 {
		t.Errorf("fresh snapshot = %+v, %v", snap, err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Weekly Challenge Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestChallenge_RewardedOncePerWeek(t *testing.T) {
	clk := newFakeClock(monday)
	rec := &recordingNotifier{}
	e := newEngine(t, testDB(t), clk, rec)
	ctx := context.Background()
	resolve := domain.Action{Type: domain.ActionResolveIncident, ResolutionTime: 20}

	var out scoring.DispatchResult
	for i := 0; i < 5; i++ {
		out = e.Dispatcher.Dispatch(ctx, session("u"), resolve)
		clk.Advance(10 * time.Minute)
	}
	if len(out.CompletedChallenges) != 1 || out.CompletedChallenges[0].ID != "weekly_resolver" {
		t.Fatalf("completed = %+v", out.CompletedChallenges)
	}
	if out.BonusXP != 150 {
		t.Errorf("bonus = %d, want 150", out.BonusXP)
	}
	// 5 × 30 + 150.
	if out.Snapshot.Stats.XP != 300 || out.Snapshot.Stats.WeeklyGoalsCompleted != 1 {
		t.Errorf("stats = %+v", out.Snapshot.Stats)
	}
	if n := rec.byType(domain.NotifyChallenge); len(n) != 1 {
		t.Errorf("challenge notifications = %d, want 1", len(n))
	}

	out = e.Dispatcher.Dispatch(ctx, session("u"), resolve)
	if len(out.CompletedChallenges) != 0 || out.BonusXP != 0 {
		t.Errorf("challenge rewarded twice: %+v", out)
	}
	for _, c := range out.Snapshot.Challenges {
		if c.ID == "weekly_resolver" && (!c.Completed || !c.Claimed || c.Progress != 100) {
			t.Errorf("challenge view = %+v", c)
		}
	}
}

func TestChallenge_NewWeekNewBaseline(t *testing.T) {
	clk := newFakeClock(monday)
	e := newEngine(t, testDB(t), clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionReadProcedure})
	}

	clk.Set(monday.AddDate(0, 0, 7))
	out := e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionReadProcedure})
	if len(out.CompletedChallenges) != 0 {
		t.Errorf("last week's progress leaked: %+v", out.CompletedChallenges)
	}
	for _, c := range out.Snapshot.Challenges {
		if c.ID == "weekly_reader" {
			if c.Week != "2025-W29" || c.Current != 1 {
				t.Errorf("reader challenge = %+v", c)
			}
		}
	}
}

func TestChallenge_ClaimIdempotent(t *testing.T) {
	clk := newFakeClock(monday)
	svc := scoring.NewChallengeService(testDB(t), nil, clk.Clock(), nil)
	ctx := context.Background()

	ok, err := svc.Claim(ctx, "u", "2025-W28", "weekly_helper")
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, err = svc.Claim(ctx, "u", "2025-W28", "weekly_helper")
	if err != nil || ok {
		t.Errorf("second claim = %v, %v", ok, err)
	}
	ok, _ = svc.Claim(ctx, "u", "2025-W29", "weekly_helper")
	if !ok {
		t.Error("claim should be scoped to the week")
	}
	claimed, _ := svc.Claims(ctx, "u", "2025-W28")
	if !claimed["weekly_helper"] || len(claimed) != 1 {
		t.Errorf("claims = %v", claimed)
	}
}

func TestChallenge_RewardSkipsRateLimit(t *testing.T) {
	clk := newFakeClock(monday)
	limits := scoring.DefaultRateLimits().WithOverrides(map[domain.ActionType]scoring.Limit{
		domain.ActionCompleteWeeklyGoal: {MaxPerHour: 1, MaxPerDay: 1},
	})
	e := scoring.NewEngine(testDB(t), scoring.Options{Limits: &limits, Clock: clk.Clock()})
	ctx := context.Background()

	var out scoring.DispatchResult
	for i := 0; i < 5; i++ {
		out = e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionResolveIncident})
	}
	if out.BonusXP != 150 {
		t.Fatalf("first reward bonus = %d, want 150", out.BonusXP)
	}
	for i := 0; i < 5; i++ {
		out = e.Dispatcher.Dispatch(ctx, session("u"), domain.Action{Type: domain.ActionCompleteMaintenance})
	}
	if out.BonusXP != 150 || len(out.CompletedChallenges) != 1 {
		t.Errorf("second reward in the same hour = %+v", out)
	}
	if out.Snapshot.Stats.WeeklyGoalsCompleted != 2 {
		t.Errorf("weekly goals = %d, want 2", out.Snapshot.Stats.WeeklyGoalsCompleted)
	}
}

func TestChallengeRewarder_ReleasesUnappliedClaim(t *testing.T) {
	clk := newFakeClock(monday)
	db := testDB(t)
	svc := scoring.NewChallengeService(db, nil, clk.Clock(), nil)
	rewarder := scoring.NewChallengeRewarder(svc, newUpdater(t, db, clk), nil)
	ctx := context.Background()
	ev := domain.ChallengeCompleted{UserID: "u", Week: "2025-W28", Challenge: svc.Catalog()[0]}

	// Foreign session: the claim is taken but the reward is refused.
	if _, granted := rewarder.Handle(ctx, session("mallory"), ev); granted {
		t.Fatal("reward granted to a foreign session")
	}
	claimed, err := svc.Claims(ctx, "u", ev.Week)
	if err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if claimed[ev.Challenge.ID] {
		t.Error("claim kept although the reward was not applied")
	}

	res, granted := rewarder.Handle(ctx, session("u"), ev)
	if !granted || res.XPGained != ev.Challenge.XPReward {
		t.Errorf("retry = %v, %+v", granted, res)
	}
	if _, granted := rewarder.Handle(ctx, session("u"), ev); granted {
		t.Error("reward granted twice")
	}
}

func TestChallenge_Release(t *testing.T) {
	clk := newFakeClock(monday)
	svc := scoring.NewChallengeService(testDB(t), nil, clk.Clock(), nil)
	ctx := context.Background()

	svc.Claim(ctx, "u", "2025-W28", "weekly_helper")
	svc.Claim(ctx, "u", "2025-W28", "weekly_reader")
	if err := svc.Release(ctx, "u", "2025-W28", "weekly_helper"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := svc.Release(ctx, "u", "2025-W28", "weekly_quality"); err != nil {
		t.Errorf("releasing an unclaimed challenge: %v", err)
	}
	claimed, _ := svc.Claims(ctx, "u", "2025-W28")
	if claimed["weekly_helper"] || !claimed["weekly_reader"] {
		t.Errorf("claims = %v", claimed)
	}
}

func TestChallenge_ProgressAndFlips(t *testing.T) {
	clk := newFakeClock(monday)
	svc := scoring.NewChallengeService(testDB(t), nil, clk.Clock(), nil)

	base := domain.NewUserStats("u")
	base.QualityChecksCompleted = 10
	mid := base.Clone()
	mid.QualityChecksCompleted = 12
	done := base.Clone()
	done.QualityChecksCompleted = 13

	for _, c := range svc.Progress(base, mid, "2025-W28", monday, nil) {
		if c.ID != "weekly_quality" {
			continue
		}
		if c.Current != 2 || c.Completed || c.Progress < 66 || c.Progress > 67 {
			t.Errorf("quality challenge = %+v", c)
		}
		if !c.StartsAt.Equal(time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("week starts at %v", c.StartsAt)
		}
	}

	flipped := svc.Flipped(base, mid, done)
	if len(flipped) != 1 || flipped[0].ID != "weekly_quality" {
		t.Errorf("flipped = %+v", flipped)
	}
	if again := svc.Flipped(base, done, done); len(again) != 0 {
		t.Errorf("no change should flip nothing: %+v", again)
	}
}

func TestChallengeCatalog_Valid(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range scoring.AllChallenges() {
		if seen[def.ID] {
			t.Errorf("duplicate challenge %q", def.ID)
		}
		seen[def.ID] = true
		if def.Target <= 0 || def.XPReward <= 0 {
			t.Errorf("challenge %q has no target or reward", def.ID)
		}
		if _, ok := domain.NewUserStats("").Stat(def.Field); !ok {
			t.Errorf("challenge %q tracks unknown field %q", def.ID, def.Field)
		}
	}
}
