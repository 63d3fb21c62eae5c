package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/hotelops/hotelscore/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Login Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLogin_First(t *testing.T) {
	clk := newFakeClock(monday)
	u := newUpdater(t, testDB(t), clk)

	res := u.Update(context.Background(), session("u"), "u", domain.Action{Type: domain.ActionLogin})
	s := res.Stats
	if res.XPGained != 5 {
		t.Errorf("XPGained = %d, want 5", res.XPGained)
	}
	if s.CurrentStreak != 1 || s.ConsecutiveLogins != 1 || s.LongestStreak != 1 || s.TotalLogins != 1 {
		t.Errorf("streak fields = %+v", s)
	}
	if s.LastLoginDate == nil || !s.LastLoginDate.Equal(monday) {
		t.Errorf("lastLoginDate = %v", s.LastLoginDate)
	}
	if !hasBadge(res.NewBadges, "first_login") {
		t.Error("first login should unlock first_login")
	}
}

func TestLogin_SameDayIdempotent(t *testing.T) {
	db := testDB(t)
	store := &flakyStore{DocumentStore: db}
	clk := newFakeClock(monday)
	u := newUpdater(t, store, clk)
	ctx := context.Background()

	u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
	setsBefore, appendsBefore := store.writes()

	for _, later := range []time.Duration{time.Minute, 3 * time.Hour, 14 * time.Hour} {
		clk.Set(monday.Add(later))
		res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
		if res.XPGained != 0 || res.Applied {
			t.Errorf("login +%v scored again: %+v", later, res)
		}
		if res.Stats.TotalLogins != 1 {
			t.Errorf("totalLogins = %d, want 1", res.Stats.TotalLogins)
		}
	}
	if sets, appends := store.writes(); sets != setsBefore || appends != appendsBefore {
		t.Error("duplicate login persisted something")
	}
}

func TestLogin_ConsecutiveDayBonus(t *testing.T) {
	clk := newFakeClock(monday)
	u := newUpdater(t, testDB(t), clk)
	ctx := context.Background()

	u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
	clk.Set(monday.AddDate(0, 0, 1).Add(-8 * time.Hour)) // Tuesday 01:00
	res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})

	if res.XPGained != 15 {
		t.Errorf("XPGained = %d, want 15 (base + bonus)", res.XPGained)
	}
	s := res.Stats
	if s.CurrentStreak != 2 || s.ConsecutiveLogins != 2 || s.LongestStreak != 2 || s.TotalLogins != 2 {
		t.Errorf("streak fields = %+v", s)
	}
}

func TestLogin_GapResetsStreak(t *testing.T) {
	clk := newFakeClock(monday)
	u := newUpdater(t, testDB(t), clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		clk.Set(monday.AddDate(0, 0, i))
		u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
	}

	// Three days without logging in.
	clk.Set(monday.AddDate(0, 0, 6))
	res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})

	if res.XPGained != 5 {
		t.Errorf("XPGained = %d, want 5 (no bonus)", res.XPGained)
	}
	s := res.Stats
	if s.CurrentStreak != 1 || s.ConsecutiveLogins != 1 {
		t.Errorf("streak not reset: %+v", s)
	}
	if s.LongestStreak != 3 {
		t.Errorf("longest = %d, want 3", s.LongestStreak)
	}
	if s.TotalLogins != 4 {
		t.Errorf("totalLogins = %d, want 4", s.TotalLogins)
	}
}

func TestLogin_HistoryDownFallsBackToLastLoginDate(t *testing.T) {
	db := testDB(t)
	store := &flakyStore{DocumentStore: db}
	clk := newFakeClock(monday)
	u := newUpdater(t, store, clk)
	ctx := context.Background()

	u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})

	store.failQuery = true
	clk.Advance(2 * time.Hour)
	if res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin}); res.XPGained != 0 {
		t.Errorf("same-day login scored with history down: %+v", res)
	}

	clk.Set(monday.AddDate(0, 0, 1))
	if res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin}); res.XPGained != 15 {
		t.Errorf("next-day login XP = %d, want 15", res.XPGained)
	}
}

func TestLogin_HistoryIsSourceOfTruth(t *testing.T) {
	db := testDB(t)
	clk := newFakeClock(monday)
	u := newUpdater(t, db, clk)
	ctx := context.Background()

	u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})

	// Wipe the stats record; today's history entry alone blocks a second login.
	if err := db.SetDocument(ctx, "user_stats/u", domain.Document{"userId": "u"}, false); err != nil {
		t.Fatalf("reset stats: %v", err)
	}
	clk.Advance(time.Hour)
	if res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin}); res.XPGained != 0 {
		t.Errorf("login scored twice in a day: %+v", res)
	}
}

func TestLogin_TimeZoneDayBoundary(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	clk := newFakeClock(time.Date(2025, 7, 7, 21, 30, 0, 0, time.UTC)) // 23:30 in Paris
	u := scoringUpdaterIn(t, testDB(t), clk, paris)
	ctx := context.Background()

	u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
	clk.Set(time.Date(2025, 7, 7, 22, 30, 0, 0, time.UTC)) // 00:30 next day in Paris
	res := u.Update(ctx, session("u"), "u", domain.Action{Type: domain.ActionLogin})
	if res.XPGained != 15 {
		t.Errorf("XPGained = %d, want 15: days are local to the hotel", res.XPGained)
	}
}
