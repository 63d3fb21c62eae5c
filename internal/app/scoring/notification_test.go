package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Notification Sink Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestStoreNotifier_PendingAndMarkShown(t *testing.T) {
	clk := newFakeClock(monday)
	n := scoring.NewStoreNotifier(testDB(t), clk.Clock())
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		err := n.Notify(ctx, domain.Notification{
			ID:        title,
			UserID:    "u",
			Type:      domain.NotifyXP,
			Title:     title,
			XP:        int64(i + 1),
			CreatedAt: monday.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	_ = n.Notify(ctx, domain.Notification{ID: "other", UserID: "v", Title: "not yours"})

	pending, err := n.Pending(ctx, "u", 0)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "third" {
		t.Fatalf("pending = %+v", pending)
	}
	if !pending[2].CreatedAt.Equal(monday) {
		t.Errorf("createdAt = %v, want %v", pending[2].CreatedAt, monday)
	}

	if err := n.MarkShown(ctx, session("u"), "second"); err != nil {
		t.Fatalf("MarkShown: %v", err)
	}
	pending, _ = n.Pending(ctx, "u", 0)
	if len(pending) != 2 {
		t.Errorf("pending after mark = %d, want 2", len(pending))
	}
	for _, p := range pending {
		if p.ID == "second" {
			t.Error("shown notification still pending")
		}
	}

	if limited, _ := n.Pending(ctx, "u", 1); len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestStoreNotifier_MarkShownScopedToOwner(t *testing.T) {
	clk := newFakeClock(monday)
	n := scoring.NewStoreNotifier(testDB(t), clk.Clock())
	ctx := context.Background()

	_ = n.Notify(ctx, domain.Notification{ID: "x", UserID: "u", Title: "hi"})

	if err := n.MarkShown(ctx, session("intruder"), "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign mark = %v, want ErrNotFound", err)
	}
	if err := n.MarkShown(ctx, domain.Session{}, "x"); !errors.Is(err, domain.ErrNoSession) {
		t.Errorf("anonymous mark = %v, want ErrNoSession", err)
	}
}

func TestStoreNotifier_AssignsIDAndTime(t *testing.T) {
	clk := newFakeClock(monday)
	n := scoring.NewStoreNotifier(testDB(t), clk.Clock())
	ctx := context.Background()

	_ = n.Notify(ctx, domain.Notification{UserID: "u", Title: "hi"})
	pending, _ := n.Pending(ctx, "u", 0)
	if len(pending) != 1 || pending[0].ID == "" || !pending[0].CreatedAt.Equal(monday) {
		t.Errorf("pending = %+v", pending)
	}
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, domain.Notification) error {
	f.calls++
	return errors.New("sink down")
}

func TestMultiNotifier_FansOut(t *testing.T) {
	bad := &failingNotifier{}
	rec := &recordingNotifier{}
	multi := scoring.MultiNotifier{bad, nil, rec}

	err := multi.Notify(context.Background(), domain.Notification{UserID: "u", Type: domain.NotifyXP})
	if err == nil {
		t.Error("expected joined error")
	}
	if bad.calls != 1 || len(rec.notes) != 1 {
		t.Errorf("fan-out incomplete: bad=%d rec=%d", bad.calls, len(rec.notes))
	}
}

func TestLogNotifier(t *testing.T) {
	if err := scoring.NewLogNotifier(nil).Notify(context.Background(), domain.Notification{Title: "x"}); err != nil {
		t.Errorf("LogNotifier: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// History Log Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestHistoryLog_Queries(t *testing.T) {
	h := scoring.NewHistoryLog(testDB(t))
	ctx := context.Background()

	entries := []domain.HistoryEntry{
		{UserID: "a", ActionType: domain.ActionLogin, XPGained: 5, Timestamp: monday},
		{UserID: "a", ActionType: domain.ActionCreateIncident, XPGained: 10, Timestamp: monday.Add(time.Hour)},
		{UserID: "a", ActionType: domain.ActionCreateIncident, XPGained: 10, Timestamp: monday.Add(2 * time.Hour)},
		{UserID: "b", ActionType: domain.ActionCreateIncident, XPGained: 10, Timestamp: monday.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		if _, err := h.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	n, err := h.Count(ctx, "a", domain.ActionCreateIncident, monday)
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2", n, err)
	}
	n, _ = h.Count(ctx, "a", domain.ActionCreateIncident, monday.Add(90*time.Minute))
	if n != 1 {
		t.Errorf("Count since +90m = %d, want 1", n)
	}

	recent, err := h.Recent(ctx, "a", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || !recent[0].Timestamp.Equal(monday.Add(2*time.Hour)) {
		t.Errorf("recent = %+v", recent)
	}
	if recent[0].ID == "" || recent[0].NewBadges == nil {
		t.Errorf("entry missing id or badges: %+v", recent[0])
	}
}
