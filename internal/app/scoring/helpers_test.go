package scoring_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/infra/sqlite"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeClock is a settable clock in UTC.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func (f *fakeClock) Advance(d time.Duration) { f.Set(f.Now().Add(d)) }

func (f *fakeClock) Clock() scoring.Clock {
	return scoring.Clock{Loc: time.UTC, NowFn: f.Now}
}

// monday is 2025-07-07 09:00 UTC, the start of ISO week 2025-W28.
var monday = time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC)

func session(userID string) domain.Session { return domain.Session{UserID: userID} }

func newUpdater(t *testing.T, store domain.DocumentStore, clk *fakeClock) *scoring.Updater {
	t.Helper()
	return scoring.NewUpdater(store, scoring.Options{Clock: clk.Clock()})
}

func scoringUpdaterIn(t *testing.T, store domain.DocumentStore, clk *fakeClock, loc *time.Location) *scoring.Updater {
	t.Helper()
	return scoring.NewUpdater(store, scoring.Options{Clock: scoring.Clock{Loc: loc, NowFn: clk.Now}})
}

func newEngine(t *testing.T, store domain.DocumentStore, clk *fakeClock, extra ...domain.Notifier) *scoring.Engine {
	t.Helper()
	return scoring.NewEngine(store, scoring.Options{Clock: clk.Clock()}, extra...)
}

var errInjected = errors.New("injected store failure")

// flakyStore wraps a DocumentStore and fails selected operations.
type flakyStore struct {
	domain.DocumentStore

	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failAppend bool
	failQuery  bool
	sets       int
	appends    int
}

func (f *flakyStore) GetDocument(ctx context.Context, key string) (domain.Document, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, errInjected
	}
	return f.DocumentStore.GetDocument(ctx, key)
}

func (f *flakyStore) SetDocument(ctx context.Context, key string, doc domain.Document, merge bool) error {
	f.mu.Lock()
	fail := f.failSet
	f.sets++
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.DocumentStore.SetDocument(ctx, key, doc, merge)
}

func (f *flakyStore) AppendRecord(ctx context.Context, collection string, record domain.Document) (string, error) {
	f.mu.Lock()
	fail := f.failAppend
	f.appends++
	f.mu.Unlock()
	if fail {
		return "", errInjected
	}
	return f.DocumentStore.AppendRecord(ctx, collection, record)
}

func (f *flakyStore) QueryRecords(ctx context.Context, collection string, q domain.RecordQuery) ([]domain.Document, error) {
	f.mu.Lock()
	fail := f.failQuery
	f.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	return f.DocumentStore.QueryRecords(ctx, collection, q)
}

func (f *flakyStore) writes() (sets, appends int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets, f.appends
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
	return nil
}

func (r *recordingNotifier) byType(t domain.NotificationType) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.notes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func hasBadge(badges []domain.BadgeDef, id string) bool {
	for _, b := range badges {
		if b.ID == id {
			return true
		}
	}
	return false
}
