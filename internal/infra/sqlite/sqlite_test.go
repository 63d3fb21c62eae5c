package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hotelops/hotelscore/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "hotelscore.db")); os.IsNotExist(err) {
		t.Error("hotelscore.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	ctx := context.Background()
	if err := db.SetDocument(ctx, "k", domain.Document{"a": 1}, false); err != nil {
		t.Fatalf("SetDocument() error: %v", err)
	}
	db.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db2.Close()
	if _, found, _ := db2.GetDocument(ctx, "k"); !found {
		t.Error("document should survive reopen")
	}
}

// ─── Documents ──────────────────────────────────────────────────────────────

func TestGetDocument_Absent(t *testing.T) {
	db := newTestDB(t)
	doc, found, err := db.GetDocument(context.Background(), "user_stats/nobody")
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if found || doc != nil {
		t.Errorf("expected absent, got %v", doc)
	}
}

func TestSetDocument_Replace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = db.SetDocument(ctx, "k", domain.Document{"a": 1, "b": "x"}, false)
	_ = db.SetDocument(ctx, "k", domain.Document{"a": 2}, false)

	doc, _, err := db.GetDocument(ctx, "k")
	if err != nil {
		t.Fatalf("GetDocument() error: %v", err)
	}
	if _, ok := doc["b"]; ok {
		t.Error("replace should drop field b")
	}
	if doc["a"] != json.Number("2") {
		t.Errorf("a = %v, want 2", doc["a"])
	}
}

func TestSetDocument_Merge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_ = db.SetDocument(ctx, "k", domain.Document{"a": 1, "b": "x"}, false)
	if err := db.SetDocument(ctx, "k", domain.Document{"a": 5, "c": true}, true); err != nil {
		t.Fatalf("merge error: %v", err)
	}

	doc, _, _ := db.GetDocument(ctx, "k")
	if doc["b"] != "x" {
		t.Errorf("merge lost field b: %v", doc)
	}
	if doc["a"] != json.Number("5") {
		t.Errorf("a = %v, want 5", doc["a"])
	}
	if doc["c"] != true {
		t.Errorf("c = %v, want true", doc["c"])
	}
}

func TestSetDocument_MergeIntoAbsent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.SetDocument(ctx, "fresh", domain.Document{"x": "y"}, true); err != nil {
		t.Fatalf("SetDocument() error: %v", err)
	}
	doc, found, _ := db.GetDocument(ctx, "fresh")
	if !found || doc["x"] != "y" {
		t.Errorf("got %v found=%v", doc, found)
	}
}

func TestDocument_EmptyKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	if err := db.SetDocument(ctx, "", domain.Document{}, false); !errors.Is(err, domain.ErrInvalidKey) {
		t.Errorf("SetDocument(\"\") = %v, want ErrInvalidKey", err)
	}
	if _, _, err := db.GetDocument(ctx, ""); !errors.Is(err, domain.ErrInvalidKey) {
		t.Errorf("GetDocument(\"\") = %v, want ErrInvalidKey", err)
	}
}

// ─── Records ────────────────────────────────────────────────────────────────

func seedHistory(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	rows := []domain.Document{
		{"userId": "alice", "actionType": "LOGIN", "timestamp": int64(1000), "newBadges": []string{"first_login"}},
		{"userId": "alice", "actionType": "LOGIN", "timestamp": int64(2000), "newBadges": []string{}},
		{"userId": "alice", "actionType": "RESOLVE_INCIDENT", "timestamp": int64(3000), "newBadges": []string{"resolver"}},
		{"userId": "bob", "actionType": "LOGIN", "timestamp": int64(4000), "newBadges": []string{}},
	}
	for _, r := range rows {
		if _, err := db.AppendRecord(ctx, "action_history", r); err != nil {
			t.Fatalf("AppendRecord() error: %v", err)
		}
	}
	// Same fields, other collection; must never leak into queries.
	_, _ = db.AppendRecord(ctx, "notifications", domain.Document{"userId": "alice", "actionType": "LOGIN"})
}

func TestAppendRecord_AssignsID(t *testing.T) {
	db := newTestDB(t)
	id, err := db.AppendRecord(context.Background(), "c", domain.Document{"v": 1})
	if err != nil {
		t.Fatalf("AppendRecord() error: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}
	docs, _ := db.QueryRecords(context.Background(), "c", domain.RecordQuery{})
	if len(docs) != 1 || docs[0]["id"] != id {
		t.Errorf("record id not stored: %v", docs)
	}
}

func TestAppendRecord_KeepsProvidedID(t *testing.T) {
	db := newTestDB(t)
	id, _ := db.AppendRecord(context.Background(), "c", domain.Document{"id": "fixed"})
	if id != "fixed" {
		t.Errorf("id = %q, want fixed", id)
	}
}

func TestQueryRecords_Filters(t *testing.T) {
	db := newTestDB(t)
	seedHistory(t, db)
	ctx := context.Background()

	tests := []struct {
		name    string
		filters []domain.Filter
		want    int
	}{
		{"all", nil, 4},
		{"user", []domain.Filter{{Field: "userId", Op: domain.OpEq, Value: "alice"}}, 3},
		{"user+type", []domain.Filter{
			{Field: "userId", Op: domain.OpEq, Value: "alice"},
			{Field: "actionType", Op: domain.OpEq, Value: domain.ActionLogin},
		}, 2},
		{"since", []domain.Filter{
			{Field: "userId", Op: domain.OpEq, Value: "alice"},
			{Field: "timestamp", Op: domain.OpGte, Value: int64(2000)},
		}, 2},
		{"before", []domain.Filter{{Field: "timestamp", Op: domain.OpLt, Value: int64(2000)}}, 1},
		{"not", []domain.Filter{{Field: "userId", Op: domain.OpNe, Value: "alice"}}, 1},
		{"array_contains", []domain.Filter{{Field: "newBadges", Op: domain.OpArrayContains, Value: "resolver"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := db.QueryRecords(ctx, "action_history", domain.RecordQuery{Filters: tt.filters})
			if err != nil {
				t.Fatalf("QueryRecords() error: %v", err)
			}
			if len(docs) != tt.want {
				t.Errorf("got %d records, want %d", len(docs), tt.want)
			}
		})
	}
}

func TestQueryRecords_OrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	seedHistory(t, db)

	docs, err := db.QueryRecords(context.Background(), "action_history", domain.RecordQuery{
		OrderBy: "timestamp",
		Desc:    true,
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("QueryRecords() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d records, want 2", len(docs))
	}
	if docs[0]["timestamp"] != json.Number("4000") || docs[1]["timestamp"] != json.Number("3000") {
		t.Errorf("wrong order: %v, %v", docs[0]["timestamp"], docs[1]["timestamp"])
	}
}

func TestQueryRecords_InvalidField(t *testing.T) {
	db := newTestDB(t)
	_, err := db.QueryRecords(context.Background(), "c", domain.RecordQuery{
		Filters: []domain.Filter{{Field: "x'); DROP TABLE records; --", Op: domain.OpEq, Value: 1}},
	})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestQueryRecords_InvalidOp(t *testing.T) {
	db := newTestDB(t)
	_, err := db.QueryRecords(context.Background(), "c", domain.RecordQuery{
		Filters: []domain.Filter{{Field: "x", Op: "LIKE", Value: 1}},
	})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestQueryRecords_BoolFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, _ = db.AppendRecord(ctx, "notifications", domain.Document{"userId": "u", "shown": false})
	_, _ = db.AppendRecord(ctx, "notifications", domain.Document{"userId": "u", "shown": true})

	docs, err := db.QueryRecords(ctx, "notifications", domain.RecordQuery{
		Filters: []domain.Filter{{Field: "shown", Op: domain.OpEq, Value: false}},
	})
	if err != nil {
		t.Fatalf("QueryRecords() error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d unshown, want 1", len(docs))
	}
}
