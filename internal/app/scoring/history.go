package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/hotelops/hotelscore/internal/domain"
)

// HistoryCollection is the append-only collection of scored actions.
const HistoryCollection = "action_history"

// HistoryLog reads and appends action history records.
type HistoryLog struct {
	store domain.DocumentStore
}

// NewHistoryLog creates a history log over store.
func NewHistoryLog(store domain.DocumentStore) *HistoryLog {
	return &HistoryLog{store: store}
}

// historyRecord is the stored shape; timestamps are unix millis so range
// filters compare numerically.
type historyRecord struct {
	ID         string            `json:"id,omitempty"`
	UserID     string            `json:"userId"`
	ActionType domain.ActionType `json:"actionType"`
	Action     domain.Action     `json:"action"`
	XPGained   int64             `json:"xpGained"`
	Level      int               `json:"level"`
	NewBadges  []string          `json:"newBadges"`
	TotalXP    int64             `json:"totalXp"`
	Timestamp  int64             `json:"timestamp"`
}

// Append records one scored action and returns its id.
func (h *HistoryLog) Append(ctx context.Context, e domain.HistoryEntry) (string, error) {
	if e.NewBadges == nil {
		e.NewBadges = []string{}
	}
	doc, err := toDocument(historyRecord{
		ID:         e.ID,
		UserID:     e.UserID,
		ActionType: e.ActionType,
		Action:     e.Action,
		XPGained:   e.XPGained,
		Level:      e.Level,
		NewBadges:  e.NewBadges,
		TotalXP:    e.TotalXP,
		Timestamp:  e.Timestamp.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("history entry: %w", err)
	}
	id, err := h.store.AppendRecord(ctx, HistoryCollection, doc)
	if err != nil {
		return "", fmt.Errorf("append history: %w", err)
	}
	return id, nil
}

// HistoryFilter narrows a history query. Zero fields are ignored.
type HistoryFilter struct {
	UserID string
	Type   domain.ActionType
	Since  time.Time
	Limit  int
}

// Entries returns matching entries, newest first.
func (h *HistoryLog) Entries(ctx context.Context, f HistoryFilter) ([]domain.HistoryEntry, error) {
	q := domain.RecordQuery{OrderBy: "timestamp", Desc: true, Limit: f.Limit}
	if f.UserID != "" {
		q.Filters = append(q.Filters, domain.Filter{Field: "userId", Op: domain.OpEq, Value: f.UserID})
	}
	if f.Type != "" {
		q.Filters = append(q.Filters, domain.Filter{Field: "actionType", Op: domain.OpEq, Value: string(f.Type)})
	}
	if !f.Since.IsZero() {
		q.Filters = append(q.Filters, domain.Filter{Field: "timestamp", Op: domain.OpGte, Value: f.Since.UnixMilli()})
	}

	docs, err := h.store.QueryRecords(ctx, HistoryCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	entries := make([]domain.HistoryEntry, 0, len(docs))
	for _, doc := range docs {
		var rec historyRecord
		if err := fromDocument(doc, &rec); err != nil {
			return nil, fmt.Errorf("history record: %w", err)
		}
		entries = append(entries, domain.HistoryEntry{
			ID:         rec.ID,
			UserID:     rec.UserID,
			ActionType: rec.ActionType,
			Action:     rec.Action,
			XPGained:   rec.XPGained,
			Level:      rec.Level,
			NewBadges:  rec.NewBadges,
			TotalXP:    rec.TotalXP,
			Timestamp:  time.UnixMilli(rec.Timestamp),
		})
	}
	return entries, nil
}

// Count returns how many actions of type t userID performed since the given instant.
func (h *HistoryLog) Count(ctx context.Context, userID string, t domain.ActionType, since time.Time) (int, error) {
	entries, err := h.Entries(ctx, HistoryFilter{UserID: userID, Type: t, Since: since})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Recent returns the user's latest entries.
func (h *HistoryLog) Recent(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	return h.Entries(ctx, HistoryFilter{UserID: userID, Limit: limit})
}
