package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/hotelscore/internal/domain"
	"github.com/hotelops/hotelscore/internal/platform/logger"
)

// Collections used by StoreNotifier.
const (
	NotificationCollection = "notifications"
	NotificationReads      = "notification_reads"
)

// ─── Log Notifier ───────────────────────────────────────────────────────────

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log sink.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &LogNotifier{log: log.With("component", "notify")}
}

// Notify logs n.
func (l *LogNotifier) Notify(_ context.Context, n domain.Notification) error {
	l.log.Info(n.Title, "user_id", n.UserID, "type", string(n.Type), "badge", n.BadgeID, "xp", n.XP)
	return nil
}

// ─── Store Notifier ─────────────────────────────────────────────────────────

// StoreNotifier persists notifications so the UI can poll for unshown ones.
// Records are immutable; "shown" is tracked as a separate read record.
type StoreNotifier struct {
	store domain.DocumentStore
	clock Clock
}

// NewStoreNotifier creates a persisting sink.
func NewStoreNotifier(store domain.DocumentStore, clock Clock) *StoreNotifier {
	return &StoreNotifier{store: store, clock: clock}
}

type notificationRecord struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	BadgeID   string                  `json:"badgeId,omitempty"`
	XP        int64                   `json:"xp,omitempty"`
	CreatedAt int64                   `json:"createdAt"`
}

// Notify stores n.
func (s *StoreNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock.Now()
	}
	doc, err := toDocument(notificationRecord{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		BadgeID:   n.BadgeID,
		XP:        n.XP,
		CreatedAt: n.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	if _, err := s.store.AppendRecord(ctx, NotificationCollection, doc); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Pending returns the user's unshown notifications, newest first.
func (s *StoreNotifier) Pending(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	byUser := []domain.Filter{{Field: "userId", Op: domain.OpEq, Value: userID}}
	reads, err := s.store.QueryRecords(ctx, NotificationReads, domain.RecordQuery{Filters: byUser})
	if err != nil {
		return nil, fmt.Errorf("query reads: %w", err)
	}
	shown := make(map[string]bool, len(reads))
	for _, r := range reads {
		if id, ok := r["notificationId"].(string); ok {
			shown[id] = true
		}
	}

	docs, err := s.store.QueryRecords(ctx, NotificationCollection, domain.RecordQuery{
		Filters: byUser,
		OrderBy: "createdAt",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	var out []domain.Notification
	for _, doc := range docs {
		var rec notificationRecord
		if err := fromDocument(doc, &rec); err != nil {
			return nil, err
		}
		if shown[rec.ID] {
			continue
		}
		out = append(out, domain.Notification{
			ID:        rec.ID,
			UserID:    rec.UserID,
			Type:      rec.Type,
			Title:     rec.Title,
			Body:      rec.Body,
			BadgeID:   rec.BadgeID,
			XP:        rec.XP,
			CreatedAt: time.UnixMilli(rec.CreatedAt),
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkShown records that the user has seen notification id.
func (s *StoreNotifier) MarkShown(ctx context.Context, sess domain.Session, id string) error {
	if sess.UserID == "" {
		return domain.ErrNoSession
	}
	docs, err := s.store.QueryRecords(ctx, NotificationCollection, domain.RecordQuery{
		Filters: []domain.Filter{
			{Field: "id", Op: domain.OpEq, Value: id},
			{Field: "userId", Op: domain.OpEq, Value: sess.UserID},
		},
		Limit: 1,
	})
	if err != nil {
		return fmt.Errorf("find notification: %w", err)
	}
	if len(docs) == 0 {
		return domain.ErrNotFound
	}
	_, err = s.store.AppendRecord(ctx, NotificationReads, domain.Document{
		"userId":         sess.UserID,
		"notificationId": id,
		"shownAt":        s.clock.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}
	return nil
}

// ─── Fan-out ────────────────────────────────────────────────────────────────

// MultiNotifier delivers to every sink and joins their errors.
type MultiNotifier []domain.Notifier

// Notify calls every sink even when an earlier one fails.
func (m MultiNotifier) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
