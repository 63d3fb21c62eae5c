package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hotelops/hotelscore/internal/domain"
)

// toDocument converts a tagged struct into a store document.
func toDocument(v any) (domain.Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return doc, nil
}

// fromDocument decodes a store document into v.
func fromDocument(doc domain.Document, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// statsKey is the document key of a user's stats record.
func statsKey(userID string) string {
	return "user_stats/" + userID
}

func decodeStats(userID string, doc domain.Document) (domain.UserStats, error) {
	stats := domain.NewUserStats(userID)
	if err := fromDocument(doc, &stats); err != nil {
		return domain.NewUserStats(userID), err
	}
	if stats.UserID == "" {
		stats.UserID = userID
	}
	if stats.Badges == nil {
		stats.Badges = []string{}
	}
	if stats.Level < 1 {
		stats.Level = LevelForXP(stats.XP).Level
	}
	return stats, nil
}
