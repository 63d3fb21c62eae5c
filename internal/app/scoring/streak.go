package scoring

import (
	"context"
	"time"

	"github.com/hotelops/hotelscore/internal/domain"
)

// applyLogin updates the login streak fields of stats for a login at now.
// counted is false when the user already logged in today; stats are then untouched.
//
// The history log decides same-day idempotence. lastLoginDate is only
// consulted for the streak itself, or alone when history is unreadable.
func (u *Updater) applyLogin(ctx context.Context, stats *domain.UserStats, now time.Time) (gained int64, counted bool) {
	already, err := u.history.Count(ctx, stats.UserID, domain.ActionLogin, startOfDay(now))
	if err != nil {
		u.log.Warn("login history unavailable, using last login date", "user_id", stats.UserID, "error", err)
	} else if already > 0 {
		return 0, false
	}

	base := u.xp.base(domain.ActionLogin)
	switch {
	case stats.LastLoginDate == nil:
		stats.ConsecutiveLogins = 1
		stats.CurrentStreak = 1
		gained = base
	case sameDay(now, *stats.LastLoginDate):
		return 0, false
	case sameDay(now.AddDate(0, 0, -1), *stats.LastLoginDate):
		stats.ConsecutiveLogins++
		stats.CurrentStreak++
		gained = base + u.xp.LoginStreakBonus
	default:
		stats.ConsecutiveLogins = 1
		stats.CurrentStreak = 1
		gained = base
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.TotalLogins++
	last := now
	stats.LastLoginDate = &last
	return gained, true
}
