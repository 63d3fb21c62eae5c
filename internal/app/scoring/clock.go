package scoring

import (
	"fmt"
	"time"
)

// Clock supplies "now" in the hotel's time zone. Rate-limit windows, streak
// days and challenge weeks are all calendar-aligned in Loc.
type Clock struct {
	Loc   *time.Location
	NowFn func() time.Time
}

// Now returns the current time in the clock's location.
func (c Clock) Now() time.Time {
	now := time.Now
	if c.NowFn != nil {
		now = c.NowFn
	}
	return now().In(c.location())
}

// In converts t to the clock's location.
func (c Clock) In(t time.Time) time.Time {
	return t.In(c.location())
}

func (c Clock) location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// startOfHour truncates t to the top of its wall-clock hour.
func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// startOfDay returns local midnight of t's calendar day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// sameDay reports whether a and b fall on the same calendar day in a's location.
func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfWeek returns Monday 00:00 of t's ISO week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// isoWeek returns "YYYY-Www" for the given time.
func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
