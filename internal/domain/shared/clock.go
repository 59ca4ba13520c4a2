package shared

import "time"

// Clock supplies the current time to the domain. Services never call
// time.Now() directly for business decisions; they take a Clock so that
// date-sensitive logic is deterministic under test.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time
	// Today returns the current date truncated to midnight UTC.
	Today() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// NewSystemClock creates a SystemClock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current instant
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Today returns the current date at midnight UTC
func (SystemClock) Today() time.Time {
	return TruncateToDate(time.Now())
}

// FixedClock is a Clock pinned to a single instant, for deterministic tests.
type FixedClock struct {
	Instant time.Time
}

// NewFixedClock creates a FixedClock pinned to the given instant
func NewFixedClock(instant time.Time) FixedClock {
	return FixedClock{Instant: instant}
}

// Now returns the pinned instant
func (c FixedClock) Now() time.Time {
	return c.Instant
}

// Today returns the pinned instant truncated to midnight UTC
func (c FixedClock) Today() time.Time {
	return TruncateToDate(c.Instant)
}

// TruncateToDate drops the time-of-day component, normalizing to UTC.
// All due-date comparisons operate on calendar dates, not instants.
func TruncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(TruncateToDate(b).Sub(TruncateToDate(a)).Hours() / 24)
}
