package entitlement

import "time"

const dateKeyLayout = "2006-01-02"

// Clock supplies the current time. Injectable so date-bucketing logic is
// testable without touching the wall clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns a Clock backed by the system clock.
func NewClock() Clock { return realClock{} }

// DateKey returns the local calendar date of t as a zero-padded YYYY-MM-DD
// string. No time-zone negotiation: "local" is the process's local time,
// which is what daily counters bucket by.
func DateKey(t time.Time) string {
	return t.Local().Format(dateKeyLayout)
}

// TodayKey returns the date key for the clock's current time.
func TodayKey(c Clock) string {
	return DateKey(c.Now())
}
