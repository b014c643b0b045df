package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestDateKey(t *testing.T) {
	key := DateKey(time.Date(2025, 3, 7, 15, 4, 5, 0, time.Local))
	assert.Equal(t, "2025-03-07", key)
}

func TestDateKeyJustBeforeMidnight(t *testing.T) {
	day := time.Date(2025, 6, 30, 23, 59, 59, 0, time.Local)
	next := day.Add(time.Second)

	assert.Equal(t, "2025-06-30", DateKey(day))
	assert.Equal(t, "2025-07-01", DateKey(next))
}

func TestTodayKeyUsesClock(t *testing.T) {
	clock := fixedClock{now: time.Date(2025, 1, 2, 8, 0, 0, 0, time.Local)}
	assert.Equal(t, "2025-01-02", TodayKey(clock))
}
