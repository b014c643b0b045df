package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsActiveAt(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{"nil subscription", nil, false},
		{"active with future end", &Subscription{Status: StatusActive, EndAt: &future}, true},
		{"active with past end", &Subscription{Status: StatusActive, EndAt: &past}, false},
		{"active without end date", &Subscription{Status: StatusActive}, false},
		{"trial row with future end", &Subscription{Status: StatusTrial, EndAt: &future}, false},
		{"expired row with future end", &Subscription{Status: StatusExpired, EndAt: &future}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.IsActiveAt(now))
		})
	}
}

func TestIsActiveAtEndIsExclusive(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	sub := &Subscription{Status: StatusActive, EndAt: &now}
	assert.False(t, sub.IsActiveAt(now), "a subscription ending exactly now no longer grants access")
}
