package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// UsageScope selects which daily counter table a request touches. Trial and
// subscriber consumption are tracked in separate tables so historical trial
// usage never pollutes a subscriber's fair-usage accounting.
type UsageScope string

const (
	UsageScopeTrial      UsageScope = "trial"
	UsageScopeSubscriber UsageScope = "subscriber"
)

// TableName returns the counter table for the scope.
func (s UsageScope) TableName() string {
	if s == UsageScopeSubscriber {
		return "subscriber_daily_usage"
	}
	return "trial_daily_usage"
}

// UsageKind identifies which counter a request consumes.
type UsageKind string

const (
	UsageKindChat    UsageKind = "chat"
	UsageKindContent UsageKind = "content"
)

// Column returns the counter column for the kind.
func (k UsageKind) Column() string {
	if k == UsageKindContent {
		return "content_used"
	}
	return "chat_used"
}

// DailyUsage is one user's counters for one local calendar day. The same
// shape backs both scope tables; at most one row exists per
// (user_id, date_key) per table.
type DailyUsage struct {
	ID          int64     `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_date"`
	DateKey     string    `json:"date_key" gorm:"column:date_key;not null;uniqueIndex:idx_usage_user_date"`
	ChatUsed    int       `json:"chat_used" gorm:"not null;default:0"`
	ContentUsed int       `json:"content_used" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

// Used returns the counter value for the given kind.
func (d *DailyUsage) Used(kind UsageKind) int {
	if kind == UsageKindContent {
		return d.ContentUsed
	}
	return d.ChatUsed
}
