package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Subscription statuses.
const (
	StatusTrial   = "trial"
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Subscription is one entry in a user's append-only subscription history.
// Activations always insert a new row; the row with the highest ID is the
// user's current subscription.
type Subscription struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	PlanID           *int64     `json:"plan_id,omitempty"`
	Status           string     `json:"status" gorm:"not null;default:'trial'"`
	Provider         *string    `json:"provider,omitempty"`
	TransactionID    *string    `json:"transaction_id,omitempty" gorm:"index"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`
	LastReminderSent *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the table name for Subscription.
func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActiveAt reports whether the subscription grants access at the given
// time. A row missing its end date never grants access, regardless of
// status.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.Status == StatusActive && s.EndAt != nil && s.EndAt.After(now)
}

// Plan is a purchasable subscription plan. PriceCents is the charge amount
// in the smallest currency unit.
type Plan struct {
	ID             int64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Code           string         `json:"code" gorm:"uniqueIndex;not null"`
	Name           string         `json:"name" gorm:"not null"`
	Description    string         `json:"description"`
	PriceCents     int64          `json:"price_cents" gorm:"not null"`
	Currency       string         `json:"currency" gorm:"not null;default:'usd'"`
	DurationMonths int            `json:"duration_months" gorm:"not null;default:1"`
	Features       pq.StringArray `json:"features" gorm:"type:text[]"`
	IsActive       bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName returns the table name for Plan.
func (Plan) TableName() string {
	return "plans"
}
