package payment

import (
	"time"

	"github.com/google/uuid"
)

// Checkout session statuses. Sessions start pending and move exactly once
// to paid or failed.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// CheckoutSession tracks one attempt to purchase a plan. SessionID is our
// own identifier, handed to the gateway and echoed back by its webhooks.
type CheckoutSession struct {
	SessionID         string    `json:"session_id" gorm:"primaryKey"`
	UserID            uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	PlanID            int64     `json:"plan_id" gorm:"not null"`
	Provider          string    `json:"provider" gorm:"not null"`
	ProviderSessionID string    `json:"provider_session_id"`
	Status            string    `json:"status" gorm:"not null;default:'pending'"`
	AmountCents       int64     `json:"amount_cents" gorm:"not null"`
	Currency          string    `json:"currency" gorm:"not null"`
	CheckoutURL       string    `json:"checkout_url"`
	RawMeta           []byte    `json:"-" gorm:"type:jsonb"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the table name for CheckoutSession.
func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}
