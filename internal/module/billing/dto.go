package billing

import "time"

// SubscriptionResponse is the API view of a user's current subscription.
type SubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
	IsActive     bool          `json:"is_active"`
	Now          time.Time     `json:"now"`
}
