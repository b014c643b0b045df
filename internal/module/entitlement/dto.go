package entitlement

import "time"

// DailyUsageSnapshot summarizes today's trial counters and what is left of
// the configured daily maxima.
type DailyUsageSnapshot struct {
	DateKey               string `json:"date_key"`
	ChatUsedToday         int    `json:"chat_used_today"`
	ContentUsedToday      int    `json:"content_used_today"`
	ChatRemainingToday    int    `json:"chat_remaining_today"`
	ContentRemainingToday int    `json:"content_remaining_today"`
}

// FairUsage is the result of a subscriber fair-usage check.
type FairUsage struct {
	Warn      bool `json:"warn"`
	Throttled bool `json:"throttled"`
	Usage     int  `json:"usage"`
}

// FairUsageSnapshot carries fair-usage state for both resource kinds.
type FairUsageSnapshot struct {
	Chat    FairUsage `json:"chat"`
	Content FairUsage `json:"content"`
}

// Snapshot is the computed, point-in-time summary of what a user may do.
//
// RequiresRenewalBlock and CanUseTrialToday are mutually exclusive by
// construction; together with IsAdmin and HasActiveSubscription they place
// every verified user in exactly one of four states: admin, active
// subscriber, in-trial, or renewal-blocked.
type Snapshot struct {
	IsAdmin               bool               `json:"is_admin"`
	IsVerified            bool               `json:"is_verified"`
	HasActiveSubscription bool               `json:"has_active_subscription"`
	SubscriptionEndAt     *time.Time         `json:"subscription_end_at,omitempty"`
	HasUsedTrial          bool               `json:"has_used_trial"`
	DailyUsage            DailyUsageSnapshot `json:"daily_usage"`
	RequiresRenewalBlock  bool               `json:"requires_renewal_block"`
	CanUseTrialToday      bool               `json:"can_use_trial_today"`
	SubscriberFairUsage   *FairUsageSnapshot `json:"subscriber_fair_usage,omitempty"`
}
