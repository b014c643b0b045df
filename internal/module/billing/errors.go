package billing

import "errors"

var (
	// ErrPlanNotFound is returned when a plan does not exist or is inactive.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrNoSubscription is returned when a user has no subscription history.
	ErrNoSubscription = errors.New("no subscription")
)
