package entitlement

import (
	"errors"
	"net/http"
)

// Gate denial codes. These are expected, user-facing conditions: the first
// three mean "complete verification or subscribe", the last is a retryable
// throttle for paying subscribers.
const (
	CodeOTPRequired          = "OTP_REQUIRED"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeTrialLimitReached    = "TRIAL_LIMIT_REACHED"
	CodeFairUsageThrottled   = "FAIR_USAGE_THROTTLED"
)

// GateError is a structured gate denial carrying a machine-readable code
// and an HTTP status hint. Gates fail loudly with this type; they never
// return a false/ok value that could be mistaken for success.
type GateError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return e.Message
}

// AsGateError unwraps err into a *GateError if it is one.
func AsGateError(err error) (*GateError, bool) {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func errOTPRequired() *GateError {
	return &GateError{
		Code:    CodeOTPRequired,
		Status:  http.StatusForbidden,
		Message: "verify your account to continue",
	}
}

func errSubscriptionRequired() *GateError {
	return &GateError{
		Code:    CodeSubscriptionRequired,
		Status:  http.StatusForbidden,
		Message: "your free trial has been used, subscribe to continue",
	}
}

func errTrialLimitReached() *GateError {
	return &GateError{
		Code:    CodeTrialLimitReached,
		Status:  http.StatusForbidden,
		Message: "you have reached today's free limit, subscribe for unlimited access",
	}
}

func errFairUsageThrottled() *GateError {
	return &GateError{
		Code:    CodeFairUsageThrottled,
		Status:  http.StatusTooManyRequests,
		Message: "usage is unusually high, try again in a minute",
	}
}
