package payment

// CreateCheckoutRequest starts a checkout for a plan.
type CreateCheckoutRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

// CheckoutResponse is returned after opening a checkout session.
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	Provider    string `json:"provider"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// StatusResponse reports the current state of a checkout session.
type StatusResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}
