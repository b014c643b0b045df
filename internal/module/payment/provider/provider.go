// Package provider abstracts external payment gateways behind a small
// interface so the payment module never talks to a gateway SDK directly.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when a provider is selected but its
	// credentials are missing.
	ErrNotConfigured = errors.New("payment provider not configured")
	// ErrUnrecognizedPayload is returned when a webhook body cannot be
	// attributed to a known event shape.
	ErrUnrecognizedPayload = errors.New("unrecognized webhook payload")
)

// CreateSessionRequest carries everything a gateway needs to open a
// checkout session.
type CreateSessionRequest struct {
	SessionID  string
	UserEmail  string
	PlanCode   string
	PlanName   string
	PriceCents int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Session is the gateway's view of a newly created checkout session.
type Session struct {
	// ProviderSessionID is the gateway's identifier for the session. For
	// gateways without their own IDs it echoes the request's SessionID.
	ProviderSessionID string
	// CheckoutURL is where the user completes payment.
	CheckoutURL string
}

// WebhookEvent is the provider-neutral interpretation of a gateway webhook.
type WebhookEvent struct {
	SessionID string
	Paid      bool
}

// Provider is a payment gateway.
type Provider interface {
	// Name identifies the provider in session records and webhook routes.
	Name() string
	// SettlesOnCallback reports whether the redirect back from checkout is
	// trusted to settle the session. Gateways with signed webhooks return
	// false; their callback is informational only.
	SettlesOnCallback() bool
	// CreateCheckoutSession opens a checkout session at the gateway.
	CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error)
	// InterpretWebhook parses and verifies a raw webhook delivery. It
	// returns ErrUnrecognizedPayload for events the engine does not care
	// about.
	InterpretWebhook(payload []byte, headers map[string]string) (*WebhookEvent, error)
}
