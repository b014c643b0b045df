package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProvider implements the Provider interface for Stripe Checkout.
type StripeProvider struct {
	apiKey        string
	webhookSecret string
}

// StripeConfig holds Stripe configuration.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
}

// NewStripeProvider creates a new Stripe provider. An empty API key is
// allowed at construction time; calls will fail with ErrNotConfigured.
func NewStripeProvider(config *StripeConfig) *StripeProvider {
	if config.APIKey != "" {
		stripe.Key = config.APIKey
	}
	return &StripeProvider{
		apiKey:        config.APIKey,
		webhookSecret: config.WebhookSecret,
	}
}

// Name returns the provider name.
func (p *StripeProvider) Name() string {
	return "stripe"
}

// SettlesOnCallback is false: only the signature-verified webhook settles
// Stripe sessions. The success redirect carries no proof of payment.
func (p *StripeProvider) SettlesOnCallback() bool {
	return false
}

// CreateCheckoutSession opens a Stripe Checkout session priced inline from
// the plan. Our own session ID travels in the metadata and client reference
// so webhooks can be matched back without a Stripe lookup.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(req.UserEmail),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.SessionID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.PlanName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"session_id": req.SessionID,
			"plan_code":  req.PlanCode,
		},
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &Session{
		ProviderSessionID: s.ID,
		CheckoutURL:       s.URL,
	}, nil
}

// InterpretWebhook verifies the Stripe signature when a webhook secret is
// configured and maps checkout session events onto the engine's paid/failed
// outcomes. All other event types are unrecognized.
func (p *StripeProvider) InterpretWebhook(payload []byte, headers map[string]string) (*WebhookEvent, error) {
	var event stripe.Event
	if p.webhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, headers["Stripe-Signature"], p.webhookSecret)
		if err != nil {
			return nil, fmt.Errorf("verify stripe signature: %w", err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrUnrecognizedPayload
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
	default:
		return nil, ErrUnrecognizedPayload
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, ErrUnrecognizedPayload
	}

	sessionID := s.ClientReferenceID
	if sessionID == "" {
		sessionID = s.Metadata["session_id"]
	}
	if sessionID == "" {
		return nil, ErrUnrecognizedPayload
	}

	return &WebhookEvent{
		SessionID: sessionID,
		Paid:      event.Type == "checkout.session.completed",
	}, nil
}
