package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// StubProvider is a fake gateway for local development and tests. Checkout
// never leaves the app: the session URL points at a local mock page, and
// payments complete via a hand-posted webhook.
type StubProvider struct {
	baseURL string
}

// NewStubProvider creates a stub provider. baseURL is the app's own base
// URL, used to build the mock checkout page link.
func NewStubProvider(baseURL string) *StubProvider {
	return &StubProvider{baseURL: baseURL}
}

func (p *StubProvider) Name() string {
	return "stub"
}

// SettlesOnCallback is true: the stub has no real gateway behind it, so the
// mock checkout page's redirect is the only settlement signal.
func (p *StubProvider) SettlesOnCallback() bool {
	return true
}

func (p *StubProvider) CreateCheckoutSession(_ context.Context, req *CreateSessionRequest) (*Session, error) {
	providerID := "stub_" + uuid.NewString()
	return &Session{
		ProviderSessionID: providerID,
		CheckoutURL:       fmt.Sprintf("%s/mock-checkout?session_id=%s", p.baseURL, req.SessionID),
	}, nil
}

type stubWebhookPayload struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// InterpretWebhook accepts payloads of the form
//
//	{"type": "payment", "session_id": "...", "status": "paid" | "failed"}
//
// and rejects everything else as unrecognized.
func (p *StubProvider) InterpretWebhook(payload []byte, _ map[string]string) (*WebhookEvent, error) {
	var body stubWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ErrUnrecognizedPayload
	}
	if body.Type != "payment" || body.SessionID == "" {
		return nil, ErrUnrecognizedPayload
	}
	switch body.Status {
	case "paid":
		return &WebhookEvent{SessionID: body.SessionID, Paid: true}, nil
	case "failed":
		return &WebhookEvent{SessionID: body.SessionID, Paid: false}, nil
	default:
		return nil, ErrUnrecognizedPayload
	}
}
