package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubCreateCheckoutSession(t *testing.T) {
	p := NewStubProvider("http://localhost:8080")

	s, err := p.CreateCheckoutSession(context.Background(), &CreateSessionRequest{
		SessionID: "sess-123",
		PlanCode:  "pro",
	})
	require.NoError(t, err)
	assert.Contains(t, s.ProviderSessionID, "stub_")
	assert.Equal(t, "http://localhost:8080/mock-checkout?session_id=sess-123", s.CheckoutURL)
}

func TestStubInterpretWebhook(t *testing.T) {
	p := NewStubProvider("")

	tests := []struct {
		name    string
		payload string
		want    *WebhookEvent
	}{
		{"paid", `{"type":"payment","session_id":"s1","status":"paid"}`, &WebhookEvent{SessionID: "s1", Paid: true}},
		{"failed", `{"type":"payment","session_id":"s1","status":"failed"}`, &WebhookEvent{SessionID: "s1", Paid: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := p.InterpretWebhook([]byte(tt.payload), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, event)
		})
	}
}

func TestStubInterpretWebhookRejectsJunk(t *testing.T) {
	p := NewStubProvider("")

	for _, payload := range []string{
		`not json`,
		`{"type":"refund","session_id":"s1","status":"paid"}`,
		`{"type":"payment","status":"paid"}`,
		`{"type":"payment","session_id":"s1","status":"maybe"}`,
	} {
		_, err := p.InterpretWebhook([]byte(payload), nil)
		assert.ErrorIs(t, err, ErrUnrecognizedPayload, payload)
	}
}
