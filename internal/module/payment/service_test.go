package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/server/internal/module/billing"
	"github.com/postforge/server/internal/module/payment/provider"
	"github.com/postforge/server/internal/shared/logger"
)

// fakeSessionRepo is an in-memory payment Repository with the same
// settled-once transition semantics as the SQL implementation.
type fakeSessionRepo struct {
	sessions map[string]*CheckoutSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*CheckoutSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *CheckoutSession) error {
	r.sessions[s.SessionID] = s
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, sessionID string) (*CheckoutSession, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *CheckoutSession) error {
	r.sessions[s.SessionID] = s
	return nil
}

func (r *fakeSessionRepo) transition(sessionID, to string) (bool, error) {
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != StatusPending {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (r *fakeSessionRepo) MarkPaid(_ context.Context, sessionID string) (bool, error) {
	return r.transition(sessionID, StatusPaid)
}

func (r *fakeSessionRepo) MarkFailed(_ context.Context, sessionID string) (bool, error) {
	return r.transition(sessionID, StatusFailed)
}

// fakeCatalog serves one plan.
type fakeCatalog struct {
	plan *billing.Plan
}

func (f *fakeCatalog) GetPlan(_ context.Context, id int64) (*billing.Plan, error) {
	if f.plan == nil || f.plan.ID != id {
		return nil, billing.ErrPlanNotFound
	}
	return f.plan, nil
}

// fakeActivator records activations.
type fakeActivator struct {
	activations []activation
	err         error
}

type activation struct {
	months        int
	provider      string
	transactionID string
}

func (f *fakeActivator) Activate(_ context.Context, _ uuid.UUID, _ *int64, months int, providerName, transactionID string) (*billing.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.activations = append(f.activations, activation{
		months:        months,
		provider:      providerName,
		transactionID: transactionID,
	})
	return &billing.Subscription{}, nil
}

type paymentFixture struct {
	service   *Service
	repo      *fakeSessionRepo
	registry  *Registry
	activator *fakeActivator
	plan      *billing.Plan
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	repo := newFakeSessionRepo()
	plan := &billing.Plan{
		ID:             7,
		Code:           "pro-quarterly",
		Name:           "Pro Quarterly",
		PriceCents:     2900,
		Currency:       "usd",
		DurationMonths: 3,
		IsActive:       true,
	}
	activator := &fakeActivator{}

	registry := NewRegistry()
	registry.Register(provider.NewStubProvider("http://localhost:8080"))

	service := NewService(repo, registry, &fakeCatalog{plan: plan}, activator, Config{
		DefaultProvider: "stub",
		SuccessURL:      "http://localhost:8080/success",
		CancelURL:       "http://localhost:8080/cancel",
	}, nil, logger.New(&logger.Config{Level: "error"}))

	return &paymentFixture{service: service, repo: repo, registry: registry, activator: activator, plan: plan}
}

func (f *paymentFixture) checkout(t *testing.T) *CheckoutSession {
	t.Helper()
	session, err := f.service.CreateCheckoutSession(context.Background(), uuid.New(), "buyer@example.com", f.plan.ID)
	require.NoError(t, err)
	return session
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)

	assert.Equal(t, StatusPending, session.Status)
	assert.Equal(t, "stub", session.Provider)
	assert.Equal(t, int64(2900), session.AmountCents)
	assert.Contains(t, session.CheckoutURL, session.SessionID)
}

func TestCreateCheckoutSessionUnknownPlan(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.service.CreateCheckoutSession(context.Background(), uuid.New(), "buyer@example.com", 999)
	assert.ErrorIs(t, err, billing.ErrPlanNotFound)
}

func TestMarkPaidActivatesOnce(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)
	ctx := context.Background()

	require.NoError(t, f.service.MarkPaid(ctx, session.SessionID))
	require.NoError(t, f.service.MarkPaid(ctx, session.SessionID), "repeat settle is a no-op")

	require.Len(t, f.activator.activations, 1, "plan duration applied exactly once")
	act := f.activator.activations[0]
	assert.Equal(t, 3, act.months)
	assert.Equal(t, "stub", act.provider)
	assert.Equal(t, session.SessionID, act.transactionID, "activation is traceable to its payment")
	stored, _ := f.repo.Get(ctx, session.SessionID)
	assert.Equal(t, StatusPaid, stored.Status)
}

func TestMarkPaidUnknownSession(t *testing.T) {
	f := newPaymentFixture(t)
	err := f.service.MarkPaid(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMarkFailedThenPaidDoesNotActivate(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)
	ctx := context.Background()

	require.NoError(t, f.service.MarkFailed(ctx, session.SessionID))
	require.NoError(t, f.service.MarkPaid(ctx, session.SessionID))

	assert.Empty(t, f.activator.activations, "a settled session never activates")
	stored, _ := f.repo.Get(ctx, session.SessionID)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestHandleCallbackSettlesStubSession(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)
	ctx := context.Background()

	settled, err := f.service.HandleCallback(ctx, session.SessionID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, settled.Status)
	assert.Len(t, f.activator.activations, 1)
}

func TestHandleCallbackCancelFailsStubSession(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)

	settled, err := f.service.HandleCallback(context.Background(), session.SessionID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, settled.Status)
	assert.Empty(t, f.activator.activations)
}

func TestHandleCallbackDoesNotSettleWebhookProvider(t *testing.T) {
	f := newPaymentFixture(t)
	f.registry.Register(provider.NewStripeProvider(&provider.StripeConfig{}))
	session := f.checkout(t)
	ctx := context.Background()

	// Sessions opened with a webhook-settled gateway must not be paid off
	// a client-supplied outcome, even a "success" one.
	stored, _ := f.repo.Get(ctx, session.SessionID)
	stored.Provider = "stripe"
	require.NoError(t, f.repo.Update(ctx, stored))

	result, err := f.service.HandleCallback(ctx, session.SessionID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, result.Status, "callback reports status without settling")
	assert.Empty(t, f.activator.activations)
}

func TestHandleCallbackUnknownSession(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.service.HandleCallback(context.Background(), "nope", true)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHandleWebhookPaid(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)

	payload := []byte(`{"type":"payment","session_id":"` + session.SessionID + `","status":"paid"}`)
	result := f.service.HandleWebhook(context.Background(), "stub", payload, nil)

	assert.True(t, result.Processed)
	assert.Len(t, f.activator.activations, 1)
}

func TestHandleWebhookDuplicateDelivery(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.checkout(t)
	payload := []byte(`{"type":"payment","session_id":"` + session.SessionID + `","status":"paid"}`)
	ctx := context.Background()

	first := f.service.HandleWebhook(ctx, "stub", payload, nil)
	second := f.service.HandleWebhook(ctx, "stub", payload, nil)

	assert.True(t, first.Processed)
	assert.True(t, second.Processed, "duplicates are acknowledged")
	assert.Len(t, f.activator.activations, 1, "but never activate twice")
}

func TestHandleWebhookUnknownProviderAcks(t *testing.T) {
	f := newPaymentFixture(t)
	result := f.service.HandleWebhook(context.Background(), "nonesuch", []byte(`{}`), nil)
	assert.False(t, result.Processed)
}

func TestHandleWebhookMalformedPayloadAcks(t *testing.T) {
	f := newPaymentFixture(t)
	result := f.service.HandleWebhook(context.Background(), "stub", []byte(`not json`), nil)
	assert.False(t, result.Processed)
}

func TestHandleWebhookActivationFailureStillAcks(t *testing.T) {
	f := newPaymentFixture(t)
	f.activator.err = errors.New("billing down")
	session := f.checkout(t)

	payload := []byte(`{"type":"payment","session_id":"` + session.SessionID + `","status":"paid"}`)
	result := f.service.HandleWebhook(context.Background(), "stub", payload, nil)

	assert.False(t, result.Processed)
	assert.Equal(t, "settlement error", result.Detail)
}
