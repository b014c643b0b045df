package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/postforge/server/internal/module/billing"
	"github.com/postforge/server/internal/module/payment/provider"
	"github.com/postforge/server/internal/shared/logger"
	"github.com/postforge/server/internal/utils/metrics"
)

// PlanCatalog is the slice of the billing module used to price checkouts.
// billing.Service satisfies it.
type PlanCatalog interface {
	GetPlan(ctx context.Context, id int64) (*billing.Plan, error)
}

// SubscriptionActivator grants a subscription after a confirmed payment.
// billing.Service satisfies it.
type SubscriptionActivator interface {
	Activate(ctx context.Context, userID uuid.UUID, planID *int64, months int, providerName, transactionID string) (*billing.Subscription, error)
}

// Config holds payment service configuration.
type Config struct {
	// DefaultProvider is the provider new checkouts are created with.
	DefaultProvider string
	SuccessURL      string
	CancelURL       string
}

// WebhookResult summarizes how a webhook delivery was handled. Webhooks are
// always acknowledged; the result is for logging and metrics only.
type WebhookResult struct {
	Processed bool
	SessionID string
	Detail    string
}

// Service manages checkout sessions and settles them from callbacks and
// webhooks.
type Service struct {
	repo      Repository
	registry  *Registry
	plans     PlanCatalog
	activator SubscriptionActivator
	config    Config
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewService(
	repo Repository,
	registry *Registry,
	plans PlanCatalog,
	activator SubscriptionActivator,
	config Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		registry:  registry,
		plans:     plans,
		activator: activator,
		config:    config,
		metrics:   m,
		logger:    log,
	}
}

// CreateCheckoutSession opens a pending checkout for the plan with the
// configured provider and returns the session including its checkout URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, userEmail string, planID int64) (*CheckoutSession, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	prov, err := s.registry.Get(s.config.DefaultProvider)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	created, err := prov.CreateCheckoutSession(ctx, &provider.CreateSessionRequest{
		SessionID:  sessionID,
		UserEmail:  userEmail,
		PlanCode:   plan.Code,
		PlanName:   plan.Name,
		PriceCents: plan.PriceCents,
		Currency:   plan.Currency,
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("provider checkout: %w", err)
	}

	session := &CheckoutSession{
		SessionID:         sessionID,
		UserID:            userID,
		PlanID:            plan.ID,
		Provider:          prov.Name(),
		ProviderSessionID: created.ProviderSessionID,
		Status:            StatusPending,
		AmountCents:       plan.PriceCents,
		Currency:          plan.Currency,
		CheckoutURL:       created.CheckoutURL,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persist checkout session: %w", err)
	}

	s.recordCheckout(prov.Name(), StatusPending)
	s.logger.InfoContext(ctx, "checkout session created",
		"session_id", sessionID,
		"user_id", userID.String(),
		"plan_id", plan.ID,
		"provider", prov.Name(),
	)
	return session, nil
}

// GetCheckoutStatus returns the checkout session, or ErrSessionNotFound.
func (s *Service) GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// MarkPaid settles the session as paid and activates the purchased plan.
// Repeat calls for an already settled session are no-ops, so double webhook
// deliveries and a webhook racing the success callback activate at most
// once.
func (s *Service) MarkPaid(ctx context.Context, sessionID string) error {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != StatusPending {
		return nil
	}

	won, err := s.repo.MarkPaid(ctx, sessionID)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	months := 1
	planID := &session.PlanID
	if plan, err := s.plans.GetPlan(ctx, session.PlanID); err == nil {
		months = plan.DurationMonths
	} else {
		s.logger.ErrorContext(ctx, "plan lookup for activation, defaulting to one month",
			"session_id", sessionID, "plan_id", session.PlanID, logger.Err(err))
	}

	if _, err := s.activator.Activate(ctx, session.UserID, planID, months, session.Provider, sessionID); err != nil {
		// The session is already marked paid. Surface the error so the
		// caller can alert; the money was taken but access was not granted.
		return fmt.Errorf("activate subscription for paid session %s: %w", sessionID, err)
	}

	s.recordCheckout(session.Provider, StatusPaid)
	s.logger.InfoContext(ctx, "checkout session paid",
		"session_id", sessionID, "user_id", session.UserID.String())
	return nil
}

// MarkFailed settles the session as failed. Already settled sessions are a
// no-op.
func (s *Service) MarkFailed(ctx context.Context, sessionID string) error {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	won, err := s.repo.MarkFailed(ctx, sessionID)
	if err != nil {
		return err
	}
	if won {
		s.recordCheckout(session.Provider, StatusFailed)
		s.logger.InfoContext(ctx, "checkout session failed",
			"session_id", sessionID, "user_id", session.UserID.String())
	}
	return nil
}

// HandleCallback processes the user landing back from the gateway. The
// outcome is client input, so it only settles sessions whose provider has
// no webhook channel; for everyone else the signed webhook is the sole
// settlement path and the callback just reports current status.
func (s *Service) HandleCallback(ctx context.Context, sessionID string, success bool) (*CheckoutSession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	prov, err := s.registry.Get(session.Provider)
	if err != nil || !prov.SettlesOnCallback() {
		return session, nil
	}

	if success {
		err = s.MarkPaid(ctx, sessionID)
	} else {
		err = s.MarkFailed(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return s.GetCheckoutStatus(ctx, sessionID)
}

// HandleWebhook processes one raw webhook delivery for the named provider.
// It never returns an error: gateways retry on non-2xx responses, and a
// malformed or irrelevant delivery will not become well-formed on retry.
// Internal failures are logged and acknowledged anyway.
func (s *Service) HandleWebhook(ctx context.Context, providerName string, payload []byte, headers map[string]string) *WebhookResult {
	prov, err := s.registry.Get(providerName)
	if err != nil {
		s.recordWebhook(providerName, "ignored")
		return &WebhookResult{Detail: "unknown provider"}
	}

	event, err := prov.InterpretWebhook(payload, headers)
	if err != nil {
		s.recordWebhook(providerName, "ignored")
		s.logger.InfoContext(ctx, "webhook ignored",
			"provider", providerName, logger.Err(err))
		return &WebhookResult{Detail: "unrecognized payload"}
	}

	if err := s.attachRawPayload(ctx, event.SessionID, payload); err != nil {
		s.logger.ErrorContext(ctx, "store webhook payload",
			"session_id", event.SessionID, logger.Err(err))
	}

	if event.Paid {
		err = s.MarkPaid(ctx, event.SessionID)
	} else {
		err = s.MarkFailed(ctx, event.SessionID)
	}
	if err != nil {
		s.recordWebhook(providerName, "failed")
		s.logger.ErrorContext(ctx, "webhook settlement",
			"provider", providerName,
			"session_id", event.SessionID,
			"paid", event.Paid,
			logger.Err(err),
		)
		return &WebhookResult{SessionID: event.SessionID, Detail: "settlement error"}
	}

	s.recordWebhook(providerName, "processed")
	return &WebhookResult{Processed: true, SessionID: event.SessionID}
}

// attachRawPayload stores the last webhook body on the session for audit.
func (s *Service) attachRawPayload(ctx context.Context, sessionID string, payload []byte) error {
	if !json.Valid(payload) {
		return nil
	}
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil || session == nil {
		return err
	}
	session.RawMeta = payload
	return s.repo.Update(ctx, session)
}

func (s *Service) recordCheckout(provider, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CheckoutSessionsTotal.WithLabelValues(provider, status).Inc()
}

func (s *Service) recordWebhook(provider, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.WebhookEventsTotal.WithLabelValues(provider, result).Inc()
}
