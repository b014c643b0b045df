package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/postforge/server/internal/module/user"
	"github.com/postforge/server/internal/shared/logger"
	"github.com/postforge/server/internal/utils/metrics"
)

// UserDirectory is the slice of the user module billing needs.
// user.Repository satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkTrialUsed(ctx context.Context, id uuid.UUID) error
}

// ReminderSender sends renewal reminder emails.
type ReminderSender interface {
	SendRenewalReminderEmail(ctx context.Context, email, name string, daysLeft int) error
}

// Service manages subscription lifecycle and plans.
type Service struct {
	repo    Repository
	users   UserDirectory
	email   ReminderSender
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(
	repo Repository,
	users UserDirectory,
	email ReminderSender,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		email:   email,
		now:     time.Now,
		metrics: m,
		logger:  log,
	}
}

// Activate grants the user a paid subscription for the given number of
// months, starting now. A new history row is always inserted; earlier rows
// are left untouched so the history reflects every term that was paid for.
// providerName and transactionID record which gateway event paid for the
// term, tying each row back to its payment.
func (s *Service) Activate(ctx context.Context, userID uuid.UUID, planID *int64, months int, providerName, transactionID string) (*Subscription, error) {
	if months <= 0 {
		months = 1
	}
	start := s.now()
	end := start.AddDate(0, months, 0)

	sub := &Subscription{
		UserID:  userID,
		PlanID:  planID,
		Status:  StatusActive,
		StartAt: &start,
		EndAt:   &end,
	}
	if providerName != "" {
		sub.Provider = &providerName
	}
	if transactionID != "" {
		sub.TransactionID = &transactionID
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	// A paying user is past their trial by definition. The flag keeps the
	// gates from dropping them back into trial mode after expiry.
	if err := s.users.MarkTrialUsed(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "mark trial used after activation",
			"user_id", userID.String(), logger.Err(err))
	}

	if s.metrics != nil {
		s.metrics.SubscriptionActivation.Inc()
	}
	s.logger.InfoContext(ctx, "subscription activated",
		"user_id", userID.String(),
		"subscription_id", sub.ID,
		"months", months,
		"provider", providerName,
		"transaction_id", transactionID,
		"end_at", end,
	)
	return sub, nil
}

// GetCurrent returns the user's newest subscription row, or
// ErrNoSubscription when the user has never had one.
func (s *Service) GetCurrent(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNoSubscription
	}
	return sub, nil
}

// ActiveSubscriptionEnd returns the end time of the user's current
// subscription if it is active at now, or nil otherwise.
func (s *Service) ActiveSubscriptionEnd(ctx context.Context, userID uuid.UUID, now time.Time) (*time.Time, error) {
	sub, err := s.repo.GetCurrent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActiveAt(now) {
		return nil, nil
	}
	return sub.EndAt, nil
}

// Expire marks the user's current subscription expired in place, stamping
// end_at to now so the row stops granting access immediately. Users with no
// history are a no-op; any other current row is flipped regardless of its
// prior status.
func (s *Service) Expire(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.repo.GetCurrent(ctx, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}
	now := s.now()
	sub.Status = StatusExpired
	sub.EndAt = &now
	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("expire subscription: %w", err)
	}
	s.logger.InfoContext(ctx, "subscription expired",
		"user_id", userID.String(), "subscription_id", sub.ID)
	return nil
}

// GetPlan returns an active purchasable plan by ID.
func (s *Service) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ListPlans returns all active plans ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

// SendRenewalReminders emails every subscriber whose subscription ends
// within the window and has not been reminded recently. Failures on one
// subscriber do not stop the sweep.
func (s *Service) SendRenewalReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()
	subs, err := s.repo.ListExpiringActive(ctx, now, window)
	if err != nil {
		return 0, fmt.Errorf("list expiring subscriptions: %w", err)
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		u, err := s.users.GetByID(ctx, sub.UserID)
		if err != nil {
			s.logger.ErrorContext(ctx, "load user for renewal reminder",
				"user_id", sub.UserID.String(), logger.Err(err))
			continue
		}
		daysLeft := int(sub.EndAt.Sub(now).Hours() / 24)
		if err := s.email.SendRenewalReminderEmail(ctx, u.Email, u.Name, daysLeft); err != nil {
			s.logger.ErrorContext(ctx, "send renewal reminder",
				"user_id", sub.UserID.String(), logger.Err(err))
			continue
		}
		sub.LastReminderSent = &now
		if err := s.repo.Update(ctx, sub); err != nil {
			s.logger.ErrorContext(ctx, "stamp renewal reminder",
				"user_id", sub.UserID.String(), logger.Err(err))
		}
		sent++
	}
	return sent, nil
}
