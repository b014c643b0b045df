package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/postforge/server/internal/module/user"
	"github.com/postforge/server/internal/shared/logger"
	"github.com/postforge/server/internal/utils/metrics"
)

// Config holds the trial ceilings and the bootstrap admin email.
type Config struct {
	MaxChatPerDay    int
	MaxContentPerDay int
	AdminEmail       string
}

// UserDirectory is the slice of the user module the gates need.
// user.Repository satisfies it.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	MarkTrialUsed(ctx context.Context, id uuid.UUID) error
}

// SubscriptionSource reports subscription state for a user. The billing
// module provides the production implementation.
type SubscriptionSource interface {
	// ActiveSubscriptionEnd returns the end time of the user's active
	// subscription, or nil when no subscription is currently active.
	ActiveSubscriptionEnd(ctx context.Context, userID uuid.UUID, now time.Time) (*time.Time, error)
}

// Decision records which branch of the gate admitted the request. Callers
// use it after a successful action to pick which counter to charge: admins
// are never charged, subscribers charge the subscriber scope, trial users
// charge the trial scope.
type Decision struct {
	Admin      bool
	Subscriber bool
}

// Service implements the entitlement gates and the snapshot endpoint.
type Service struct {
	repo     Repository
	users    UserDirectory
	subs     SubscriptionSource
	fairness *FairUsageChecker
	config   Config
	clock    Clock
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(
	repo Repository,
	users UserDirectory,
	subs SubscriptionSource,
	fairness *FairUsageChecker,
	config Config,
	clock Clock,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		subs:     subs,
		fairness: fairness,
		config:   config,
		clock:    clock,
		metrics:  m,
		logger:   log,
	}
}

// Authorize decides whether userID may perform one action of the given kind
// right now. It returns a *GateError on denial and a Decision on success.
//
// Checks run in a fixed order so each user hits the single most relevant
// denial: admin bypass, then active subscription, then verification, then
// the lifetime trial flag, and only then today's trial counter.
func (s *Service) Authorize(ctx context.Context, userID uuid.UUID, kind UsageKind) (*Decision, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.IsAdministrator(u, s.config.AdminEmail) {
		s.recordGate(kind, "allow")
		return &Decision{Admin: true}, nil
	}

	active, err := s.hasActiveSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active {
		s.recordGate(kind, "allow")
		return &Decision{Subscriber: true}, nil
	}

	if !u.IsVerified {
		s.recordGate(kind, CodeOTPRequired)
		return nil, errOTPRequired()
	}

	if u.HasUsedTrial {
		s.recordGate(kind, CodeSubscriptionRequired)
		return nil, errSubscriptionRequired()
	}

	usage, err := s.repo.GetUsage(ctx, UsageScopeTrial, userID)
	if err != nil {
		return nil, fmt.Errorf("read trial usage: %w", err)
	}
	if usage.Used(kind) >= s.dailyMax(kind) {
		// The user exhausted a daily ceiling at least once, which is the
		// definition of a spent trial. Flip the lifetime flag here so the
		// next denial is SUBSCRIPTION_REQUIRED instead of the daily limit.
		if err := s.users.MarkTrialUsed(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "mark trial used",
				"user_id", userID.String(), logger.Err(err))
		}
		s.recordGate(kind, CodeTrialLimitReached)
		return nil, errTrialLimitReached()
	}

	s.recordGate(kind, "allow")
	return &Decision{}, nil
}

// EnforceFairUsage applies the subscriber throttle for kind. It returns the
// computed FairUsage either way; the error is non-nil only when the hard
// ceiling is crossed with enforcement on.
func (s *Service) EnforceFairUsage(ctx context.Context, userID uuid.UUID, kind UsageKind) (FairUsage, error) {
	fair, err := s.fairness.Check(ctx, userID, kind)
	if err != nil {
		return FairUsage{}, fmt.Errorf("fair usage check: %w", err)
	}
	s.recordFairUsage(kind, fair)
	if fair.Throttled {
		return fair, errFairUsageThrottled()
	}
	return fair, nil
}

// Charge adds one completed action of the given kind to the counter the
// decision selected. Admin requests are never charged.
func (s *Service) Charge(ctx context.Context, userID uuid.UUID, kind UsageKind, d *Decision) error {
	if d.Admin {
		return nil
	}
	scope := UsageScopeTrial
	if d.Subscriber {
		scope = UsageScopeSubscriber
	}
	if err := s.repo.Increment(ctx, scope, userID, kind, 1); err != nil {
		return fmt.Errorf("increment %s usage: %w", scope, err)
	}
	return nil
}

// GetEntitlements computes a point-in-time snapshot of what the user can do.
// The snapshot is advisory; the gates re-derive everything on each action.
func (s *Service) GetEntitlements(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	now := s.clock.Now()
	endAt, err := s.subs.ActiveSubscriptionEnd(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	active := endAt != nil

	usage, err := s.repo.GetUsage(ctx, UsageScopeTrial, userID)
	if err != nil {
		return nil, fmt.Errorf("read trial usage: %w", err)
	}

	admin := user.IsAdministrator(u, s.config.AdminEmail)
	chatRemaining := clampRemaining(s.config.MaxChatPerDay, usage.ChatUsed)
	contentRemaining := clampRemaining(s.config.MaxContentPerDay, usage.ContentUsed)

	snap := &Snapshot{
		IsAdmin:               admin,
		IsVerified:            u.IsVerified,
		HasActiveSubscription: active,
		SubscriptionEndAt:     endAt,
		HasUsedTrial:          u.HasUsedTrial,
		DailyUsage: DailyUsageSnapshot{
			DateKey:               usage.DateKey,
			ChatUsedToday:         usage.ChatUsed,
			ContentUsedToday:      usage.ContentUsed,
			ChatRemainingToday:    chatRemaining,
			ContentRemainingToday: contentRemaining,
		},
		RequiresRenewalBlock: !admin && u.IsVerified && !active && u.HasUsedTrial,
		CanUseTrialToday: !admin && u.IsVerified && !active && !u.HasUsedTrial &&
			(chatRemaining > 0 || contentRemaining > 0),
	}

	if active {
		chatFair, err := s.fairness.Check(ctx, userID, UsageKindChat)
		if err != nil {
			return nil, fmt.Errorf("fair usage check: %w", err)
		}
		contentFair, err := s.fairness.Check(ctx, userID, UsageKindContent)
		if err != nil {
			return nil, fmt.Errorf("fair usage check: %w", err)
		}
		snap.SubscriberFairUsage = &FairUsageSnapshot{
			Chat:    chatFair,
			Content: contentFair,
		}
	}
	return snap, nil
}

// HasActiveSubscription reports whether the user holds a subscription that
// is active at the current time.
func (s *Service) HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.hasActiveSubscription(ctx, userID)
}

func (s *Service) hasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	endAt, err := s.subs.ActiveSubscriptionEnd(ctx, userID, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("load subscription: %w", err)
	}
	return endAt != nil, nil
}

func (s *Service) dailyMax(kind UsageKind) int {
	if kind == UsageKindChat {
		return s.config.MaxChatPerDay
	}
	return s.config.MaxContentPerDay
}

func (s *Service) recordGate(kind UsageKind, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.GateDecisionsTotal.WithLabelValues(string(kind), outcome).Inc()
}

func (s *Service) recordFairUsage(kind UsageKind, fair FairUsage) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case fair.Throttled:
		result = "throttled"
	case fair.Warn:
		result = "warn"
	}
	s.metrics.FairUsageTotal.WithLabelValues(string(kind), result).Inc()
}

func clampRemaining(max, used int) int {
	if used >= max {
		return 0
	}
	return max - used
}
