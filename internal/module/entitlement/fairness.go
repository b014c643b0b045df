package entitlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/postforge/server/internal/shared/logger"
)

// FairUsageConfig holds the soft and hard per-day ceilings applied to
// subscribers. Enforce is a kill switch: when false the thresholds are still
// evaluated for the Warn flag but Throttled is never set.
type FairUsageConfig struct {
	Enforce           bool
	ChatWarnAt        int
	ContentWarnAt     int
	ChatThrottleAt    int
	ContentThrottleAt int
}

// FairUsageChecker evaluates subscriber daily usage against soft and hard
// ceilings. Subscribers are never hard-capped the way trial users are; the
// throttle exists to keep individual accounts from dominating shared AI
// capacity.
type FairUsageChecker struct {
	repo   Repository
	config FairUsageConfig
	logger *logger.Logger
}

func NewFairUsageChecker(repo Repository, config FairUsageConfig, log *logger.Logger) *FairUsageChecker {
	return &FairUsageChecker{
		repo:   repo,
		config: config,
		logger: log,
	}
}

// Check reads today's subscriber-scope counter for kind and reports whether
// the user crossed the warn or throttle threshold. The counter reflects
// completed requests only, so the in-flight call is not counted.
func (f *FairUsageChecker) Check(ctx context.Context, userID uuid.UUID, kind UsageKind) (FairUsage, error) {
	usage, err := f.repo.GetUsage(ctx, UsageScopeSubscriber, userID)
	if err != nil {
		return FairUsage{}, err
	}

	used := usage.Used(kind)
	warnAt, throttleAt := f.thresholds(kind)

	result := FairUsage{
		Usage: used,
		Warn:  used >= warnAt,
	}
	if f.config.Enforce && used >= throttleAt {
		result.Throttled = true
	}

	if result.Warn {
		f.logger.WarnContext(ctx, "subscriber fair-usage threshold crossed",
			"user_id", userID.String(),
			"kind", string(kind),
			"usage", used,
			"throttled", result.Throttled,
		)
	}
	return result, nil
}

func (f *FairUsageChecker) thresholds(kind UsageKind) (warnAt, throttleAt int) {
	if kind == UsageKindChat {
		return f.config.ChatWarnAt, f.config.ChatThrottleAt
	}
	return f.config.ContentWarnAt, f.config.ContentThrottleAt
}
