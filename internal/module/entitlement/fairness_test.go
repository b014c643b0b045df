package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/server/internal/shared/logger"
)

func newFairnessFixture(enforce bool) (*FairUsageChecker, *fakeUsageRepo) {
	clock := fixedClock{now: time.Date(2025, 5, 10, 12, 0, 0, 0, time.Local)}
	repo := newFakeUsageRepo(clock)
	checker := NewFairUsageChecker(repo, FairUsageConfig{
		Enforce:           enforce,
		ChatWarnAt:        200,
		ContentWarnAt:     100,
		ChatThrottleAt:    500,
		ContentThrottleAt: 250,
	}, logger.New(&logger.Config{Level: "error"}))
	return checker, repo
}

func TestFairUsageUnderWarnThreshold(t *testing.T) {
	checker, repo := newFairnessFixture(true)
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindChat, 199))

	fair, err := checker.Check(ctx, id, UsageKindChat)
	require.NoError(t, err)
	assert.False(t, fair.Warn)
	assert.False(t, fair.Throttled)
	assert.Equal(t, 199, fair.Usage)
}

func TestFairUsageWarnIsNotThrottle(t *testing.T) {
	checker, repo := newFairnessFixture(true)
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindChat, 200))

	fair, err := checker.Check(ctx, id, UsageKindChat)
	require.NoError(t, err)
	assert.True(t, fair.Warn)
	assert.False(t, fair.Throttled)
}

func TestFairUsageHardCeilingThrottles(t *testing.T) {
	checker, repo := newFairnessFixture(true)
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindChat, 500))

	fair, err := checker.Check(ctx, id, UsageKindChat)
	require.NoError(t, err)
	assert.True(t, fair.Warn)
	assert.True(t, fair.Throttled)
}

func TestFairUsageKillSwitchDisablesThrottle(t *testing.T) {
	checker, repo := newFairnessFixture(false)
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindChat, 1000))

	fair, err := checker.Check(ctx, id, UsageKindChat)
	require.NoError(t, err)
	assert.True(t, fair.Warn, "warn still fires with enforcement off")
	assert.False(t, fair.Throttled)
}

func TestFairUsageContentThresholds(t *testing.T) {
	checker, repo := newFairnessFixture(true)
	id := uuid.New()
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindContent, 250))

	fair, err := checker.Check(ctx, id, UsageKindContent)
	require.NoError(t, err)
	assert.True(t, fair.Throttled)
}
