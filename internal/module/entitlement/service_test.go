package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postforge/server/internal/module/user"
	"github.com/postforge/server/internal/shared/logger"
)

// fakeUsageRepo is an in-memory Repository keyed by scope and user.
type fakeUsageRepo struct {
	clock Clock
	rows  map[string]*DailyUsage
}

func newFakeUsageRepo(clock Clock) *fakeUsageRepo {
	return &fakeUsageRepo{clock: clock, rows: make(map[string]*DailyUsage)}
}

func (r *fakeUsageRepo) key(scope UsageScope, userID uuid.UUID) string {
	return string(scope) + "/" + userID.String() + "/" + TodayKey(r.clock)
}

func (r *fakeUsageRepo) GetOrCreateToday(_ context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error) {
	k := r.key(scope, userID)
	if row, ok := r.rows[k]; ok {
		return row, nil
	}
	row := &DailyUsage{UserID: userID, DateKey: TodayKey(r.clock)}
	r.rows[k] = row
	return row, nil
}

func (r *fakeUsageRepo) Increment(ctx context.Context, scope UsageScope, userID uuid.UUID, kind UsageKind, delta int) error {
	row, _ := r.GetOrCreateToday(ctx, scope, userID)
	if kind == UsageKindContent {
		row.ContentUsed += delta
	} else {
		row.ChatUsed += delta
	}
	return nil
}

func (r *fakeUsageRepo) GetUsage(_ context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error) {
	if row, ok := r.rows[r.key(scope, userID)]; ok {
		return row, nil
	}
	return &DailyUsage{UserID: userID, DateKey: TodayKey(r.clock)}, nil
}

// fakeUsers is an in-memory UserDirectory.
type fakeUsers struct {
	users map[uuid.UUID]*user.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) MarkTrialUsed(_ context.Context, id uuid.UUID) error {
	if u, ok := f.users[id]; ok {
		u.HasUsedTrial = true
	}
	return nil
}

// fakeSubs returns a fixed subscription end per user.
type fakeSubs struct {
	ends map[uuid.UUID]*time.Time
}

func (f *fakeSubs) ActiveSubscriptionEnd(_ context.Context, userID uuid.UUID, _ time.Time) (*time.Time, error) {
	return f.ends[userID], nil
}

type gateFixture struct {
	service *Service
	repo    *fakeUsageRepo
	users   *fakeUsers
	subs    *fakeSubs
	clock   fixedClock
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	clock := fixedClock{now: time.Date(2025, 5, 10, 12, 0, 0, 0, time.Local)}
	repo := newFakeUsageRepo(clock)
	users := &fakeUsers{users: make(map[uuid.UUID]*user.User)}
	subs := &fakeSubs{ends: make(map[uuid.UUID]*time.Time)}

	log := logger.New(&logger.Config{Level: "error"})
	fairness := NewFairUsageChecker(repo, FairUsageConfig{
		Enforce:           true,
		ChatWarnAt:        200,
		ContentWarnAt:     100,
		ChatThrottleAt:    500,
		ContentThrottleAt: 250,
	}, log)

	service := NewService(repo, users, subs, fairness, Config{
		MaxChatPerDay:    3,
		MaxContentPerDay: 3,
		AdminEmail:       "admin@example.com",
	}, clock, nil, log)

	return &gateFixture{service: service, repo: repo, users: users, subs: subs, clock: clock}
}

func (f *gateFixture) addUser(verified, usedTrial bool) uuid.UUID {
	id := uuid.New()
	f.users.users[id] = &user.User{
		ID:           id,
		Email:        id.String() + "@example.com",
		IsVerified:   verified,
		HasUsedTrial: usedTrial,
	}
	return id
}

func (f *gateFixture) subscribe(id uuid.UUID) {
	end := f.clock.now.AddDate(0, 1, 0)
	f.subs.ends[id] = &end
}

func TestAuthorizeAdminBypassesEverything(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(false, true)
	f.users.users[id].Email = "Admin@Example.com" // matched case-insensitively

	d, err := f.service.Authorize(context.Background(), id, UsageKindChat)
	require.NoError(t, err)
	assert.True(t, d.Admin)
}

func TestAuthorizeSubscriberSkipsTrialChecks(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, true)
	f.subscribe(id)

	d, err := f.service.Authorize(context.Background(), id, UsageKindContent)
	require.NoError(t, err)
	assert.True(t, d.Subscriber)
}

func TestAuthorizeUnverifiedDeniedBeforeTrialLimit(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(false, false)
	// Exhaust the counter first to prove verification is checked earlier.
	require.NoError(t, f.repo.Increment(context.Background(), UsageScopeTrial, id, UsageKindChat, 5))

	_, err := f.service.Authorize(context.Background(), id, UsageKindChat)
	ge, ok := AsGateError(err)
	require.True(t, ok)
	assert.Equal(t, CodeOTPRequired, ge.Code)
	assert.Equal(t, 403, ge.Status)
}

func TestAuthorizeSpentTrialRequiresSubscription(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, true)

	_, err := f.service.Authorize(context.Background(), id, UsageKindChat)
	ge, ok := AsGateError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSubscriptionRequired, ge.Code)
}

func TestAuthorizeTrialUnderLimitAllows(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, false)
	require.NoError(t, f.repo.Increment(context.Background(), UsageScopeTrial, id, UsageKindChat, 2))

	d, err := f.service.Authorize(context.Background(), id, UsageKindChat)
	require.NoError(t, err)
	assert.False(t, d.Admin)
	assert.False(t, d.Subscriber)
}

func TestAuthorizeTrialCeilingFlipsLifetimeFlag(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, false)
	require.NoError(t, f.repo.Increment(context.Background(), UsageScopeTrial, id, UsageKindContent, 3))

	_, err := f.service.Authorize(context.Background(), id, UsageKindContent)
	ge, ok := AsGateError(err)
	require.True(t, ok)
	assert.Equal(t, CodeTrialLimitReached, ge.Code)
	assert.True(t, f.users.users[id].HasUsedTrial, "ceiling hit must mark the trial spent")

	// The next denial comes from the lifetime flag, not the daily counter.
	_, err = f.service.Authorize(context.Background(), id, UsageKindContent)
	ge, ok = AsGateError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSubscriptionRequired, ge.Code)
}

func TestAuthorizeKindsCountedIndependently(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, false)
	require.NoError(t, f.repo.Increment(context.Background(), UsageScopeTrial, id, UsageKindChat, 3))

	// Chat is exhausted but content still has quota. The chat denial flips
	// the trial flag, so order matters: check content first.
	d, err := f.service.Authorize(context.Background(), id, UsageKindContent)
	require.NoError(t, err)
	assert.False(t, d.Subscriber)
}

func TestChargePicksScopeFromDecision(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, false)
	ctx := context.Background()

	require.NoError(t, f.service.Charge(ctx, id, UsageKindChat, &Decision{}))
	require.NoError(t, f.service.Charge(ctx, id, UsageKindChat, &Decision{Subscriber: true}))
	require.NoError(t, f.service.Charge(ctx, id, UsageKindChat, &Decision{Admin: true}))

	trial, _ := f.repo.GetUsage(ctx, UsageScopeTrial, id)
	sub, _ := f.repo.GetUsage(ctx, UsageScopeSubscriber, id)
	assert.Equal(t, 1, trial.ChatUsed)
	assert.Equal(t, 1, sub.ChatUsed, "admin charge must not land anywhere")
}

func TestGetEntitlementsTrialUser(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, false)
	ctx := context.Background()
	require.NoError(t, f.repo.Increment(ctx, UsageScopeTrial, id, UsageKindChat, 1))

	snap, err := f.service.GetEntitlements(ctx, id)
	require.NoError(t, err)
	assert.False(t, snap.HasActiveSubscription)
	assert.Equal(t, 1, snap.DailyUsage.ChatUsedToday)
	assert.Equal(t, 2, snap.DailyUsage.ChatRemainingToday)
	assert.Equal(t, 3, snap.DailyUsage.ContentRemainingToday)
	assert.True(t, snap.CanUseTrialToday)
	assert.False(t, snap.RequiresRenewalBlock)
	assert.Nil(t, snap.SubscriberFairUsage)
}

func TestGetEntitlementsRenewalBlock(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, true)

	snap, err := f.service.GetEntitlements(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, snap.RequiresRenewalBlock)
	assert.False(t, snap.CanUseTrialToday)
}

func TestGetEntitlementsSubscriberIncludesFairUsage(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, true)
	f.subscribe(id)

	snap, err := f.service.GetEntitlements(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, snap.HasActiveSubscription)
	require.NotNil(t, snap.SubscriptionEndAt)
	assert.False(t, snap.RequiresRenewalBlock)
	require.NotNil(t, snap.SubscriberFairUsage)
	assert.False(t, snap.SubscriberFairUsage.Chat.Warn)
}

func TestGetEntitlementsAdminNeverBlocked(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(false, true)
	f.users.users[id].IsAdmin = true

	snap, err := f.service.GetEntitlements(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, snap.IsAdmin)
	assert.False(t, snap.RequiresRenewalBlock)
	assert.False(t, snap.CanUseTrialToday)
}

func TestEnforceFairUsageThrottles(t *testing.T) {
	f := newGateFixture(t)
	id := f.addUser(true, true)
	f.subscribe(id)
	ctx := context.Background()
	require.NoError(t, f.repo.Increment(ctx, UsageScopeSubscriber, id, UsageKindChat, 500))

	fair, err := f.service.EnforceFairUsage(ctx, id, UsageKindChat)
	assert.True(t, fair.Throttled)
	ge, ok := AsGateError(err)
	require.True(t, ok)
	assert.Equal(t, CodeFairUsageThrottled, ge.Code)
	assert.Equal(t, 429, ge.Status)
}
