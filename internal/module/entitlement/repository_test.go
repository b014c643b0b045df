package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeUsageStore is an in-memory usageStore keyed by scope, user and date.
type fakeUsageStore struct {
	rows      map[string]*DailyUsage
	createErr error
	// onConflict is installed as the existing row when create fails with
	// ErrDuplicatedKey, standing in for a concurrent insert that won.
	onConflict *DailyUsage
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{rows: make(map[string]*DailyUsage)}
}

func storeKey(scope UsageScope, userID uuid.UUID, key string) string {
	return string(scope) + "/" + userID.String() + "/" + key
}

func (s *fakeUsageStore) read(_ context.Context, scope UsageScope, userID uuid.UUID, key string) (*DailyUsage, error) {
	row, ok := s.rows[storeKey(scope, userID, key)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *fakeUsageStore) create(_ context.Context, scope UsageScope, row *DailyUsage) error {
	if s.createErr != nil {
		if errors.Is(s.createErr, gorm.ErrDuplicatedKey) && s.onConflict != nil {
			s.rows[storeKey(scope, row.UserID, row.DateKey)] = s.onConflict
		}
		return s.createErr
	}
	k := storeKey(scope, row.UserID, row.DateKey)
	if _, ok := s.rows[k]; ok {
		return gorm.ErrDuplicatedKey
	}
	copied := *row
	s.rows[k] = &copied
	return nil
}

func (s *fakeUsageStore) add(_ context.Context, scope UsageScope, userID uuid.UUID, key, column string, delta int) error {
	row, ok := s.rows[storeKey(scope, userID, key)]
	if !ok {
		return nil
	}
	switch column {
	case "content_used":
		row.ContentUsed += delta
	default:
		row.ChatUsed += delta
	}
	return nil
}

func newRepoFixture() (*repository, *fakeUsageStore, string) {
	store := newFakeUsageStore()
	clock := fixedClock{now: time.Date(2025, 5, 10, 12, 0, 0, 0, time.Local)}
	return &repository{store: store, clock: clock}, store, TodayKey(clock)
}

func TestGetOrCreateTodayCreatesZeroRow(t *testing.T) {
	repo, store, key := newRepoFixture()
	id := uuid.New()

	row, err := repo.GetOrCreateToday(context.Background(), UsageScopeTrial, id)
	require.NoError(t, err)
	assert.Equal(t, key, row.DateKey)
	assert.Zero(t, row.ChatUsed)
	assert.Zero(t, row.ContentUsed)
	assert.Len(t, store.rows, 1)
}

func TestGetOrCreateTodayReturnsExistingRow(t *testing.T) {
	repo, store, key := newRepoFixture()
	id := uuid.New()
	store.rows[storeKey(UsageScopeTrial, id, key)] = &DailyUsage{
		UserID: id, DateKey: key, ChatUsed: 2,
	}

	row, err := repo.GetOrCreateToday(context.Background(), UsageScopeTrial, id)
	require.NoError(t, err)
	assert.Equal(t, 2, row.ChatUsed)
}

func TestGetOrCreateTodayLostRaceReadsWinner(t *testing.T) {
	repo, store, key := newRepoFixture()
	id := uuid.New()

	// A concurrent first request of the day inserts between our read and
	// our create; the duplicate-key error must resolve to the winner's row.
	store.createErr = gorm.ErrDuplicatedKey
	store.onConflict = &DailyUsage{UserID: id, DateKey: key, ChatUsed: 1}

	row, err := repo.GetOrCreateToday(context.Background(), UsageScopeSubscriber, id)
	require.NoError(t, err)
	assert.Equal(t, 1, row.ChatUsed, "winner's counters, not a fresh row")
}

func TestGetOrCreateTodayCreateFailureSurfaces(t *testing.T) {
	repo, store, _ := newRepoFixture()
	store.createErr = errors.New("connection reset")

	_, err := repo.GetOrCreateToday(context.Background(), UsageScopeTrial, uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestIncrementCreatesRowFirst(t *testing.T) {
	repo, store, key := newRepoFixture()
	id := uuid.New()
	ctx := context.Background()

	require.NoError(t, repo.Increment(ctx, UsageScopeTrial, id, UsageKindContent, 1))
	require.NoError(t, repo.Increment(ctx, UsageScopeTrial, id, UsageKindContent, 1))

	row := store.rows[storeKey(UsageScopeTrial, id, key)]
	require.NotNil(t, row)
	assert.Equal(t, 2, row.ContentUsed)
	assert.Zero(t, row.ChatUsed)
}

func TestGetUsageMissingRowReadsAsZero(t *testing.T) {
	repo, _, key := newRepoFixture()

	row, err := repo.GetUsage(context.Background(), UsageScopeSubscriber, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, key, row.DateKey)
	assert.Zero(t, row.ChatUsed)
	assert.Zero(t, row.ContentUsed)
}
