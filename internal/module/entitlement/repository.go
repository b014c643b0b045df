package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the daily usage counter store, parameterized by scope so the
// trial and subscriber tables share one implementation.
type Repository interface {
	// GetOrCreateToday returns today's counter row, lazily creating it with
	// zero counters. Two concurrent first-requests-of-the-day may race to
	// insert; the loser falls back to reading the winner's row instead of
	// surfacing the uniqueness violation.
	GetOrCreateToday(ctx context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error)

	// Increment adds delta to one counter as a single relational update, so
	// concurrent increments for the same user cannot lose writes.
	Increment(ctx context.Context, scope UsageScope, userID uuid.UUID, kind UsageKind, delta int) error

	// GetUsage is a read-only projection of today's counters. It does not
	// create the row; a missing row reads as zero usage.
	GetUsage(ctx context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error)
}

// usageStore is the raw per-table access underneath Repository. Errors
// surface gorm sentinels (ErrRecordNotFound, ErrDuplicatedKey) untranslated.
type usageStore interface {
	read(ctx context.Context, scope UsageScope, userID uuid.UUID, key string) (*DailyUsage, error)
	create(ctx context.Context, scope UsageScope, row *DailyUsage) error
	add(ctx context.Context, scope UsageScope, userID uuid.UUID, key, column string, delta int) error
}

type repository struct {
	store usageStore
	clock Clock
}

// NewRepository creates a new usage counter repository.
func NewRepository(db *gorm.DB, clock Clock) Repository {
	if clock == nil {
		clock = NewClock()
	}
	return &repository{store: &gormUsageStore{db: db}, clock: clock}
}

func (r *repository) GetOrCreateToday(ctx context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error) {
	key := TodayKey(r.clock)

	row, err := r.store.read(ctx, scope, userID, key)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("read daily usage: %w", err)
	}

	fresh := &DailyUsage{UserID: userID, DateKey: key}
	createErr := r.store.create(ctx, scope, fresh)
	if createErr == nil {
		return fresh, nil
	}

	// Lost the first-request-of-the-day race: another request inserted the
	// row between our read and create. Return the winner's row.
	if errors.Is(createErr, gorm.ErrDuplicatedKey) {
		row, err = r.store.read(ctx, scope, userID, key)
		if err == nil {
			return row, nil
		}
	}

	return nil, fmt.Errorf("create daily usage: %w", createErr)
}

func (r *repository) Increment(ctx context.Context, scope UsageScope, userID uuid.UUID, kind UsageKind, delta int) error {
	if delta <= 0 {
		delta = 1
	}

	// Ensure the row exists before the in-place update.
	if _, err := r.GetOrCreateToday(ctx, scope, userID); err != nil {
		return err
	}

	if err := r.store.add(ctx, scope, userID, TodayKey(r.clock), kind.Column(), delta); err != nil {
		return fmt.Errorf("increment %s usage: %w", kind, err)
	}
	return nil
}

func (r *repository) GetUsage(ctx context.Context, scope UsageScope, userID uuid.UUID) (*DailyUsage, error) {
	key := TodayKey(r.clock)

	row, err := r.store.read(ctx, scope, userID, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DailyUsage{UserID: userID, DateKey: key}, nil
		}
		return nil, fmt.Errorf("read daily usage: %w", err)
	}
	return row, nil
}

type gormUsageStore struct {
	db *gorm.DB
}

func (s *gormUsageStore) read(ctx context.Context, scope UsageScope, userID uuid.UUID, key string) (*DailyUsage, error) {
	var row DailyUsage
	err := s.db.WithContext(ctx).
		Table(scope.TableName()).
		Where("user_id = ? AND date_key = ?", userID, key).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *gormUsageStore) create(ctx context.Context, scope UsageScope, row *DailyUsage) error {
	return s.db.WithContext(ctx).Table(scope.TableName()).Create(row).Error
}

func (s *gormUsageStore) add(ctx context.Context, scope UsageScope, userID uuid.UUID, key, column string, delta int) error {
	return s.db.WithContext(ctx).
		Table(scope.TableName()).
		Where("user_id = ? AND date_key = ?", userID, key).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
