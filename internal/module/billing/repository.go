package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for subscription and plan data access.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	// GetCurrent returns the user's newest subscription row, or nil when
	// the user has no history.
	GetCurrent(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	GetPlan(ctx context.Context, id int64) (*Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)

	// ListExpiringActive returns active subscriptions ending within the
	// window that have not been reminded since the window opened.
	ListExpiringActive(ctx context.Context, now time.Time, window time.Duration) ([]Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new billing repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) GetCurrent(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) Update(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repository) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	var plan Plan
	err := r.db.WithContext(ctx).First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) GetPlanByCode(ctx context.Context, code string) (*Plan, error) {
	var plan Plan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_cents ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) ListExpiringActive(ctx context.Context, now time.Time, window time.Duration) ([]Subscription, error) {
	cutoff := now.Add(window)
	var subs []Subscription
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Where("end_at > ? AND end_at <= ?", now, cutoff).
		Where("last_reminder_sent IS NULL OR last_reminder_sent < ?", now.Add(-window)).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
