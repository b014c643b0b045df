package payment

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository defines the interface for checkout session data access.
type Repository interface {
	Create(ctx context.Context, session *CheckoutSession) error
	// Get returns the session, or nil when no session has that ID.
	Get(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Update(ctx context.Context, session *CheckoutSession) error
	// MarkPaid transitions the session from pending to paid. It reports
	// whether this call performed the transition; false means the session
	// had already left the pending state.
	MarkPaid(ctx context.Context, sessionID string) (bool, error)
	// MarkFailed transitions the session from pending to failed, with the
	// same settled-once semantics as MarkPaid.
	MarkFailed(ctx context.Context, sessionID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new payment repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, session *CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) Get(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repository) Update(ctx context.Context, session *CheckoutSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) MarkPaid(ctx context.Context, sessionID string) (bool, error) {
	return r.transition(ctx, sessionID, StatusPaid)
}

func (r *repository) MarkFailed(ctx context.Context, sessionID string) (bool, error) {
	return r.transition(ctx, sessionID, StatusFailed)
}

// transition performs the pending-to-terminal state change as a single
// conditional UPDATE. The WHERE clause on the current status makes
// concurrent deliveries race safely: exactly one sees RowsAffected == 1.
func (r *repository) transition(ctx context.Context, sessionID, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&CheckoutSession{}).
		Where("session_id = ? AND status = ?", sessionID, StatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
