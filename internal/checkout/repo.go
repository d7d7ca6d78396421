package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
)

// AttemptRepository records checkout attempts. A row is written before the
// payment provider is contacted and advanced as the flow progresses, so
// rows stuck mid-state point at orphaned provider sessions.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.CheckoutAttempt) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.CheckoutAttempt, error)
	Restart(ctx context.Context, id uuid.UUID) (bool, error)
	MarkSessionCreated(ctx context.Context, id uuid.UUID, sessionID string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, orderID uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.CheckoutAttempt, error) {
	var attempt models.CheckoutAttempt
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Restart re-arms a failed attempt. The state guard in the WHERE clause
// keeps a concurrent retry with the same key from re-arming the row
// twice: only one caller sees a row flipped.
func (r *attemptRepository) Restart(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ? AND state = ?", id, models.CheckoutAttemptFailed).
		Updates(map[string]any{
			"state":             models.CheckoutAttemptStarted,
			"stripe_session_id": nil,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *attemptRepository) MarkSessionCreated(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":             models.CheckoutAttemptSessionCreated,
			"stripe_session_id": sessionID,
		}).Error
}

func (r *attemptRepository) MarkCompleted(ctx context.Context, id uuid.UUID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":    models.CheckoutAttemptCompleted,
			"order_id": orderID,
		}).Error
}

func (r *attemptRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("id = ?", id).
		Update("state", models.CheckoutAttemptFailed).Error
}

// OrderWriter is the slice of order persistence the orchestrator needs.
// Order and item inserts are separate calls on purpose: each is its own
// failure window and is reported distinctly.
type OrderWriter interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
}
