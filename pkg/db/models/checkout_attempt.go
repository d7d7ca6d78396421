package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutAttempt is written before the payment provider is called and
// keyed by the idempotency key shared with the provider session. A row
// stuck in "started" marks an attempt that may have left an orphaned
// session behind; an operator sweep can reconcile or void it later.
type CheckoutAttempt struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IdempotencyKey  string          `gorm:"column:idempotency_key;not null;uniqueIndex"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	StripeSessionID *string         `gorm:"column:stripe_session_id"`
	OrderID         *uuid.UUID      `gorm:"column:order_id;type:uuid"`
	State           string          `gorm:"column:state;not null;default:'started'"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Checkout attempt states.
const (
	CheckoutAttemptStarted        = "started"
	CheckoutAttemptSessionCreated = "session_created"
	CheckoutAttemptCompleted      = "completed"
	CheckoutAttemptFailed         = "failed"
)
