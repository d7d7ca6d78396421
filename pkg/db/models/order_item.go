package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// OrderItem snapshots one cart line at checkout. The set of items for an
// order is fixed at creation; there is no user-facing mutation path.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency  enums.Currency  `gorm:"column:currency;type:text;not null;default:'EGP'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
