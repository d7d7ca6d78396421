package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// CartItem holds one (user, product) pair. The unique index is what makes
// add-to-cart merge-or-insert rather than append.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_product"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_product"`
	Quantity  int            `gorm:"column:quantity;not null"`
	Currency  enums.Currency `gorm:"column:currency;type:text;not null;default:'EGP'"`
	Product   *Product       `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
