package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// Order is created once per successful checkout. StripeSessionID is set
// exactly once, at insert time, before the order is readable by its owner.
type Order struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	TotalAmount           decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency              enums.Currency      `gorm:"column:currency;type:text;not null;default:'EGP'"`
	ShippingAddress       string              `gorm:"column:shipping_address;not null"`
	Phone                 string              `gorm:"column:phone;not null"`
	Notes                 *string             `gorm:"column:notes"`
	AdminNotes            *string             `gorm:"column:admin_notes"`
	Status                enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod         enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'card'"`
	StripeSessionID       string              `gorm:"column:stripe_session_id;not null;index"`
	TrackingNumber        *string             `gorm:"column:tracking_number"`
	EstimatedDeliveryDate *time.Time          `gorm:"column:estimated_delivery_date"`
	Items                 []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
