package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// User is an authenticated account. Customers own carts, orders, and
// bookings; admins additionally carry a Permission row.
type User struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash      string         `gorm:"column:password_hash;not null"`
	FullName          string         `gorm:"column:full_name;not null"`
	PreferredLanguage enums.Language `gorm:"column:preferred_language;type:text;not null;default:'en'"`
	Role              enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
