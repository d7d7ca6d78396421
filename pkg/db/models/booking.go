package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// Booking is a consultation request against a named consultant.
type Booking struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ConsultantName string              `gorm:"column:consultant_name;not null"`
	Topic          string              `gorm:"column:topic;not null"`
	ScheduledAt    time.Time           `gorm:"column:scheduled_at;not null"`
	Status         enums.BookingStatus `gorm:"column:status;type:text;not null;default:'requested'"`
	Notes          *string             `gorm:"column:notes"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
