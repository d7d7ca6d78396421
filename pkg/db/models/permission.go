package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Permission stores an admin's capability flags as a loose JSON document.
// Readers must pass Flags through types.CoercePermissionFlags before use;
// the stored shape is never trusted downstream.
type Permission struct {
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Flags     json.RawMessage `gorm:"column:flags;type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
