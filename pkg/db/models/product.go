package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// Product is a marketplace listing with bilingual copy. The commerce core
// treats products as read-only; management happens through the admin panel.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	NameEN        string          `gorm:"column:name_en;not null"`
	NameAR        string          `gorm:"column:name_ar;not null"`
	DescriptionEN string          `gorm:"column:description_en"`
	DescriptionAR string          `gorm:"column:description_ar"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency      enums.Currency  `gorm:"column:currency;type:text;not null;default:'EGP'"`
	Unit          string          `gorm:"column:unit;not null;default:'kg'"`
	ImageURL      *string         `gorm:"column:image_url"`
	Active        bool            `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Name returns the localized product name.
func (p Product) Name(lang enums.Language) string {
	if lang == enums.LanguageArabic && p.NameAR != "" {
		return p.NameAR
	}
	return p.NameEN
}
