package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

// Article is a bilingual knowledge-hub entry. Rows always carry both
// languages; rendering picks one side.
type Article struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	TitleEN   string    `gorm:"column:title_en;not null"`
	TitleAR   string    `gorm:"column:title_ar;not null"`
	BodyEN    string    `gorm:"column:body_en"`
	BodyAR    string    `gorm:"column:body_ar"`
	Published bool      `gorm:"column:published;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Title returns the localized article title.
func (a Article) Title(lang enums.Language) string {
	if lang == enums.LanguageArabic && a.TitleAR != "" {
		return a.TitleAR
	}
	return a.TitleEN
}

// Body returns the localized article body.
func (a Article) Body(lang enums.Language) string {
	if lang == enums.LanguageArabic && a.BodyAR != "" {
		return a.BodyAR
	}
	return a.BodyEN
}
