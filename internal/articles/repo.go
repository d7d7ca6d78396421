package articles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
)

type Repository interface {
	ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error)
	ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("published = TRUE"), cursor, limit)
}

func (r *repository) ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error) {
	return r.list(ctx, r.db.WithContext(ctx), cursor, limit)
}

func (r *repository) list(ctx context.Context, q *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.Article, error) {
	q = q.Order("created_at DESC, id DESC").Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var articles []models.Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *repository) Create(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

func (r *repository) Update(ctx context.Context, article *models.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}
