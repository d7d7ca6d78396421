package articles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Page is one page of articles.
type Page struct {
	Articles   []models.Article
	NextCursor string
}

// DraftInput is the admin payload for creating or updating an article.
// Both language sides are required; rendering picks one at read time.
type DraftInput struct {
	Slug    string `json:"slug" validate:"required"`
	TitleEN string `json:"title_en" validate:"required"`
	TitleAR string `json:"title_ar" validate:"required"`
	BodyEN  string `json:"body_en"`
	BodyAR  string `json:"body_ar"`
}

type Service interface {
	ListPublished(ctx context.Context, params pagination.Params) (*Page, error)
	GetPublished(ctx context.Context, slug string) (*models.Article, error)
	AdminList(ctx context.Context, params pagination.Params) (*Page, error)
	AdminCreate(ctx context.Context, input DraftInput) (*models.Article, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, input DraftInput) (*models.Article, error)
	AdminSetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Article, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("article repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*Page, error) {
	return s.listWith(ctx, params, s.repo.ListPublished)
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (*Page, error) {
	return s.listWith(ctx, params, s.repo.ListAll)
}

func (s *service) listWith(ctx context.Context, params pagination.Params, fetch func(context.Context, *pagination.Cursor, int) ([]models.Article, error)) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := fetch(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list articles")
	}

	page := &Page{Articles: rows}
	if len(rows) > limit {
		page.Articles = rows[:limit]
		last := page.Articles[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) GetPublished(ctx context.Context, slug string) (*models.Article, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	article, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	if !article.Published {
		// Drafts are invisible on the public surface.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	return article, nil
}

func (s *service) AdminCreate(ctx context.Context, input DraftInput) (*models.Article, error) {
	if err := validateDraft(input); err != nil {
		return nil, err
	}

	article := &models.Article{
		Slug:    input.Slug,
		TitleEN: input.TitleEN,
		TitleAR: input.TitleAR,
		BodyEN:  input.BodyEN,
		BodyAR:  input.BodyAR,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create article")
	}
	return article, nil
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, input DraftInput) (*models.Article, error) {
	if err := validateDraft(input); err != nil {
		return nil, err
	}

	article, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	article.Slug = input.Slug
	article.TitleEN = input.TitleEN
	article.TitleAR = input.TitleAR
	article.BodyEN = input.BodyEN
	article.BodyAR = input.BodyAR

	if err := s.repo.Update(ctx, article); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update article")
	}
	return article, nil
}

func (s *service) AdminSetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Article, error) {
	article, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	article.Published = published
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update article")
	}
	return article, nil
}

func (s *service) findByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "article id is required")
	}
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load article")
	}
	return article, nil
}

func validateDraft(input DraftInput) error {
	if !slugPattern.MatchString(input.Slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits, and hyphens")
	}
	if strings.TrimSpace(input.TitleEN) == "" || strings.TrimSpace(input.TitleAR) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "both english and arabic titles are required")
	}
	return nil
}
