package articles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
)

type stubArticleRepo struct {
	articles map[uuid.UUID]*models.Article
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{articles: map[uuid.UUID]*models.Article{}}
}

func (s *stubArticleRepo) ListPublished(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error) {
	var out []models.Article
	for _, a := range s.articles {
		if a.Published {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *stubArticleRepo) ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Article, error) {
	var out []models.Article
	for _, a := range s.articles {
		out = append(out, *a)
	}
	return out, nil
}

func (s *stubArticleRepo) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	for _, a := range s.articles {
		if a.Slug == slug {
			copied := *a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubArticleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *stubArticleRepo) Create(ctx context.Context, article *models.Article) error {
	article.ID = uuid.New()
	copied := *article
	s.articles[article.ID] = &copied
	return nil
}

func (s *stubArticleRepo) Update(ctx context.Context, article *models.Article) error {
	if _, ok := s.articles[article.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *article
	s.articles[article.ID] = &copied
	return nil
}

func newArticleService(t *testing.T) (Service, *stubArticleRepo) {
	t.Helper()
	repo := newStubArticleRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo
}

func TestDraftsHiddenUntilPublished(t *testing.T) {
	svc, _ := newArticleService(t)

	article, err := svc.AdminCreate(context.Background(), DraftInput{
		Slug:    "drip-irrigation-basics",
		TitleEN: "Drip Irrigation Basics",
		TitleAR: "أساسيات الري بالتنقيط",
		BodyEN:  "Start with soil type.",
		BodyAR:  "ابدأ بنوع التربة.",
	})
	require.NoError(t, err)

	_, err = svc.GetPublished(context.Background(), "drip-irrigation-basics")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.AdminSetPublished(context.Background(), article.ID, true)
	require.NoError(t, err)

	got, err := svc.GetPublished(context.Background(), "drip-irrigation-basics")
	require.NoError(t, err)
	assert.Equal(t, "Drip Irrigation Basics", got.Title(enums.LanguageEnglish))
	assert.Equal(t, "أساسيات الري بالتنقيط", got.Title(enums.LanguageArabic))
}

func TestAdminCreateValidatesSlug(t *testing.T) {
	svc, _ := newArticleService(t)

	for _, slug := range []string{"", "Bad Slug", "UPPER", "trailing-", "-leading"} {
		_, err := svc.AdminCreate(context.Background(), DraftInput{
			Slug:    slug,
			TitleEN: "T",
			TitleAR: "ت",
		})
		require.Error(t, err, slug)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestAdminCreateRequiresBothTitles(t *testing.T) {
	svc, _ := newArticleService(t)

	_, err := svc.AdminCreate(context.Background(), DraftInput{
		Slug:    "valid-slug",
		TitleEN: "Only English",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
