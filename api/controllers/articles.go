package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	articlesvc "github.com/mahaseel/agriconsult-backend/internal/articles"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

type articlePayload struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type publishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

func toArticlePayload(article models.Article, lang enums.Language) articlePayload {
	return articlePayload{
		ID:        article.ID.String(),
		Slug:      article.Slug,
		Title:     article.Title(lang),
		Body:      article.Body(lang),
		Published: article.Published,
	}
}

func ListArticles(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPublished(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lang := requestLanguage(r)
		payloads := make([]articlePayload, 0, len(page.Articles))
		for _, article := range page.Articles {
			payloads = append(payloads, toArticlePayload(article, lang))
		}
		responses.WriteSuccess(w, map[string]any{
			"articles":    payloads,
			"next_cursor": page.NextCursor,
		})
	}
}

func GetArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		article, err := svc.GetPublished(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toArticlePayload(*article, requestLanguage(r)))
	}
}

// AdminListArticles returns all articles, drafts included, with both
// language sides for editing.
func AdminListArticles(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.AdminList(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"articles":    page.Articles,
			"next_cursor": page.NextCursor,
		})
	}
}

func AdminCreateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload articlesvc.DraftInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.AdminCreate(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, article)
	}
}

func AdminUpdateArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload articlesvc.DraftInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.AdminUpdate(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}

func AdminPublishArticle(svc articlesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload publishRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.AdminSetPublished(r.Context(), id, *payload.Published)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, article)
	}
}
