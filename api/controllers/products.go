package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	productsvc "github.com/mahaseel/agriconsult-backend/internal/products"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

// productPayload is the localized catalog view. The row carries both
// languages; the lang query parameter picks which side renders.
type productPayload struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Unit        string          `json:"unit"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

func toProductPayload(product models.Product, lang enums.Language) productPayload {
	description := product.DescriptionEN
	if lang == enums.LanguageArabic && product.DescriptionAR != "" {
		description = product.DescriptionAR
	}
	return productPayload{
		ID:          product.ID.String(),
		Name:        product.Name(lang),
		Description: description,
		Price:       product.Price,
		Currency:    string(product.Currency),
		Unit:        product.Unit,
		ImageURL:    product.ImageURL,
	}
}

func requestLanguage(r *http.Request) enums.Language {
	return enums.ParseLanguage(r.URL.Query().Get("lang"))
}

func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lang := requestLanguage(r)
		payloads := make([]productPayload, 0, len(page.Products))
		for _, product := range page.Products {
			payloads = append(payloads, toProductPayload(product, lang))
		}
		responses.WriteSuccess(w, map[string]any{
			"products":    payloads,
			"next_cursor": page.NextCursor,
		})
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductPayload(*product, requestLanguage(r)))
	}
}
