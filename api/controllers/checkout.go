package controllers

import (
	"net/http"
	"strings"

	"github.com/mahaseel/agriconsult-backend/api/middleware"
	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	checkoutsvc "github.com/mahaseel/agriconsult-backend/internal/checkout"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

// Checkout creates a payment session and the order behind it. The
// Idempotency-Key header is mandatory; the same key is forwarded to the
// payment provider so retries cannot double-charge.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		email := middleware.EmailFromContext(r.Context())
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "email context missing"))
			return
		}

		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
			return
		}

		origin := strings.TrimSpace(r.Header.Get("Origin"))

		var payload checkoutsvc.Input
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), userID, email, origin, idempotencyKey, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
