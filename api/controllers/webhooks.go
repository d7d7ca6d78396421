package controllers

import (
	"io"
	"net/http"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	stripewebhook "github.com/mahaseel/agriconsult-backend/internal/webhooks/stripe"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

// Stripe recommends a small cap on webhook bodies; events we handle are
// far below this.
const maxWebhookBody = 1 << 20

func StripeWebhook(svc stripewebhook.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := svc.Process(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
