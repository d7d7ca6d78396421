package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutSessionClient exposes the single Stripe operation the checkout
// orchestrator needs, narrow enough to stub in tests.
type CheckoutSessionClient interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type checkoutSessionWrapper struct {
	sessions checkoutsession.Client
}

// NewCheckoutSessionClient wraps the initialized Stripe client so callers
// depend on an interface rather than the SDK package. The wrapper carries
// its own session client bound to the initialized key.
func NewCheckoutSessionClient(api *Client) CheckoutSessionClient {
	if api == nil {
		return nil
	}
	return &checkoutSessionWrapper{
		sessions: checkoutsession.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: api.apiKey,
		},
	}
}

func (w *checkoutSessionWrapper) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return w.sessions.New(params)
}
