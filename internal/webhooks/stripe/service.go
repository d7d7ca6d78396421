package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/mahaseel/agriconsult-backend/internal/orders"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	redisclient "github.com/mahaseel/agriconsult-backend/pkg/redis"
)

const eventScope = "stripe-event"

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, stripeSessionID string) (*models.Order, error)
}

// Service verifies and processes Stripe webhook deliveries. Events are
// replay-guarded in Redis by event id; unhandled event types are
// acknowledged so Stripe stops retrying them.
type Service interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) error
}

type service struct {
	signingSecret string
	orders        paymentConfirmer
	carts         cartClearer
	events        redisclient.IdempotencyStore
	eventTTL      time.Duration
	logg          *logger.Logger
}

var _ paymentConfirmer = orders.Service(nil)

func NewService(signingSecret string, confirmer paymentConfirmer, carts cartClearer, events redisclient.IdempotencyStore, eventTTL time.Duration, logg *logger.Logger) (Service, error) {
	if signingSecret == "" {
		return nil, fmt.Errorf("webhook signing secret required")
	}
	if confirmer == nil {
		return nil, fmt.Errorf("payment confirmer required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if eventTTL <= 0 {
		eventTTL = 24 * time.Hour
	}
	return &service{
		signingSecret: signingSecret,
		orders:        confirmer,
		carts:         carts,
		events:        events,
		eventTTL:      eventTTL,
		logg:          logg,
	}, nil
}

func (s *service) Process(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify webhook signature")
	}

	key := s.events.IdempotencyKey(eventScope, event.ID)
	fresh, err := s.events.SetNX(ctx, key, "seen", s.eventTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record webhook event")
	}
	if !fresh {
		s.logg.Info(s.logg.WithField(ctx, "event_id", event.ID), "webhook event replayed, skipping")
		return nil
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})

	switch event.Type {
	case "checkout.session.completed":
		if err := s.handleSessionCompleted(ctx, event); err != nil {
			// Release the guard so the provider's retry of this event
			// runs the handler again instead of being skipped as a
			// replay.
			if delErr := s.events.Del(ctx, key); delErr != nil {
				s.logg.Error(ctx, "release webhook event record", delErr)
			}
			return err
		}
		return nil
	default:
		s.logg.Info(ctx, "unhandled webhook event type")
		return nil
	}
}

func (s *service) handleSessionCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	order, err := s.orders.ConfirmPayment(ctx, session.ID)
	if err != nil {
		return err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	// The session metadata carries the buyer's id; clear their cart now
	// that the purchase is settled. A failed clear is logged, not fatal:
	// the order is already paid.
	if raw, ok := session.Metadata["user_id"]; ok {
		userID, err := uuid.Parse(raw)
		if err != nil {
			s.logg.Error(ctx, "malformed user_id in session metadata", err)
		} else if err := s.carts.Clear(ctx, userID); err != nil {
			s.logg.Error(ctx, "clear cart after payment", err)
		}
	}

	s.logg.Info(ctx, "checkout session completed")
	return nil
}
