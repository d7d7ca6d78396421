package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	stripeclient "github.com/mahaseel/agriconsult-backend/pkg/stripe"
)

// LineItem is one cart line in a checkout request. Price is the unit price
// in major currency units.
type LineItem struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
}

// Input is the order payload submitted at checkout.
type Input struct {
	Items           []LineItem      `json:"items" validate:"required,min=1,dive"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shipping_address" validate:"required"`
	Phone           string          `json:"phone" validate:"required"`
	Notes           *string         `json:"notes"`
}

// Result carries the provider session the client redirects to.
type Result struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// Service runs the checkout flow: record the attempt, create the provider
// session, persist the order and its items. Steps run in strict sequence
// because each step's output seeds the next.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, email, origin, idempotencyKey string, input Input) (*Result, error)
}

type service struct {
	attempts AttemptRepository
	orders   OrderWriter
	sessions stripeclient.CheckoutSessionClient
	logg     *logger.Logger
}

func NewService(attempts AttemptRepository, orders OrderWriter, sessions stripeclient.CheckoutSessionClient, logg *logger.Logger) (Service, error) {
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("checkout session client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{attempts: attempts, orders: orders, sessions: sessions, logg: logg}, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, email, origin, idempotencyKey string, input Input) (*Result, error) {
	if userID == uuid.Nil || strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user with email required")
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	// The attempt row goes in before the provider call so a crash between
	// here and the order insert leaves a visible trace instead of a
	// silently orphaned session.
	attempt := &models.CheckoutAttempt{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		TotalAmount:    input.Total,
		State:          models.CheckoutAttemptStarted,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if !pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout attempt")
		}
		resumed, resumeErr := s.resumeFailedAttempt(ctx, userID, idempotencyKey)
		if resumeErr != nil {
			return nil, resumeErr
		}
		attempt = resumed
	}

	params, err := s.buildSessionParams(userID, email, origin, idempotencyKey, input)
	if err != nil {
		s.failAttempt(ctx, attempt.ID)
		return nil, err
	}

	session, err := s.sessions.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.failAttempt(ctx, attempt.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment session")
	}
	if err := s.attempts.MarkSessionCreated(ctx, attempt.ID, session.ID); err != nil {
		s.logg.Error(ctx, "mark checkout attempt session_created", err)
	}
	ctx = s.logg.WithField(ctx, "stripe_session_id", session.ID)

	order := &models.Order{
		UserID:          userID,
		TotalAmount:     input.Total,
		Currency:        enums.DefaultCurrency,
		ShippingAddress: input.ShippingAddress,
		Phone:           input.Phone,
		Notes:           input.Notes,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodCard,
		StripeSessionID: session.ID,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// The provider session now exists with no order behind it. The
		// attempt row keeps the session id for the reconciliation sweep.
		s.logg.Error(ctx, "order insert failed after session creation, session orphaned", err)
		s.failAttempt(ctx, attempt.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Currency:  enums.DefaultCurrency,
		})
	}
	if err := s.orders.CreateOrderItems(ctx, items); err != nil {
		s.logg.Error(ctx, "order item insert failed, order persisted without items", err)
		s.failAttempt(ctx, attempt.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order items")
	}

	if err := s.attempts.MarkCompleted(ctx, attempt.ID, order.ID); err != nil {
		s.logg.Error(ctx, "mark checkout attempt completed", err)
	}
	s.logg.Info(ctx, "checkout session created")

	return &Result{SessionID: session.ID, URL: session.URL}, nil
}

func validateInput(input Input) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}

	sum := decimal.Zero
	for i, line := range input.Items {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: product id is required", i))
		}
		if strings.TrimSpace(line.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: name is required", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
		if line.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: price must not be negative", i))
		}
		sum = sum.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	if !sum.Equal(input.Total) {
		return pkgerrors.New(pkgerrors.CodeValidation, "total does not match the sum of line amounts").
			WithDetails(map[string]string{
				"expected": sum.String(),
				"got":      input.Total.String(),
			})
	}
	return nil
}

func (s *service) buildSessionParams(userID uuid.UUID, email, origin, idempotencyKey string, input Input) (*stripe.CheckoutSessionParams, error) {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request origin is required for redirect targets")
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serialize order payload")
	}

	currency := strings.ToLower(enums.DefaultCurrency.String())
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, line := range input.Items {
		item := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(line.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(line.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		}
		if line.Description != "" {
			item.PriceData.ProductData.Description = stripe.String(line.Description)
		}
		lineItems = append(lineItems, item)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:     lineItems,
		SuccessURL:    stripe.String(origin + "/orders?success=true"),
		CancelURL:     stripe.String(origin + "/checkout?canceled=true"),
		CustomerEmail: stripe.String(email),
	}
	params.IdempotencyKey = stripe.String(idempotencyKey)
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("order_payload", string(payload))
	return params, nil
}

// minorUnits converts a major-unit price to the provider's integer minor
// units, rounding to the nearest piastre to avoid float drift.
func minorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// resumeFailedAttempt re-arms the attempt row behind a unique-key
// collision so a client can retry a failed checkout with its original
// idempotency key. In-flight and completed attempts keep the conflict.
func (s *service) resumeFailedAttempt(ctx context.Context, userID uuid.UUID, key string) (*models.CheckoutAttempt, error) {
	existing, err := s.attempts.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout attempt")
	}
	if existing == nil || existing.UserID != userID || existing.State != models.CheckoutAttemptFailed {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "checkout already attempted with this idempotency key")
	}
	restarted, err := s.attempts.Restart(ctx, existing.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restart checkout attempt")
	}
	if !restarted {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "checkout already attempted with this idempotency key")
	}
	existing.State = models.CheckoutAttemptStarted
	existing.StripeSessionID = nil
	s.logg.Info(ctx, "failed checkout attempt resumed")
	return existing, nil
}

func (s *service) failAttempt(ctx context.Context, id uuid.UUID) {
	if err := s.attempts.MarkFailed(ctx, id); err != nil {
		s.logg.Error(ctx, "mark checkout attempt failed", err)
	}
}
