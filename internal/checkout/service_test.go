package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

type stubAttempts struct {
	created   []*models.CheckoutAttempt
	states    map[uuid.UUID]string
	byKey     map[string]*models.CheckoutAttempt
	createErr error
}

func newStubAttempts() *stubAttempts {
	return &stubAttempts{
		states: map[uuid.UUID]string{},
		byKey:  map[string]*models.CheckoutAttempt{},
	}
}

func (s *stubAttempts) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byKey[attempt.IdempotencyKey]; exists {
		return &pgconn.PgError{Code: "23505"}
	}
	attempt.ID = uuid.New()
	s.created = append(s.created, attempt)
	s.byKey[attempt.IdempotencyKey] = attempt
	s.states[attempt.ID] = attempt.State
	return nil
}

func (s *stubAttempts) FindByIdempotencyKey(ctx context.Context, key string) (*models.CheckoutAttempt, error) {
	attempt, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *attempt
	copied.State = s.states[attempt.ID]
	return &copied, nil
}

func (s *stubAttempts) Restart(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.states[id] != models.CheckoutAttemptFailed {
		return false, nil
	}
	s.states[id] = models.CheckoutAttemptStarted
	return true, nil
}

func (s *stubAttempts) MarkSessionCreated(ctx context.Context, id uuid.UUID, sessionID string) error {
	s.states[id] = models.CheckoutAttemptSessionCreated
	return nil
}

func (s *stubAttempts) MarkCompleted(ctx context.Context, id uuid.UUID, orderID uuid.UUID) error {
	s.states[id] = models.CheckoutAttemptCompleted
	return nil
}

func (s *stubAttempts) MarkFailed(ctx context.Context, id uuid.UUID) error {
	s.states[id] = models.CheckoutAttemptFailed
	return nil
}

type stubOrderWriter struct {
	orders       []*models.Order
	items        [][]models.OrderItem
	orderErr     error
	orderItemErr error
}

func (s *stubOrderWriter) CreateOrder(ctx context.Context, order *models.Order) error {
	if s.orderErr != nil {
		return s.orderErr
	}
	order.ID = uuid.New()
	s.orders = append(s.orders, order)
	return nil
}

func (s *stubOrderWriter) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if s.orderItemErr != nil {
		return s.orderItemErr
	}
	s.items = append(s.items, items)
	return nil
}

type stubSessions struct {
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (s *stubSessions) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func testInput() Input {
	return Input{
		Items: []LineItem{
			{
				ProductID: uuid.New(),
				Name:      "Citrus Seedlings",
				Price:     decimal.RequireFromString("150.50"),
				Quantity:  2,
			},
			{
				ProductID: uuid.New(),
				Name:      "Soil Analysis Kit",
				Price:     decimal.RequireFromString("99.00"),
				Quantity:  1,
			},
		},
		Total:           decimal.RequireFromString("400.00"),
		ShippingAddress: "12 Nile Corniche, Cairo",
		Phone:           "+201001234567",
	}
}

func newCheckoutService(t *testing.T, attempts *stubAttempts, orders *stubOrderWriter, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(attempts, orders, sessions, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestExecuteHappyPath(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{}
	sessions := &stubSessions{session: &stripe.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.com/c/pay/cs_test_123",
	}}
	svc := newCheckoutService(t, attempts, orders, sessions)

	userID := uuid.New()
	result, err := svc.Execute(context.Background(), userID, "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", testInput())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", result.URL)

	require.Len(t, orders.orders, 1)
	order := orders.orders[0]
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, "cs_test_123", order.StripeSessionID)
	assert.Equal(t, "pending", order.Status.String())
	assert.Equal(t, "pending", order.PaymentStatus.String())

	require.Len(t, orders.items, 1)
	require.Len(t, orders.items[0], 2)
	for _, item := range orders.items[0] {
		assert.Equal(t, order.ID, item.OrderID)
	}

	require.Len(t, attempts.created, 1)
	assert.Equal(t, models.CheckoutAttemptCompleted, attempts.states[attempts.created[0].ID])

	require.NotNil(t, sessions.params)
	assert.Equal(t, "https://mahaseel.app/orders?success=true", *sessions.params.SuccessURL)
	assert.Equal(t, "https://mahaseel.app/checkout?canceled=true", *sessions.params.CancelURL)
	assert.Equal(t, "farmer@mahaseel.app", *sessions.params.CustomerEmail)
	assert.Equal(t, userID.String(), sessions.params.Metadata["user_id"])
	assert.NotEmpty(t, sessions.params.Metadata["order_payload"])
	assert.Equal(t, "idem-1", *sessions.params.IdempotencyKey)

	require.Len(t, sessions.params.LineItems, 2)
	assert.Equal(t, int64(15050), *sessions.params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, int64(9900), *sessions.params.LineItems[1].PriceData.UnitAmount)
}

func TestExecuteRequiresAuthenticatedUser(t *testing.T) {
	svc := newCheckoutService(t, newStubAttempts(), &stubOrderWriter{}, &stubSessions{})

	cases := []struct {
		name   string
		userID uuid.UUID
		email  string
	}{
		{"nil user", uuid.Nil, "farmer@mahaseel.app"},
		{"missing email", uuid.New(), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Execute(context.Background(), tc.userID, tc.email, "https://mahaseel.app", "idem-1", testInput())
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
		})
	}
}

func TestExecuteRejectsTotalMismatch(t *testing.T) {
	attempts := newStubAttempts()
	sessions := &stubSessions{}
	svc := newCheckoutService(t, attempts, &stubOrderWriter{}, sessions)

	input := testInput()
	input.Total = decimal.RequireFromString("399.99")

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Nil(t, sessions.params, "validation must reject before the provider call")
	assert.Empty(t, attempts.created)
}

func TestExecuteRejectsEmptyCart(t *testing.T) {
	svc := newCheckoutService(t, newStubAttempts(), &stubOrderWriter{}, &stubSessions{})

	input := testInput()
	input.Items = nil
	input.Total = decimal.Zero

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestExecuteIdempotencyKeyReuse(t *testing.T) {
	attempts := newStubAttempts()
	attempts.createErr = &pgconn.PgError{Code: "23505"}
	sessions := &stubSessions{}
	svc := newCheckoutService(t, attempts, &stubOrderWriter{}, sessions)

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeIdempotency, pkgerrors.As(err).Code())
	assert.Nil(t, sessions.params)
}

func TestExecuteRetryAfterFailureReusesKey(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{}
	sessions := &stubSessions{err: errors.New("stripe unavailable")}
	svc := newCheckoutService(t, attempts, orders, sessions)

	userID := uuid.New()
	_, err := svc.Execute(context.Background(), userID, "farmer@mahaseel.app", "https://mahaseel.app", "idem-retry", testInput())
	require.Error(t, err)

	sessions.err = nil
	sessions.session = &stripe.CheckoutSession{
		ID:  "cs_test_retry",
		URL: "https://checkout.stripe.com/c/pay/cs_test_retry",
	}

	result, err := svc.Execute(context.Background(), userID, "farmer@mahaseel.app", "https://mahaseel.app", "idem-retry", testInput())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_retry", result.SessionID)
	require.Len(t, attempts.created, 1, "retry must reuse the original attempt row")
	assert.Equal(t, models.CheckoutAttemptCompleted, attempts.states[attempts.created[0].ID])
	require.Len(t, orders.orders, 1)
}

func TestExecuteKeyReuseAfterSuccessConflicts(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{}
	sessions := &stubSessions{session: &stripe.CheckoutSession{
		ID:  "cs_test_done",
		URL: "https://checkout.stripe.com/c/pay/cs_test_done",
	}}
	svc := newCheckoutService(t, attempts, orders, sessions)

	userID := uuid.New()
	_, err := svc.Execute(context.Background(), userID, "farmer@mahaseel.app", "https://mahaseel.app", "idem-done", testInput())
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), userID, "farmer@mahaseel.app", "https://mahaseel.app", "idem-done", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeIdempotency, pkgerrors.As(err).Code())
	require.Len(t, orders.orders, 1)
}

func TestExecuteFailedKeyNotResumableByOtherUser(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{}
	sessions := &stubSessions{err: errors.New("stripe unavailable")}
	svc := newCheckoutService(t, attempts, orders, sessions)

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-shared", testInput())
	require.Error(t, err)

	sessions.err = nil
	sessions.session = &stripe.CheckoutSession{ID: "cs_test_foreign", URL: "https://checkout.stripe.com/c/pay/cs_test_foreign"}

	_, err = svc.Execute(context.Background(), uuid.New(), "other@mahaseel.app", "https://mahaseel.app", "idem-shared", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeIdempotency, pkgerrors.As(err).Code())
	assert.Empty(t, orders.orders)
}

func TestExecuteSessionFailureCreatesNothing(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{}
	sessions := &stubSessions{err: errors.New("stripe unavailable")}
	svc := newCheckoutService(t, attempts, orders, sessions)

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Empty(t, orders.orders)
	require.Len(t, attempts.created, 1)
	assert.Equal(t, models.CheckoutAttemptFailed, attempts.states[attempts.created[0].ID])
}

func TestExecuteOrderInsertFailureAfterSession(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{orderErr: errors.New("db down")}
	sessions := &stubSessions{session: &stripe.CheckoutSession{ID: "cs_test_orphan", URL: "https://example.test"}}
	svc := newCheckoutService(t, attempts, orders, sessions)

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Empty(t, orders.items)
	assert.Equal(t, models.CheckoutAttemptFailed, attempts.states[attempts.created[0].ID])
}

func TestExecuteItemInsertFailureAfterOrder(t *testing.T) {
	attempts := newStubAttempts()
	orders := &stubOrderWriter{orderItemErr: errors.New("db down")}
	sessions := &stubSessions{session: &stripe.CheckoutSession{ID: "cs_test_noitems", URL: "https://example.test"}}
	svc := newCheckoutService(t, attempts, orders, sessions)

	_, err := svc.Execute(context.Background(), uuid.New(), "farmer@mahaseel.app", "https://mahaseel.app", "idem-1", testInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	require.Len(t, orders.orders, 1, "order row persists without items")
	assert.Equal(t, models.CheckoutAttemptFailed, attempts.states[attempts.created[0].ID])
}

func TestMinorUnitsRounding(t *testing.T) {
	cases := []struct {
		price string
		want  int64
	}{
		{"10.00", 1000},
		{"10.005", 1001},
		{"0.01", 1},
		{"150.50", 15050},
		{"33.333", 3333},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, minorUnits(decimal.RequireFromString(tc.price)), tc.price)
	}
}
