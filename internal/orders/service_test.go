package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubOrderRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *stubOrderRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	for _, item := range items {
		order, ok := s.orders[item.OrderID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		order.Items = append(order.Items, item)
	}
	return nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) ListAll(ctx context.Context, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrderRepo) FindByStripeSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.StripeSessionID == sessionID {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Status = status
	return nil
}

func (s *stubOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.PaymentStatus = enums.PaymentStatusPaid
	order.Status = enums.OrderStatusConfirmed
	return nil
}

func (s *stubOrderRepo) UpdateFulfillment(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if _, ok := s.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func newOrderService(t *testing.T) (Service, *stubOrderRepo) {
	t.Helper()
	repo := newStubOrderRepo()
	svc, err := NewService(repo, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo
}

func seedOrder(repo *stubOrderRepo, userID uuid.UUID, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("250.00"),
		Currency:        enums.CurrencyEGP,
		ShippingAddress: "12 Nile Corniche, Cairo",
		Phone:           "+201001234567",
		Status:          status,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodCard,
		StripeSessionID: "cs_" + uuid.NewString(),
		CreatedAt:       time.Now(),
	}
	repo.orders[order.ID] = order
	return order
}

func TestGetForUserScopesToOwner(t *testing.T) {
	svc, repo := newOrderService(t)
	owner := uuid.New()
	order := seedOrder(repo, owner, enums.OrderStatusPending)

	got, err := svc.GetForUser(context.Background(), owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetForUser(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdminUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{"pending to confirmed", enums.OrderStatusPending, enums.OrderStatusConfirmed, true},
		{"confirmed to processing", enums.OrderStatusConfirmed, enums.OrderStatusProcessing, true},
		{"processing to shipped", enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{"shipped to delivered", enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{"delivered to refunded", enums.OrderStatusDelivered, enums.OrderStatusRefunded, true},
		{"cancel before shipping", enums.OrderStatusProcessing, enums.OrderStatusCancelled, true},
		{"cancelled to refunded", enums.OrderStatusCancelled, enums.OrderStatusRefunded, true},
		{"no cancel after shipping", enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{"no skip to delivered", enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{"no revert", enums.OrderStatusDelivered, enums.OrderStatusPending, false},
		{"refunded is terminal", enums.OrderStatusRefunded, enums.OrderStatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newOrderService(t)
			order := seedOrder(repo, uuid.New(), tc.from)

			got, err := svc.AdminUpdateStatus(context.Background(), order.ID, tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got.Status)
				assert.Equal(t, tc.to, repo.orders[order.ID].Status)
				return
			}
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
			assert.Equal(t, tc.from, repo.orders[order.ID].Status)
		})
	}
}

func TestAdminUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, repo := newOrderService(t)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPending)

	_, err := svc.AdminUpdateStatus(context.Background(), order.ID, enums.OrderStatus("lost"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAdminListStatusFilter(t *testing.T) {
	svc, repo := newOrderService(t)
	seedOrder(repo, uuid.New(), enums.OrderStatusPending)
	seedOrder(repo, uuid.New(), enums.OrderStatusShipped)

	page, err := svc.AdminList(context.Background(), "shipped", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, enums.OrderStatusShipped, page.Orders[0].Status)

	_, err = svc.AdminList(context.Background(), "misplaced", pagination.Params{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAdminUpdateFulfillment(t *testing.T) {
	svc, repo := newOrderService(t)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusShipped)

	tracking := "EG123456789"
	eta := time.Now().Add(72 * time.Hour)
	got, err := svc.AdminUpdateFulfillment(context.Background(), order.ID, FulfillmentInput{
		TrackingNumber:        &tracking,
		EstimatedDeliveryDate: &eta,
	})
	require.NoError(t, err)
	require.NotNil(t, got.TrackingNumber)
	assert.Equal(t, tracking, *got.TrackingNumber)

	_, err = svc.AdminUpdateFulfillment(context.Background(), order.ID, FulfillmentInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestConfirmPayment(t *testing.T) {
	svc, repo := newOrderService(t)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusPending)

	got, err := svc.ConfirmPayment(context.Background(), order.StripeSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, got.Status)

	// Replays are no-ops.
	again, err := svc.ConfirmPayment(context.Background(), order.StripeSessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, again.PaymentStatus)

	_, err = svc.ConfirmPayment(context.Background(), "cs_unknown")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestConfirmPaymentRejectsLateSession(t *testing.T) {
	svc, repo := newOrderService(t)
	order := seedOrder(repo, uuid.New(), enums.OrderStatusDelivered)

	_, err := svc.ConfirmPayment(context.Background(), order.StripeSessionID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}
