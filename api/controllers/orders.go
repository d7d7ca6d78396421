package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	ordersvc "github.com/mahaseel/agriconsult-backend/internal/orders"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

type orderItemPayload struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
}

type orderPayload struct {
	ID                    string             `json:"id"`
	TotalAmount           decimal.Decimal    `json:"total_amount"`
	Currency              string             `json:"currency"`
	ShippingAddress       string             `json:"shipping_address"`
	Phone                 string             `json:"phone"`
	Notes                 *string            `json:"notes,omitempty"`
	AdminNotes            *string            `json:"admin_notes,omitempty"`
	Status                string             `json:"status"`
	PaymentStatus         string             `json:"payment_status"`
	PaymentMethod         string             `json:"payment_method"`
	TrackingNumber        *string            `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *time.Time         `json:"estimated_delivery_date,omitempty"`
	Items                 []orderItemPayload `json:"items"`
	CreatedAt             time.Time          `json:"created_at"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type updateFulfillmentRequest struct {
	TrackingNumber        *string    `json:"tracking_number"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	AdminNotes            *string    `json:"admin_notes"`
}

func toOrderPayload(order models.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
			Currency:  string(item.Currency),
		})
	}
	return orderPayload{
		ID:                    order.ID.String(),
		TotalAmount:           order.TotalAmount,
		Currency:              string(order.Currency),
		ShippingAddress:       order.ShippingAddress,
		Phone:                 order.Phone,
		Notes:                 order.Notes,
		AdminNotes:            order.AdminNotes,
		Status:                string(order.Status),
		PaymentStatus:         string(order.PaymentStatus),
		PaymentMethod:         string(order.PaymentMethod),
		TrackingNumber:        order.TrackingNumber,
		EstimatedDeliveryDate: order.EstimatedDeliveryDate,
		Items:                 items,
		CreatedAt:             order.CreatedAt,
	}
}

func toOrderPage(page *ordersvc.Page) map[string]any {
	payloads := make([]orderPayload, 0, len(page.Orders))
	for _, order := range page.Orders {
		payloads = append(payloads, toOrderPayload(order))
	}
	return map[string]any{
		"orders":      payloads,
		"next_cursor": page.NextCursor,
	}
}

func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderPage(page))
	}
}

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderPayload(*order))
	}
}

func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.AdminList(r.Context(), r.URL.Query().Get("status"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderPage(page))
	}
}

func AdminUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdminUpdateStatus(r.Context(), orderID, enums.OrderStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderPayload(*order))
	}
}

func AdminUpdateOrderFulfillment(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateFulfillmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.AdminUpdateFulfillment(r.Context(), orderID, ordersvc.FulfillmentInput{
			TrackingNumber:        payload.TrackingNumber,
			EstimatedDeliveryDate: payload.EstimatedDeliveryDate,
			AdminNotes:            payload.AdminNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderPayload(*order))
	}
}
