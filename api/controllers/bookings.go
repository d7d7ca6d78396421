package controllers

import (
	"net/http"
	"time"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	bookingsvc "github.com/mahaseel/agriconsult-backend/internal/bookings"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
)

type bookingPayload struct {
	ID             string    `json:"id"`
	ConsultantName string    `json:"consultant_name"`
	Topic          string    `json:"topic"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes,omitempty"`
}

type updateBookingStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func toBookingPayload(booking models.Booking) bookingPayload {
	return bookingPayload{
		ID:             booking.ID.String(),
		ConsultantName: booking.ConsultantName,
		Topic:          booking.Topic,
		ScheduledAt:    booking.ScheduledAt,
		Status:         string(booking.Status),
		Notes:          booking.Notes,
	}
}

func CreateBooking(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bookingsvc.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBookingPayload(*booking))
	}
}

func ListBookings(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookings, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payloads := make([]bookingPayload, 0, len(bookings))
		for _, booking := range bookings {
			payloads = append(payloads, toBookingPayload(booking))
		}
		responses.WriteSuccess(w, map[string]any{"bookings": payloads})
	}
}

func AdminListBookings(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		payloads := make([]bookingPayload, 0, len(page.Bookings))
		for _, booking := range page.Bookings {
			payloads = append(payloads, toBookingPayload(booking))
		}
		responses.WriteSuccess(w, map[string]any{
			"bookings":    payloads,
			"next_cursor": page.NextCursor,
		})
	}
}

func AdminUpdateBookingStatus(svc bookingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBookingStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.AdminUpdateStatus(r.Context(), bookingID, enums.BookingStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBookingPayload(*booking))
	}
}
