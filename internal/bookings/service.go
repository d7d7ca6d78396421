package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
)

// CreateInput is the user payload for requesting a consultation.
type CreateInput struct {
	ConsultantName string    `json:"consultant_name" validate:"required"`
	Topic          string    `json:"topic" validate:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" validate:"required"`
	Notes          *string   `json:"notes"`
}

// Page is one page of bookings for the admin listing.
type Page struct {
	Bookings   []models.Booking
	NextCursor string
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	AdminList(ctx context.Context, params pagination.Params) (*Page, error)
	AdminUpdateStatus(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*models.Booking, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.Booking, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.ConsultantName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consultant name is required")
	}
	if strings.TrimSpace(input.Topic) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "topic is required")
	}
	if !input.ScheduledAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be in the future")
	}

	booking := &models.Booking{
		UserID:         userID,
		ConsultantName: strings.TrimSpace(input.ConsultantName),
		Topic:          strings.TrimSpace(input.Topic),
		ScheduledAt:    input.ScheduledAt,
		Status:         enums.BookingStatusRequested,
		Notes:          input.Notes,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
	}
	return booking, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	bookings, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return bookings, nil
}

func (s *service) AdminList(ctx context.Context, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}

	page := &Page{Bookings: rows}
	if len(rows) > limit {
		page.Bookings = rows[:limit]
		last := page.Bookings[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*models.Booking, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking status")
	}
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}

	if !booking.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move booking from %s to %s", booking.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}
	booking.Status = next
	return booking, nil
}
