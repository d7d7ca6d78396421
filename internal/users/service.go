package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

// Page is one page of user accounts.
type Page struct {
	Users      []models.User
	NextCursor string
}

// Service is the admin surface over accounts and permissions. The stored
// permission document is loose JSON; it is coerced into the closed flag
// record at both read and write boundaries.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*Page, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPermissions(ctx context.Context, userID uuid.UUID) (types.PermissionFlags, error)
	SetPermissions(ctx context.Context, userID uuid.UUID, flags types.PermissionFlags) (types.PermissionFlags, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	page := &Page{Users: rows}
	if len(rows) > limit {
		page.Users = rows[:limit]
		last := page.Users[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) GetPermissions(ctx context.Context, userID uuid.UUID) (types.PermissionFlags, error) {
	if userID == uuid.Nil {
		return types.PermissionFlags{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	permission, err := s.repo.GetPermission(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row means no permissions, not an error.
			return types.PermissionFlags{}, nil
		}
		return types.PermissionFlags{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load permissions")
	}
	return types.CoercePermissionFlags(permission.Flags), nil
}

func (s *service) SetPermissions(ctx context.Context, userID uuid.UUID, flags types.PermissionFlags) (types.PermissionFlags, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return types.PermissionFlags{}, err
	}

	doc, err := json.Marshal(flags)
	if err != nil {
		return types.PermissionFlags{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode permissions")
	}
	if err := s.repo.UpsertPermission(ctx, userID, doc); err != nil {
		return types.PermissionFlags{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store permissions")
	}
	return flags, nil
}
