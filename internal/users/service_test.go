package users

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

type stubRepo struct {
	users map[uuid.UUID]*models.User
	perms map[uuid.UUID]json.RawMessage
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users: map[uuid.UUID]*models.User{},
		perms: map[uuid.UUID]json.RawMessage{},
	}
}

func (s *stubRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, nil
}

func (s *stubRepo) GetPermission(ctx context.Context, userID uuid.UUID) (*models.Permission, error) {
	flags, ok := s.perms[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Permission{UserID: userID, Flags: flags}, nil
}

func (s *stubRepo) UpsertPermission(ctx context.Context, userID uuid.UUID, flags json.RawMessage) error {
	s.perms[userID] = flags
	return nil
}

func seedAdmin(repo *stubRepo) *models.User {
	admin := &models.User{
		ID:       uuid.New(),
		Email:    "admin@mahaseel.app",
		FullName: "Admin",
		Role:     enums.UserRoleAdmin,
	}
	repo.users[admin.ID] = admin
	return admin
}

func TestSetPermissionsRoundTrip(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	admin := seedAdmin(repo)
	want := types.PermissionFlags{ManageOrders: true, ManageArticles: true}

	got, err := svc.SetPermissions(context.Background(), admin.ID, want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	loaded, err := svc.GetPermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}

func TestSetPermissionsUnknownUser(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.SetPermissions(context.Background(), uuid.New(), types.PermissionFlags{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetPermissionsMissingRowIsAllFalse(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	admin := seedAdmin(repo)
	flags, err := svc.GetPermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PermissionFlags{}, flags)
}

func TestGetPermissionsCoercesLooseDocument(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	admin := seedAdmin(repo)
	repo.perms[admin.ID] = json.RawMessage(`{"manage_users": true, "manage_orders": 1, "rogue": true}`)

	flags, err := svc.GetPermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.True(t, flags.ManageUsers)
	assert.False(t, flags.ManageOrders, "numeric truthiness does not survive coercion")
}
