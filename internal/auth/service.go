package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mahaseel/agriconsult-backend/internal/users"
	pkgauth "github.com/mahaseel/agriconsult-backend/pkg/auth"
	"github.com/mahaseel/agriconsult-backend/pkg/auth/session"
	"github.com/mahaseel/agriconsult-backend/pkg/config"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/security"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// RegisterInput is the new-account payload.
type RegisterInput struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	FullName          string `json:"full_name" validate:"required"`
	PreferredLanguage string `json:"preferred_language"`
}

// Result is returned by register, login, and refresh. Permissions are only
// populated for admins; customers carry the zero record.
type Result struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	Permissions  types.PermissionFlags
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Result, error)
	Login(ctx context.Context, email, password string) (*Result, error)
	Logout(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, expiredAccessToken, refreshToken string) (*Result, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, types.PermissionFlags, error)
}

type service struct {
	repo        users.Repository
	permissions users.Service
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(repo users.Repository, permissions users.Service, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if permissions == nil {
		return nil, fmt.Errorf("permission service required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		permissions: permissions,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:             email,
		PasswordHash:      hash,
		FullName:          strings.TrimSpace(input.FullName),
		PreferredLanguage: enums.ParseLanguage(input.PreferredLanguage),
		Role:              enums.UserRoleCustomer,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	return s.issueTokens(ctx, user)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Refresh rotates the refresh token and mints a new access token. The old
// access token may be expired but must parse and verify.
func (s *service) Refresh(ctx context.Context, expiredAccessToken, refreshToken string) (*Result, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, expiredAccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "parse access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	flags, err := s.loadPermissions(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Result{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		Permissions:  flags,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*models.User, types.PermissionFlags, error) {
	if userID == uuid.Nil {
		return nil, types.PermissionFlags{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.PermissionFlags{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, types.PermissionFlags{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	flags, err := s.loadPermissions(ctx, user)
	if err != nil {
		return nil, types.PermissionFlags{}, err
	}
	return user, flags, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*Result, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refreshToken, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	flags, err := s.loadPermissions(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Result{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Permissions:  flags,
	}, nil
}

func (s *service) loadPermissions(ctx context.Context, user *models.User) (types.PermissionFlags, error) {
	if user.Role != enums.UserRoleAdmin {
		return types.PermissionFlags{}, nil
	}
	return s.permissions.GetPermissions(ctx, user.ID)
}
