package controllers

import (
	"net/http"

	"github.com/mahaseel/agriconsult-backend/api/middleware"
	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	authsvc "github.com/mahaseel/agriconsult-backend/internal/auth"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	pkgerrors "github.com/mahaseel/agriconsult-backend/pkg/errors"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type userPayload struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	PreferredLanguage string `json:"preferred_language"`
	Role              string `json:"role"`
}

type authPayload struct {
	User         userPayload            `json:"user"`
	AccessToken  string                 `json:"access_token"`
	RefreshToken string                 `json:"refresh_token"`
	Permissions  types.PermissionFlags  `json:"permissions"`
}

func toUserPayload(user *models.User) userPayload {
	return userPayload{
		ID:                user.ID.String(),
		Email:             user.Email,
		FullName:          user.FullName,
		PreferredLanguage: string(user.PreferredLanguage),
		Role:              string(user.Role),
	}
}

func toAuthPayload(result *authsvc.Result) authPayload {
	return authPayload{
		User:         toUserPayload(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Permissions:  result.Permissions,
	}
}

// Register creates a customer account and returns a token pair.
func Register(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload authsvc.RegisterInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toAuthPayload(result))
	}
}

func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAuthPayload(result))
	}
}

// Logout revokes the caller's refresh session. Requires Auth middleware.
func Logout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"logged_out": true})
	}
}

// Refresh rotates a refresh token for a new token pair. The expired access
// token rides in the body, not the Authorization header.
func Refresh(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload refreshRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refresh(r.Context(), payload.AccessToken, payload.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAuthPayload(result))
	}
}

// Me returns the caller's profile and coerced permission flags.
func Me(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, flags, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"user":        toUserPayload(user),
			"permissions": flags,
		})
	}
}
