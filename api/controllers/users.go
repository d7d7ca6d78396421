package controllers

import (
	"net/http"
	"time"

	"github.com/mahaseel/agriconsult-backend/api/responses"
	"github.com/mahaseel/agriconsult-backend/api/validators"
	usersvc "github.com/mahaseel/agriconsult-backend/internal/users"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

type adminUserPayload struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	PreferredLanguage string    `json:"preferred_language"`
	Role              string    `json:"role"`
	CreatedAt         time.Time `json:"created_at"`
}

func toAdminUserPayload(user models.User) adminUserPayload {
	return adminUserPayload{
		ID:                user.ID.String(),
		Email:             user.Email,
		FullName:          user.FullName,
		PreferredLanguage: string(user.PreferredLanguage),
		Role:              string(user.Role),
		CreatedAt:         user.CreatedAt,
	}
}

func AdminListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payloads := make([]adminUserPayload, 0, len(page.Users))
		for _, user := range page.Users {
			payloads = append(payloads, toAdminUserPayload(user))
		}
		responses.WriteSuccess(w, map[string]any{
			"users":       payloads,
			"next_cursor": page.NextCursor,
		})
	}
}

func AdminGetUserPermissions(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flags, err := svc.GetPermissions(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flags)
	}
}

// AdminSetUserPermissions replaces the whole flag record. The payload is
// the closed record itself; unknown keys are rejected by the decoder.
func AdminSetUserPermissions(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload types.PermissionFlags
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flags, err := svc.SetPermissions(r.Context(), userID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, flags)
	}
}
