package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/mahaseel/agriconsult-backend/pkg/auth"
	"github.com/mahaseel/agriconsult-backend/pkg/config"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
)

type sessionCheckerFunc func(ctx context.Context, accessID string) (bool, error)

func (f sessionCheckerFunc) HasSession(ctx context.Context, accessID string) (bool, error) {
	return f(ctx, accessID)
}

func authTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "agriconsult-test",
		ExpirationMinutes: 15,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, issuedAt time.Time) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, issuedAt, pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "farmer@example.com",
		Role:   enums.UserRoleCustomer,
		JTI:    "access-1",
	})
	require.NoError(t, err)
	return token, userID
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	cfg := authTestConfig()
	token, userID := mintTestToken(t, cfg, time.Now())

	alwaysValid := sessionCheckerFunc(func(ctx context.Context, accessID string) (bool, error) {
		return true, nil
	})

	var seenUserID, seenEmail, seenRole, seenAccessID string
	handler := Auth(cfg, alwaysValid, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		seenEmail = EmailFromContext(r.Context())
		seenRole = RoleFromContext(r.Context())
		seenAccessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, userID.String(), seenUserID)
	assert.Equal(t, "farmer@example.com", seenEmail)
	assert.Equal(t, string(enums.UserRoleCustomer), seenRole)
	assert.Equal(t, "access-1", seenAccessID)
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	cfg := authTestConfig()
	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "header %q", header)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := authTestConfig()
	token, _ := mintTestToken(t, cfg, time.Now().Add(-time.Hour))

	handler := Auth(cfg, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := authTestConfig()
	token, _ := mintTestToken(t, cfg, time.Now())

	revoked := sessionCheckerFunc(func(ctx context.Context, accessID string) (bool, error) {
		return false, nil
	})
	handler := Auth(cfg, revoked, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
