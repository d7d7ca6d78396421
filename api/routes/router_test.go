package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	articlesvc "github.com/mahaseel/agriconsult-backend/internal/articles"
	authsvc "github.com/mahaseel/agriconsult-backend/internal/auth"
	bookingsvc "github.com/mahaseel/agriconsult-backend/internal/bookings"
	cartsvc "github.com/mahaseel/agriconsult-backend/internal/cart"
	checkoutsvc "github.com/mahaseel/agriconsult-backend/internal/checkout"
	ordersvc "github.com/mahaseel/agriconsult-backend/internal/orders"
	productsvc "github.com/mahaseel/agriconsult-backend/internal/products"
	usersvc "github.com/mahaseel/agriconsult-backend/internal/users"
	pkgauth "github.com/mahaseel/agriconsult-backend/pkg/auth"
	"github.com/mahaseel/agriconsult-backend/pkg/config"
	"github.com/mahaseel/agriconsult-backend/pkg/db/models"
	"github.com/mahaseel/agriconsult-backend/pkg/enums"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/pagination"
	"github.com/mahaseel/agriconsult-backend/pkg/redis"
	"github.com/mahaseel/agriconsult-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (*authsvc.Result, error) {
	return nil, nil
}

func (stubAuthService) Login(ctx context.Context, email, password string) (*authsvc.Result, error) {
	return nil, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

func (stubAuthService) Refresh(ctx context.Context, expiredAccessToken, refreshToken string) (*authsvc.Result, error) {
	return nil, nil
}

func (stubAuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, types.PermissionFlags, error) {
	return &models.User{ID: userID, Email: "farmer@example.com"}, types.PermissionFlags{}, nil
}

type stubUserService struct{}

func (stubUserService) List(ctx context.Context, params pagination.Params) (*usersvc.Page, error) {
	return &usersvc.Page{}, nil
}

func (stubUserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (stubUserService) GetPermissions(ctx context.Context, userID uuid.UUID) (types.PermissionFlags, error) {
	return types.PermissionFlags{}, nil
}

func (stubUserService) SetPermissions(ctx context.Context, userID uuid.UUID, flags types.PermissionFlags) (types.PermissionFlags, error) {
	return flags, nil
}

type stubProductService struct{}

func (stubProductService) List(ctx context.Context, params pagination.Params) (*productsvc.Page, error) {
	return &productsvc.Page{}, nil
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return &models.Product{ID: id}, nil
}

type stubArticleService struct{}

func (stubArticleService) ListPublished(ctx context.Context, params pagination.Params) (*articlesvc.Page, error) {
	return &articlesvc.Page{}, nil
}

func (stubArticleService) GetPublished(ctx context.Context, slug string) (*models.Article, error) {
	return &models.Article{Slug: slug}, nil
}

func (stubArticleService) AdminList(ctx context.Context, params pagination.Params) (*articlesvc.Page, error) {
	return &articlesvc.Page{}, nil
}

func (stubArticleService) AdminCreate(ctx context.Context, input articlesvc.DraftInput) (*models.Article, error) {
	return &models.Article{Slug: input.Slug}, nil
}

func (stubArticleService) AdminUpdate(ctx context.Context, id uuid.UUID, input articlesvc.DraftInput) (*models.Article, error) {
	return &models.Article{ID: id}, nil
}

func (stubArticleService) AdminSetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Article, error) {
	return &models.Article{ID: id, Published: published}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, userID uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (*cartsvc.View, error) {
	return &cartsvc.View{}, nil
}

func (stubCartService) Clear(ctx context.Context, userID uuid.UUID) error { return nil }

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID, email, origin, idempotencyKey string, input checkoutsvc.Input) (*checkoutsvc.Result, error) {
	return &checkoutsvc.Result{SessionID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}, nil
}

type stubOrderService struct{}

func (stubOrderService) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ordersvc.Page, error) {
	return &ordersvc.Page{}, nil
}

func (stubOrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrderService) AdminList(ctx context.Context, statusFilter string, params pagination.Params) (*ordersvc.Page, error) {
	return &ordersvc.Page{}, nil
}

func (stubOrderService) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	return &models.Order{ID: orderID, Status: next}, nil
}

func (stubOrderService) AdminUpdateFulfillment(ctx context.Context, orderID uuid.UUID, input ordersvc.FulfillmentInput) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrderService) ConfirmPayment(ctx context.Context, stripeSessionID string) (*models.Order, error) {
	return &models.Order{}, nil
}

type stubBookingService struct{}

func (stubBookingService) Create(ctx context.Context, userID uuid.UUID, input bookingsvc.CreateInput) (*models.Booking, error) {
	return &models.Booking{UserID: userID}, nil
}

func (stubBookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return nil, nil
}

func (stubBookingService) AdminList(ctx context.Context, params pagination.Params) (*bookingsvc.Page, error) {
	return &bookingsvc.Page{}, nil
}

func (stubBookingService) AdminUpdateStatus(ctx context.Context, bookingID uuid.UUID, next enums.BookingStatus) (*models.Booking, error) {
	return &models.Booking{ID: bookingID, Status: next}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) Process(ctx context.Context, payload []byte, signatureHeader string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "agriconsult-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    (*redis.Client)(nil),
		Sessions: stubSessionManager{},
		Auth:     stubAuthService{},
		Users:    stubUserService{},
		Products: stubProductService{},
		Articles: stubArticleService{},
		Cart:     stubCartService{},
		Checkout: stubCheckoutService{},
		Orders:   stubOrderService{},
		Bookings: stubBookingService{},
		Webhooks: stubWebhookService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "farmer@example.com",
		Role:   role,
		JTI:    "test-access",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupAcceptsValidToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookRouteIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", nil)
	req.Header.Set("Stripe-Signature", "t=0,v1=abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
