package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mahaseel/agriconsult-backend/api/controllers"
	"github.com/mahaseel/agriconsult-backend/api/middleware"
	articlesvc "github.com/mahaseel/agriconsult-backend/internal/articles"
	authsvc "github.com/mahaseel/agriconsult-backend/internal/auth"
	bookingsvc "github.com/mahaseel/agriconsult-backend/internal/bookings"
	cartsvc "github.com/mahaseel/agriconsult-backend/internal/cart"
	checkoutsvc "github.com/mahaseel/agriconsult-backend/internal/checkout"
	ordersvc "github.com/mahaseel/agriconsult-backend/internal/orders"
	productsvc "github.com/mahaseel/agriconsult-backend/internal/products"
	usersvc "github.com/mahaseel/agriconsult-backend/internal/users"
	stripewebhook "github.com/mahaseel/agriconsult-backend/internal/webhooks/stripe"
	"github.com/mahaseel/agriconsult-backend/pkg/auth/session"
	"github.com/mahaseel/agriconsult-backend/pkg/config"
	"github.com/mahaseel/agriconsult-backend/pkg/db"
	"github.com/mahaseel/agriconsult-backend/pkg/logger"
	"github.com/mahaseel/agriconsult-backend/pkg/metrics"
	"github.com/mahaseel/agriconsult-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps carries everything the router needs wired from main.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions sessionManager
	Registry *prometheus.Registry
	HTTP     *metrics.HTTPMetrics

	Auth     authsvc.Service
	Users    usersvc.Service
	Products productsvc.Service
	Articles articlesvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Bookings bookingsvc.Service
	Webhooks stripewebhook.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTP),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.Live())
		r.Get("/ready", controllers.Ready(d.DB, d.Redis, logg))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", controllers.StripeWebhook(d.Webhooks, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.Register(d.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.Login(d.Auth, logg))
		r.Post("/refresh", controllers.Refresh(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog and knowledge base. Language is selected per
		// request with the lang query parameter.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(d.Products, logg))
			r.Get("/{id}", controllers.GetProduct(d.Products, logg))
		})
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", controllers.ListArticles(d.Articles, logg))
			r.Get("/{slug}", controllers.GetArticle(d.Articles, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))

			r.Post("/auth/logout", controllers.Logout(d.Auth, logg))
			r.Get("/me", controllers.Me(d.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Put("/items/{id}", controllers.UpdateCartItem(d.Cart, logg))
				r.Delete("/items/{id}", controllers.RemoveCartItem(d.Cart, logg))
				r.Delete("/", controllers.ClearCart(d.Cart, logg))
			})

			r.With(middleware.Idempotency(d.Redis, cfg.Checkout.IdempotencyTTL, logg)).
				Post("/checkout", controllers.Checkout(d.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(d.Orders, logg))
				r.Get("/{id}", controllers.GetOrder(d.Orders, logg))
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", controllers.CreateBooking(d.Bookings, logg))
				r.Get("/", controllers.ListBookings(d.Bookings, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(d.Users, logg))
			r.Get("/{id}/permissions", controllers.AdminGetUserPermissions(d.Users, logg))
			r.Put("/{id}/permissions", controllers.AdminSetUserPermissions(d.Users, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(d.Orders, logg))
			r.Put("/{id}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
			r.Put("/{id}/fulfillment", controllers.AdminUpdateOrderFulfillment(d.Orders, logg))
		})
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", controllers.AdminListArticles(d.Articles, logg))
			r.Post("/", controllers.AdminCreateArticle(d.Articles, logg))
			r.Put("/{id}", controllers.AdminUpdateArticle(d.Articles, logg))
			r.Put("/{id}/publish", controllers.AdminPublishArticle(d.Articles, logg))
		})
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.AdminListBookings(d.Bookings, logg))
			r.Put("/{id}/status", controllers.AdminUpdateBookingStatus(d.Bookings, logg))
		})
	})

	return r
}
