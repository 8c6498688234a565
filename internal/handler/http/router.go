package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marviero/backoffice/internal/domain"
	"github.com/marviero/backoffice/internal/realtime"
	"github.com/marviero/backoffice/internal/service"
	"github.com/marviero/backoffice/pkg/health"
	"github.com/marviero/backoffice/pkg/middleware"
)

// RouterConfig bundles everything the router wires together.
type RouterConfig struct {
	Auth      *service.AuthService
	Clients   *service.ClientService
	Suppliers *service.SupplierService
	Products  *service.ProductService
	Orders    *service.OrderService
	Invoices  *service.InvoiceService

	AuthMiddleware *AuthMiddleware
	Cookies        CookiePolicy
	Realtime       *realtime.Handler
	Health         *health.Handler
	Redis          *redis.Client

	AllowedOrigins []string
	Environment    string
	Logger         *slog.Logger
}

// NewRouter creates the chi router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing("backoffice"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Operational endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Realtime endpoints sit outside the JSON middleware stack: the
	// connection gate does its own auth from the handshake.
	r.Get("/ws", cfg.Realtime.ServeDefault)
	r.Get("/ws-private", cfg.Realtime.ServePrivate)

	authHandler := NewAuthHandler(cfg.Auth, cfg.Cookies, cfg.Logger)
	clientHandler := NewClientHandler(cfg.Clients, cfg.Logger)
	supplierHandler := NewSupplierHandler(cfg.Suppliers, cfg.Logger)
	productHandler := NewProductHandler(cfg.Products, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.Orders, cfg.Logger)
	invoiceHandler := NewInvoiceHandler(cfg.Invoices, cfg.Logger)

	am := cfg.AuthMiddleware

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			// credential-accepting endpoints are rate limited per IP
			if cfg.Redis != nil {
				limit := middleware.AuthRateLimit(middleware.DefaultAuthRateLimitConfig(), cfg.Redis, cfg.Logger)
				r.With(limit).Post("/login", authHandler.Login)
				r.With(limit).Post("/register-public", authHandler.RegisterPublic)
			} else {
				r.Post("/login", authHandler.Login)
				r.Post("/register-public", authHandler.RegisterPublic)
			}
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(am.Authenticate)
				r.Get("/me", authHandler.Me)
				r.Post("/socket-token", authHandler.SocketToken)
				r.With(am.RequireAdmin).Post("/register", authHandler.Register)
			})
		})

		// business resources: reads staff-wide, deletes admin-only
		r.Group(func(r chi.Router) {
			r.Use(am.Authenticate)
			r.Use(am.RequireStaff)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", clientHandler.List)
				r.Get("/{id}", clientHandler.Get)
				r.Post("/", clientHandler.Create)
				r.Put("/{id}", clientHandler.Update)
				r.With(am.RequireRole(domain.RoleAdmin)).Delete("/{id}", clientHandler.Delete)
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", supplierHandler.List)
				r.Get("/{id}", supplierHandler.Get)
				r.Post("/", supplierHandler.Create)
				r.Put("/{id}", supplierHandler.Update)
				r.With(am.RequireRole(domain.RoleAdmin)).Delete("/{id}", supplierHandler.Delete)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Get("/search", productHandler.Search)
				r.Get("/{id}", productHandler.Get)
				r.Post("/", productHandler.Create)
				r.Put("/{id}", productHandler.Update)
				r.With(am.RequireRole(domain.RoleAdmin)).Delete("/{id}", productHandler.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Get("/{id}", orderHandler.Get)
				r.Post("/", orderHandler.Create)
				r.Put("/{id}/status", orderHandler.UpdateStatus)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", invoiceHandler.List)
				r.Get("/{id}", invoiceHandler.Get)
				r.Post("/", invoiceHandler.Create)
				r.Put("/{id}/status", invoiceHandler.UpdateStatus)
			})
		})
	})

	return r
}
