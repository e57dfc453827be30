package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fotoclick/backend/api/controllers"
	"github.com/fotoclick/backend/api/middleware"
	adminsvc "github.com/fotoclick/backend/internal/admin"
	albumssvc "github.com/fotoclick/backend/internal/albums"
	cartsvc "github.com/fotoclick/backend/internal/cart"
	checkoutsvc "github.com/fotoclick/backend/internal/checkout"
	earningssvc "github.com/fotoclick/backend/internal/earnings"
	orderssvc "github.com/fotoclick/backend/internal/orders"
	photographerssvc "github.com/fotoclick/backend/internal/photographers"
	photossvc "github.com/fotoclick/backend/internal/photos"
	rolessvc "github.com/fotoclick/backend/internal/roles"
	userssvc "github.com/fotoclick/backend/internal/users"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/metrics"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	Users         userssvc.Service
	Roles         rolessvc.Service
	Photographers photographerssvc.Service
	Photos        photossvc.Service
	Albums        albumssvc.Service
	Cart          cartsvc.Service
	Orders        orderssvc.Service
	Earnings      earningssvc.Service
	Checkout      checkoutsvc.Service
	Admin         adminsvc.Service

	WebhookGuard *checkoutsvc.IdempotencyGuard

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry

	DBPinger       Pinger
	RedisPinger    Pinger
	PaymentsPinger Pinger
}

// Pinger is the readiness-check surface of a hard dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires middleware, controllers and the metrics endpoint.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if params.HTTPMetrics != nil {
		r.Use(middleware.Metrics(params.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadinessDeps(
			params.DBPinger, params.RedisPinger, params.PaymentsPinger,
		)))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/mercadopago", controllers.MercadoPagoWebhook(params.Checkout, params.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, params.Users, logg))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", controllers.AuthRegister(params.Users, logg))
			r.Post("/login", controllers.AuthLogin(params.Users, params.Cart, logg))
		})

		// public catalog
		r.Get("/photos", controllers.PhotosList(params.Photos, logg))
		r.Get("/photos/{photoId}", controllers.PhotoGet(params.Photos, logg))
		r.Get("/albums", controllers.AlbumsList(params.Albums, logg))
		r.Get("/albums/{albumId}", controllers.AlbumGet(params.Albums, logg))
		r.Get("/photographers/{photographerId}", controllers.PhotographerGet(params.Photographers, logg))
		r.Get("/orders/public/{publicId}", controllers.OrderGetByPublicID(params.Orders, logg))

		// carts and checkout work for users and guests alike
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(params.Cart, logg))
				r.Delete("/", controllers.CartEmpty(params.Cart, logg))
				r.Put("/email", controllers.CartSetEmail(params.Cart, logg))
				r.Post("/items", controllers.CartAddItem(params.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(params.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartDeleteItem(params.Cart, logg))
			})

			r.Post("/checkout", controllers.CheckoutStart(params.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(params.Orders, logg))
				r.Get("/", controllers.OrdersListMine(params.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(params.Orders, logg))
				r.Post("/{orderId}/resend-confirmation", controllers.OrderResendConfirmation(params.Orders, logg))
			})
		})

		// authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Get("/users/me", controllers.UsersMe(params.Users, logg))

			r.Route("/photographers", func(r chi.Router) {
				r.Get("/", controllers.PhotographersList(params.Photographers, logg))
				r.Post("/", controllers.PhotographerCreate(params.Photographers, logg))
				r.Get("/me", controllers.PhotographerMe(params.Photographers, logg))
				r.Patch("/{photographerId}", controllers.PhotographerUpdate(params.Photographers, logg))
				r.Delete("/{photographerId}", controllers.PhotographerDelete(params.Photographers, logg))
				r.Get("/{photographerId}/earnings", controllers.EarningsList(params.Earnings, logg))
				r.Get("/{photographerId}/earnings/summary", controllers.EarningsSummary(params.Earnings, logg))
			})

			r.Route("/photos", func(r chi.Router) {
				r.Post("/", controllers.PhotoUpload(params.Photos, logg))
				r.Patch("/{photoId}", controllers.PhotoEdit(params.Photos, logg))
				r.Delete("/{photoId}", controllers.PhotoDelete(params.Photos, logg))
			})

			r.Route("/albums", func(r chi.Router) {
				r.Post("/", controllers.AlbumCreate(params.Albums, logg))
				r.Patch("/{albumId}", controllers.AlbumUpdate(params.Albums, logg))
				r.Delete("/{albumId}", controllers.AlbumDelete(params.Albums, logg))
				r.Put("/{albumId}/photos", controllers.AlbumSetPhotos(params.Albums, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/dashboard", controllers.AdminDashboard(params.Admin, logg))
				r.Get("/users", controllers.UsersList(params.Users, logg))
				r.Put("/users/{userId}/role", controllers.UserAssignRole(params.Users, logg))
				r.Get("/earnings/summary", controllers.EarningsSummaryAll(params.Earnings, logg))

				r.Route("/roles", func(r chi.Router) {
					r.Get("/", controllers.RolesList(params.Roles, logg))
					r.Post("/", controllers.RoleCreate(params.Roles, logg))
					r.Put("/{roleId}/permissions", controllers.RoleSetPermissions(params.Roles, logg))
					r.Delete("/{roleId}", controllers.RoleDelete(params.Roles, logg))
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.OrdersListAll(params.Orders, logg))
					r.Patch("/{orderId}", controllers.OrderEdit(params.Orders, logg))
					r.Patch("/{orderId}/status", controllers.OrderUpdateStatus(params.Orders, logg))
					r.Delete("/{orderId}", controllers.OrderDelete(params.Orders, logg))
				})
			})
		})
	})

	return r
}
