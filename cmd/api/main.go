package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fotoclick/backend/api/routes"
	"github.com/fotoclick/backend/internal/admin"
	"github.com/fotoclick/backend/internal/albums"
	"github.com/fotoclick/backend/internal/cart"
	"github.com/fotoclick/backend/internal/checkout"
	"github.com/fotoclick/backend/internal/earnings"
	"github.com/fotoclick/backend/internal/orders"
	"github.com/fotoclick/backend/internal/photographers"
	"github.com/fotoclick/backend/internal/photos"
	"github.com/fotoclick/backend/internal/roles"
	"github.com/fotoclick/backend/internal/users"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/db"
	"github.com/fotoclick/backend/pkg/logger"
	"github.com/fotoclick/backend/pkg/mailer"
	"github.com/fotoclick/backend/pkg/mercadopago"
	"github.com/fotoclick/backend/pkg/metrics"
	"github.com/fotoclick/backend/pkg/migrate"
	"github.com/fotoclick/backend/pkg/redis"
	"github.com/fotoclick/backend/pkg/storage/s3sign"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mpClient, err := mercadopago.NewClient(context.Background(), cfg.MercadoPago, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mercadopago client", err)
		os.Exit(1)
	}

	mailClient, err := mailer.NewClient(context.Background(), cfg.Resend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap mailer", err)
		os.Exit(1)
	}

	signer, err := s3sign.NewClient(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage signer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gdb := dbClient.DB()

	usersService, err := users.NewService(users.NewRepository(gdb), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	rolesService, err := roles.NewService(roles.NewRepository(gdb), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create roles service", err)
		os.Exit(1)
	}

	photographersRepo := photographers.NewRepository(gdb)
	photographersService, err := photographers.NewService(photographersRepo, cfg.Commission)
	if err != nil {
		logg.Error(context.Background(), "failed to create photographers service", err)
		os.Exit(1)
	}

	photosRepo := photos.NewRepository(gdb)
	photosService, err := photos.NewService(photosRepo, photographersRepo, signer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create photos service", err)
		os.Exit(1)
	}

	albumsService, err := albums.NewService(albums.NewRepository(gdb), photographersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create albums service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gdb), dbClient, photosRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	earningsService, err := earnings.NewService(earnings.NewRepository(gdb), photographersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(gdb),
		Tx:       dbClient,
		Photos:   photosRepo,
		Earnings: earningsService,
		Mailer:   mailClient,
		Metrics:  paymentMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:    cartService,
		Orders:   ordersService,
		Provider: mpClient,
		Config:   cfg.MercadoPago,
		Metrics:  paymentMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(admin.NewRepository(gdb), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	webhookGuard := checkout.NewIdempotencyGuard(redisClient, "mercadopago", cfg.Redis.WebhookIdempotencyTTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			Users:          usersService,
			Roles:          rolesService,
			Photographers:  photographersService,
			Photos:         photosService,
			Albums:         albumsService,
			Cart:           cartService,
			Orders:         ordersService,
			Earnings:       earningsService,
			Checkout:       checkoutService,
			Admin:          adminService,
			WebhookGuard:   webhookGuard,
			HTTPMetrics:    httpMetrics,
			Registry:       registry,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			PaymentsPinger: mpClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
