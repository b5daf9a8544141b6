package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kuraeplasma/SPACEGLEAM/api/routes"
	"github.com/kuraeplasma/SPACEGLEAM/internal/licenses"
	"github.com/kuraeplasma/SPACEGLEAM/internal/subscriptions"
	paypalwebhook "github.com/kuraeplasma/SPACEGLEAM/internal/webhooks/paypal"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/config"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/db"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/logger"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/mailer"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/metrics"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/migrate"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/paypal"
	"github.com/kuraeplasma/SPACEGLEAM/pkg/redis"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	licensingMetrics := metrics.NewLicensingMetrics(registry)

	mailClient := mailer.New(cfg.Sendgrid)
	if mailClient == nil {
		logg.Warn(context.Background(), "sendgrid not configured, outbound mail disabled")
	}

	licenseParams := licenses.ServiceParams{
		Repo:    licenses.NewRepository(dbClient.DB()),
		Logger:  logg,
		Metrics: licensingMetrics,
	}
	if mailClient != nil {
		licenseParams.Mail = mailClient
	}
	licenseService, err := licenses.NewService(licenseParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create license service", err)
		os.Exit(1)
	}

	subscriptionParams := subscriptions.ServiceParams{
		Repo:   subscriptions.NewRepository(dbClient.DB()),
		Logger: logg,
	}
	if mailClient != nil {
		subscriptionParams.Mail = mailClient
	}
	subscriptionService, err := subscriptions.NewService(subscriptionParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	webhookService, err := paypalwebhook.NewService(paypalwebhook.ServiceParams{
		Licenses:      licenseService,
		Subscriptions: subscriptionService,
		Logger:        logg,
		Metrics:       licensingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paypalwebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "paypal")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	verifier := paypal.NewClient(cfg.PayPal)
	if !verifier.Enforced() {
		logg.Warn(context.Background(), "paypal webhook id not configured, signature verification disabled")
	}

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
			DB:             dbClient,
			Redis:          redisClient,
			LicenseService: licenseService,
			WebhookService: webhookService,
			WebhookGuard:   webhookGuard,
			PayPalVerifier: verifier,
			Metrics:        registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
