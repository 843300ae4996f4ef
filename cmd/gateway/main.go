package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fitpulse/checkout-gateway/api/routes"
	"github.com/fitpulse/checkout-gateway/internal/checkout"
	"github.com/fitpulse/checkout-gateway/internal/incidents"
	"github.com/fitpulse/checkout-gateway/internal/intent"
	"github.com/fitpulse/checkout-gateway/internal/ledger"
	"github.com/fitpulse/checkout-gateway/internal/provider"
	"github.com/fitpulse/checkout-gateway/pkg/config"
	"github.com/fitpulse/checkout-gateway/pkg/db"
	"github.com/fitpulse/checkout-gateway/pkg/db/models"
	"github.com/fitpulse/checkout-gateway/pkg/logger"
	"github.com/fitpulse/checkout-gateway/pkg/metrics"
	"github.com/fitpulse/checkout-gateway/pkg/platform"
	"github.com/fitpulse/checkout-gateway/pkg/redis"
	"github.com/fitpulse/checkout-gateway/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
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

	if cfg.FeatureFlags.AutoMigrate && !cfg.App.IsProd() {
		if err := dbClient.DB().AutoMigrate(&models.PaymentIncident{}); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	platformClient := platform.NewClient(cfg.Platform)
	confirmer := provider.NewStripeClient(stripeClient)

	intentService, err := intent.NewService(platformClient, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create intent service", err)
		os.Exit(1)
	}

	recorder, err := ledger.NewService(platformClient, redisClient, cfg.Checkout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger recorder", err)
		os.Exit(1)
	}

	incidentsRepo, err := incidents.NewRepository(dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create incidents repository", err)
		os.Exit(1)
	}
	incidentsService, err := incidents.NewService(incidentsRepo, logg, checkoutMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create incidents service", err)
		os.Exit(1)
	}

	sessionManager, err := checkout.NewManager(checkout.ManagerParams{
		Intents:   intentService,
		Recorder:  recorder,
		Incidents: incidentsService,
		Provider:  confirmer,
		Metrics:   checkoutMetrics,
		Logger:    logg,
		Config:    cfg.Checkout,
		OnSuccess: func(r checkout.Receipt) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"session_id": r.SessionID.String(),
				"intent_id":  r.ProviderTransactionID,
				"plan_type":  r.PlanType,
			})
			logg.Info(ctx, "payment completed and recorded")
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout manager", err)
		os.Exit(1)
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
	logg.Info(ctx, "starting checkout gateway")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, redisClient, sessionManager, confirmer, incidentsService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "checkout gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
