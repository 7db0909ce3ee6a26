package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/partsdeskhq/partsdesk-backend/api/controllers"
	"github.com/partsdeskhq/partsdesk-backend/api/routes"
	"github.com/partsdeskhq/partsdesk-backend/internal/auth"
	"github.com/partsdeskhq/partsdesk-backend/internal/escalations"
	"github.com/partsdeskhq/partsdesk-backend/internal/leads"
	"github.com/partsdeskhq/partsdesk-backend/internal/orders"
	"github.com/partsdeskhq/partsdesk-backend/internal/refunds"
	"github.com/partsdeskhq/partsdesk-backend/internal/reports"
	stripewebhook "github.com/partsdeskhq/partsdesk-backend/internal/webhooks/stripe"
	"github.com/partsdeskhq/partsdesk-backend/internal/yards"
	"github.com/partsdeskhq/partsdesk-backend/pkg/auth/session"
	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/migrate"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
	"github.com/partsdeskhq/partsdesk-backend/pkg/redis"
	"github.com/partsdeskhq/partsdesk-backend/pkg/square"
	"github.com/partsdeskhq/partsdesk-backend/pkg/stripe"
)

const (
	shutdownGrace    = 15 * time.Second
	webhookReplayTTL = 7 * 24 * time.Hour
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          auth.NewUserRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	var orderOpts []orders.Option
	if cfg.FeatureFlags.SquareRefunds {
		squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create square client", err)
			os.Exit(1)
		}
		orderOpts = append(orderOpts, orders.WithCardRefunds(squareClient, true))
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, outboxSvc, orderOpts...)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	yardsSvc, err := yards.NewService(yards.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create yards service", err)
		os.Exit(1)
	}
	refundsSvc, err := refunds.NewService(refunds.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create refunds service", err)
		os.Exit(1)
	}
	escalationsSvc, err := escalations.NewService(escalations.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create escalations service", err)
		os.Exit(1)
	}
	reportsSvc, err := reports.NewService(reports.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}
	leadsSvc, err := leads.NewService(leads.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create leads service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:  cfg,
		Logger:  logg,
		Redis:   redisClient,
		Session: sessionManager,
		HealthChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		AuthService:        authService,
		OrdersService:      ordersSvc,
		YardsService:       yardsSvc,
		RefundsService:     refundsSvc,
		EscalationsService: escalationsSvc,
		ReportsService:     reportsSvc,
		LeadsService:       leadsSvc,
	}

	if cfg.Stripe.APIKey != "" {
		stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		webhookSvc, err := stripewebhook.NewService(ordersSvc, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		guard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookReplayTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe webhook guard", err)
			os.Exit(1)
		}
		deps.StripeClient = stripeClient
		deps.StripeWebhook = webhookSvc
		deps.StripeWebhookGuard = guard
	}

	if gmailSource, err := leads.NewGmailSource(context.Background(), cfg.Leads, cfg.GCP); err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "gmail source unavailable, push fallback disabled")
	} else if ingestor, err := leads.NewIngestor(gmailSource, leads.NewRepository(dbClient.DB()), dbClient, logg); err != nil {
		logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "lead ingestor unavailable, push fallback disabled")
	} else {
		deps.LeadIngestor = ingestor
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
