package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/partsdeskhq/partsdesk-backend/internal/leads"
	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
	"github.com/partsdeskhq/partsdesk-backend/pkg/db"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
	"github.com/partsdeskhq/partsdesk-backend/pkg/metrics"
	"github.com/partsdeskhq/partsdesk-backend/pkg/migrate"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	jobName       = "leads-sweep"
	sweepInterval = time.Minute
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "leads-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "leads-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	source, err := leads.NewGmailSource(context.Background(), cfg.Leads, cfg.GCP)
	requireResource(ctx, logg, "gmail source", err)

	ingestor, err := leads.NewIngestor(source, leads.NewRepository(dbClient.DB()), dbClient, logg)
	requireResource(ctx, logg, "lead ingestor", err)

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "leads-worker",
	})
	logg.Info(runCtx, "leads worker ready")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		started := time.Now()
		stored, err := ingestor.Sweep(runCtx)
		jobMetrics.ObserveDuration(jobName, time.Since(started))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			jobMetrics.IncFailure(jobName)
			logg.Error(runCtx, "lead sweep failed", err)
		} else {
			jobMetrics.IncSuccess(jobName)
			if stored > 0 {
				logg.Info(logg.WithField(runCtx, "stored", stored), "lead sweep ingested new leads")
			}
		}

		select {
		case <-runCtx.Done():
			logg.Info(runCtx, "leads worker shutting down gracefully")
			return
		case <-ticker.C:
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
