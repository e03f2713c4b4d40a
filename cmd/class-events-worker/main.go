package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/veltaedu/velta-backend/internal/classes"
	"github.com/veltaedu/velta-backend/internal/payments"
	"github.com/veltaedu/velta-backend/internal/payouts"
	"github.com/veltaedu/velta-backend/internal/triggers"
	"github.com/veltaedu/velta-backend/pkg/config"
	"github.com/veltaedu/velta-backend/pkg/db"
	"github.com/veltaedu/velta-backend/pkg/logger"
	"github.com/veltaedu/velta-backend/pkg/migrate"
	"github.com/veltaedu/velta-backend/pkg/outbox"
	"github.com/veltaedu/velta-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "class-events-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "class-events-worker"

	logg = logger.New(logger.Options{
		ServiceName: "class-events-worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	paymentsClient, err := payments.NewClient(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments client", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		DB:       dbClient,
		Repo:     payouts.NewRepository(dbClient.DB()),
		Executor: paymentsClient,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	adapter, err := triggers.NewAdapter(triggers.AdapterParams{
		Ledger:  payoutService,
		Classes: classes.NewRepository(dbClient.DB()),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trigger adapter", err)
		os.Exit(1)
	}

	consumer, err := triggers.NewConsumer(adapter, pubsubClient.ClassSubscriber(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create class events consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  cfg.Service.Kind,
		"subscription": cfg.PubSub.ClassSubscription,
	})
	logg.Info(ctx, "starting class events worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "class events worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "class events worker shutting down gracefully")
}
