package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"trainerworkload/internal/amqp"
	"trainerworkload/internal/cli"
	apphttp "trainerworkload/internal/http"
	"trainerworkload/internal/ingest"
	applog "trainerworkload/internal/log"
	"trainerworkload/internal/services"
	"trainerworkload/internal/store/memory"
	"trainerworkload/internal/worker"
)

func main() {
	cfg, logger := cli.LoadConfig()

	store, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		logger.Error("Failed to load seed trainers", applog.FieldError, err, "path", cfg.SeedFile)
		os.Exit(1)
	}
	logger.WithComponent(applog.ComponentStore).Info("Trainer store ready",
		applog.FieldOperation, applog.OpSeed, "trainers", store.Len(), "path", cfg.SeedFile)

	svc := services.NewWorkloadService(store)
	adapter := ingest.NewAdapter(svc)

	auth := apphttp.NewBearerAuth(cfg.JWTSecret)
	if auth == nil {
		logger.Warn("JWT_SECRET not set - ingestion and lookup endpoints are unauthenticated")
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, adapter, auth, logger)

	var amqpClient *amqp.Client
	if cfg.ConsumerEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP_URL not set - skipping message consumption")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting workload server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if amqpClient != nil {
		ingestWorker := worker.NewIngestWorker(adapter)
		g.Go(func() error {
			err := amqpClient.ConsumeTrainingEvents(gctx, ingestWorker.HandleTrainingMessage)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Workload service stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Workload service stopped gracefully")
}
