package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/api"
	"github.com/echefulouis/drug-verification-system/internal/config"
	"github.com/echefulouis/drug-verification-system/internal/database"
	"github.com/echefulouis/drug-verification-system/internal/extraction"
	"github.com/echefulouis/drug-verification-system/internal/logger"
	"github.com/echefulouis/drug-verification-system/internal/messaging"
	"github.com/echefulouis/drug-verification-system/internal/ocr"
	"github.com/echefulouis/drug-verification-system/internal/orchestrator"
	"github.com/echefulouis/drug-verification-system/internal/registry"
	"github.com/echefulouis/drug-verification-system/internal/repository"
	"github.com/echefulouis/drug-verification-system/internal/s3storage"
	"github.com/echefulouis/drug-verification-system/internal/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting verification service")

	pool, err := database.Connect(ctx, cfg.DatabaseDSN())
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}
	records := repository.NewVerificationRepository(pool, log)

	store, err := s3storage.New(cfg)
	if err != nil {
		log.Fatal("init storage", zap.Error(err))
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal("ensure bucket", zap.Error(err))
	}

	events, err := messaging.NewNATSClient(cfg.NATS.URL, log)
	if err != nil {
		log.Fatal("connect NATS", zap.Error(err))
	}
	defer events.Close()

	recognizer := ocr.NewClient(cfg.OCR)
	namer := vision.NewClient(cfg.Vision)
	extractor := extraction.NewService(store, recognizer, namer, log)

	session := registry.NewBrowserSession(cfg.Registry, log)
	validator := registry.NewValidator(session, records, events, log)

	pipeline := orchestrator.New(extractor, validator, log)

	srv := api.New(cfg, pipeline, records, log)
	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
