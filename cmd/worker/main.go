package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/config"
	"github.com/echefulouis/drug-verification-system/internal/database"
	"github.com/echefulouis/drug-verification-system/internal/logger"
	"github.com/echefulouis/drug-verification-system/internal/queue"
	"github.com/echefulouis/drug-verification-system/internal/repository"
	"github.com/echefulouis/drug-verification-system/internal/worker"
)

// purgeSchedule runs the retention sweep hourly; records carry a 90-day
// deadline, so the cadence is not timing-sensitive.
const purgeSchedule = "@every 1h"

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

	pool, err := database.Connect(ctx, cfg.DatabaseDSN())
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}
	records := repository.NewVerificationRepository(pool, log)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(purgeSchedule, queue.NewPurgeExpiredTask()); err != nil {
		log.Fatal("register purge schedule", zap.Error(err))
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Error("scheduler stopped", zap.Error(err))
		}
	}()

	server := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 1})
	processor := worker.NewProcessor(records, log)
	mux := processor.Handler()

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		server.Shutdown()
	}()

	log.Info("purge worker running")
	if err := server.Run(mux); err != nil {
		log.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}
