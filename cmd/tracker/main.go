package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/api"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/consumer"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/ledger"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/tracker/internal/loader"
	"github.com/Stephc02/FinancialTrackingSystem/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 200,
		MaxBytes: 10e6,
		MaxWait:  200 * time.Millisecond,
		// Rebalancing: 3s heartbeat, 10s session timeout for responsive scaling
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    10 * time.Second,
	})

	book := ledger.New()

	// Optional bootstrap load. A missing or bad seed file is a warning: the
	// process starts with an empty ledger and the upload endpoint still works.
	if cfg.Positions.File != "" {
		if n, err := loader.LoadFile(cfg.Positions.File, book); err != nil {
			logger.Warn("Bootstrap positions load failed", zap.String("file", cfg.Positions.File), zap.Error(err))
		} else {
			logger.Info("Bootstrap positions loaded", zap.String("file", cfg.Positions.File), zap.Int("count", n))
		}
	}

	mux := http.NewServeMux()
	api.NewServer(book, logger).Routes(mux)
	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	cons := consumer.New(logger, reader, rdb, book, cfg.Processor.NumWorkers)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cons.Run(ctx)
	})

	g.Go(func() error {
		logger.Info("HTTP server started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received, stopping tracker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		logger.Error("Service error", zap.Error(err))
	}

	logger.Info("Closing Kafka reader...")
	if err := reader.Close(); err != nil {
		logger.Error("Error closing reader", zap.Error(err))
	}

	logger.Info("Closing Redis...")
	rdb.Close()

	logger.Info("Tracker exited cleanly")
}
