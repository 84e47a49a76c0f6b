package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/rates/internal/coinmarketcap"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/rates/internal/poller"
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

	clock := poller.RealClock{}

	// Ensure the topic exists before the first publish
	creator := poller.NewTopicCreator(logger, &poller.RealKafkaDialer{Dialer: kafka.DefaultDialer}, clock)
	creator.Create(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.LeastBytes{},
		// Optimization: Send batches to reduce network IO
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true, // Write non-blocking (fire and forget handled by buffer)
	}

	fetcher := coinmarketcap.NewClient(cfg.Rates.APIURL, cfg.Rates.APIKey, cfg.Rates.Convert)

	p := poller.New(
		logger,
		fetcher,
		writer,
		decimal.NewFromFloat(cfg.Rates.Threshold),
		time.Duration(cfg.Rates.PollIntervalSec)*time.Second,
		clock,
	)

	ctx, cancel := context.WithCancel(context.Background())

	go p.Run(ctx)

	// On-demand trigger: runs one cycle and returns the fetched quotes.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rates/check", func(w http.ResponseWriter, r *http.Request) {
		quotes, err := p.RunOnce(r.Context())
		if err != nil {
			logger.Error("On-demand rate check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(quotes)
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	go func() {
		logger.Info("Rates HTTP server started", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	// Flush the Kafka buffer (CRITICAL with Async writes)
	if err := writer.Close(); err != nil {
		logger.Error("Error closing Kafka writer", zap.Error(err))
	} else {
		logger.Info("Kafka writer closed cleanly")
	}
}
