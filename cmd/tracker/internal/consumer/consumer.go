// Package consumer drains rate-change events from Kafka and applies them to
// the position ledger.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

const (
	rateKeyPrefix     = "rate:"
	rateChannelPrefix = "rates."
	rateSnapshotTTL   = 1 * time.Hour
)

type realClock struct{}

func (realClock) NowUnixMicro() int64 { return time.Now().UnixMicro() }

type Consumer struct {
	logger     *zap.Logger
	reader     KafkaConsumer
	rdb        RedisClient
	ledger     Applier
	clock      Clock
	numWorkers int
}

func New(logger *zap.Logger, reader KafkaConsumer, rdb RedisClient, ledger Applier, numWorkers int) *Consumer {
	return &Consumer{
		logger:     logger,
		reader:     reader,
		rdb:        rdb,
		ledger:     ledger,
		clock:      realClock{},
		numWorkers: numWorkers,
	}
}

// WithClock overrides the timestamp source. Test hook.
func (c *Consumer) WithClock(clock Clock) *Consumer {
	c.clock = clock
	return c
}

// Run fetches messages until ctx is cancelled, sharding them to workers by
// symbol key so same-symbol events keep their arrival order. Events are
// acknowledged (committed) only after the worker has processed them; the
// transport redelivers anything unacknowledged, and reapplying a rate is a
// plain assignment, so redelivery is harmless.
func (c *Consumer) Run(ctx context.Context) error {
	workerChans := make([]chan kafka.Message, c.numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < c.numWorkers; i++ {
		workerChans[i] = make(chan kafka.Message, 100)
		wg.Add(1)
		go c.worker(i, workerChans[i], &wg)
	}

	c.logger.Info("Consumer started", zap.Int("workers", c.numWorkers))

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			c.logger.Error("Kafka fetch error", zap.Error(err))
			continue
		}

		// Deterministic sharding: same symbol always goes to the same worker.
		workerID := getWorkerID(m.Key, c.numWorkers)

		// Blocking handoff. Events are at-least-once and must never be
		// silently dropped, so backpressure propagates to the fetch loop.
		select {
		case workerChans[workerID] <- m:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	c.logger.Info("Shutdown signal received, stopping consumer...")
	for _, ch := range workerChans {
		close(ch)
	}
	c.logger.Info("Waiting for workers to drain...")
	wg.Wait()

	return nil
}

func (c *Consumer) worker(id int, msgs <-chan kafka.Message, wg *sync.WaitGroup) {
	defer wg.Done()
	// Background context so in-flight applies finish during shutdown.
	ctx := context.Background()

	for m := range msgs {
		if err := c.handle(ctx, m.Value); err != nil {
			// Malformed events are logged and dropped; they would fail the
			// same way on redelivery, so they are still acknowledged below.
			c.logger.Error("Dropping rate-change event", zap.Error(err), zap.ByteString("key", m.Key))
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("Kafka commit error", zap.Error(err), zap.Int("worker_id", id))
		}
	}
}

// handle parses one event, applies it to the ledger, and mirrors the applied
// update into Redis for streaming consumers.
func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var event models.RateChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if event.Symbol == "" {
		return fmt.Errorf("event has no symbol")
	}

	matched := c.ledger.ApplyRateUpdate(event.Symbol, event.NewRate)
	if matched == 0 {
		// No position holds this symbol. Not an error.
		c.logger.Debug("No matching positions", zap.String("symbol", event.Symbol))
		return nil
	}

	c.logger.Info("Applied rate update",
		zap.String("symbol", event.Symbol),
		zap.String("new_rate", event.NewRate.String()),
		zap.Int("positions", matched),
	)

	applied := models.AppliedRateUpdate{
		Symbol:    event.Symbol,
		Rate:      event.NewRate,
		Positions: matched,
		AppliedAt: c.clock.NowUnixMicro(),
	}
	mirror, err := json.Marshal(applied)
	if err != nil {
		return fmt.Errorf("marshal applied update: %w", err)
	}

	// Atomic SET + PUBLISH in a single pipeline: the snapshot a late
	// subscriber reads never lags the broadcast.
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, rateKeyPrefix+event.Symbol, mirror, rateSnapshotTTL)
	pipe.Publish(ctx, rateChannelPrefix+event.Symbol, mirror)
	if _, err := pipe.Exec(ctx); err != nil {
		// Mirror failure does not undo the ledger apply; the feed is derived.
		c.logger.Error("Redis pipeline error", zap.Error(err), zap.String("symbol", event.Symbol))
	}

	return nil
}

func getWorkerID(key []byte, numWorkers int) int {
	h := fnv.New32a()
	h.Write(key)
	return int(h.Sum32()) % numWorkers
}
