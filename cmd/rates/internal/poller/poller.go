// Package poller polls market quotes and publishes significant rate changes.
package poller

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/pkg/models"
)

// Significant reports whether a quote's 24h move exceeds the threshold.
// The threshold is exclusive: a move of exactly threshold points does not
// qualify. Pure function; the publish side effect lives in the Poller.
func Significant(q models.RateQuote, threshold decimal.Decimal) bool {
	return q.PercentChange24h.Abs().GreaterThan(threshold)
}

type Poller struct {
	logger    *zap.Logger
	fetcher   RateFetcher
	writer    KafkaWriter
	threshold decimal.Decimal
	interval  time.Duration
	clock     Clock
}

func New(
	logger *zap.Logger,
	fetcher RateFetcher,
	writer KafkaWriter,
	threshold decimal.Decimal,
	interval time.Duration,
	clock Clock,
) *Poller {
	return &Poller{
		logger:    logger,
		fetcher:   fetcher,
		writer:    writer,
		threshold: threshold,
		interval:  interval,
		clock:     clock,
	}
}

// Run polls on the configured interval until ctx is cancelled. A failed cycle
// is logged and skipped; the next tick retries naturally.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("Rates poller started",
		zap.Duration("interval", p.interval),
		zap.String("threshold", p.threshold.String()),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.Error("Poll cycle failed", zap.Error(err))
			}
			p.clock.Sleep(p.interval)
		}
	}
}

// RunOnce fetches quotes, publishes a RateChangeEvent for each significant
// one, and returns the fetched quotes. A fetch failure is returned to the
// caller; nothing is published.
func (p *Poller) RunOnce(ctx context.Context) ([]models.RateQuote, error) {
	quotes, err := p.fetcher.FetchRates(ctx)
	if err != nil {
		return nil, err
	}

	for _, quote := range quotes {
		if !Significant(quote, p.threshold) {
			continue
		}

		p.logger.Info("Significant rate change detected",
			zap.String("symbol", quote.Symbol),
			zap.String("percent_change_24h", quote.PercentChange24h.String()),
		)

		// The source does not track a distinct prior rate at fetch time, so
		// old and new both carry the fresh rate.
		event := models.RateChangeEvent{
			Symbol:  quote.Symbol,
			OldRate: quote.Rate,
			NewRate: quote.Rate,
		}

		payload, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("JSON marshal error", zap.Error(err))
			continue
		}

		// Fire-and-forget: delivery guarantees belong to the transport.
		err = p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(quote.Symbol), // Key ensures partition ordering
			Value: payload,
		})
		if err != nil {
			p.logger.Error("Kafka write error", zap.Error(err), zap.String("symbol", quote.Symbol))
		}
	}

	return quotes, nil
}
