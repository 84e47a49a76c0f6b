package consumer

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// KafkaConsumer abstracts the inbound event stream. FetchMessage does not
// commit; the consumer commits only after a message is fully processed.
type KafkaConsumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RedisClient abstracts the mirror-feed connection
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Pipeline() redis.Pipeliner
	Close() error
}

// Applier is the ledger operation the consumer drives.
type Applier interface {
	ApplyRateUpdate(symbol string, newRate decimal.Decimal) int
}

// Clock exists so tests can pin AppliedAt timestamps.
type Clock interface {
	NowUnixMicro() int64
}
