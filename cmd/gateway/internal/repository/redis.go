package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Key and channel layout written by the tracker's consumer.
const (
	rateKeyPrefix     = "rate:"
	rateChannelPrefix = "rates."
)

// Compile-time check to ensure RedisFeed implements RateFeed
var _ RateFeed = (*RedisFeed)(nil)

type RedisFeed struct {
	client *redis.Client
	pubsub *redis.PubSub
	mu     sync.Mutex // guards pubsub subscription changes
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	ps := client.Subscribe(context.Background())
	return &RedisFeed{
		client: client,
		pubsub: ps,
	}
}

// LatestUpdates fetches the last applied update for each symbol (MGET).
// Symbols with no applied update yet are simply absent from the result.
func (r *RedisFeed) LatestUpdates(ctx context.Context, symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = rateKeyPrefix + sym
	}

	results, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var updates []string
	for _, val := range results {
		if payload, ok := val.(string); ok && payload != "" {
			updates = append(updates, payload)
		}
	}
	return updates, nil
}

func (r *RedisFeed) WatchSymbol(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pubsub.Subscribe(ctx, rateChannelPrefix+symbol)
}

func (r *RedisFeed) UnwatchSymbol(ctx context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pubsub.Unsubscribe(ctx, rateChannelPrefix+symbol)
}

// RunPubSub is a blocking loop that reads upstream messages and hands the
// symbol plus raw payload to the callback.
func (r *RedisFeed) RunPubSub(ctx context.Context, onMessage func(symbol string, payload string)) {
	ch := r.pubsub.Channel()

	for msg := range ch {
		symbol, ok := strings.CutPrefix(msg.Channel, rateChannelPrefix)
		if !ok {
			continue
		}
		onMessage(symbol, msg.Payload)
	}
}

func (r *RedisFeed) Close() error {
	if err := r.pubsub.Close(); err != nil {
		return err
	}
	return r.client.Close()
}
