package repository

import (
	"context"
)

// RateFeed is the upstream source of applied rate updates.
type RateFeed interface {
	// LatestUpdates returns the last applied update payload for each symbol
	// that has one.
	LatestUpdates(ctx context.Context, symbols []string) ([]string, error)
	WatchSymbol(ctx context.Context, symbol string) error
	UnwatchSymbol(ctx context.Context, symbol string) error
	// RunPubSub blocks, invoking onMessage for every update published upstream.
	RunPubSub(ctx context.Context, onMessage func(symbol string, payload string))
	Close() error
}
