package testutils

import (
	"context"
	"sync"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/protocol"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    string
	Messages []protocol.WSResponse // Stores decoded JSON messages
	RawBytes []string              // Stores raw payloads
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id, Messages: make([]protocol.WSResponse, 0)}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if resp, ok := v.(protocol.WSResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
}

func (m *MockClient) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))
}

func (m *MockClient) LastMsgType() string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return ""
	}
	return m.Messages[len(m.Messages)-1].Type
}

// MockRateFeed simulates the Redis-backed feed
type MockRateFeed struct {
	WatchedSymbols map[string]int // symbol -> count
	Mu             sync.Mutex
}

func NewMockFeed() *MockRateFeed {
	return &MockRateFeed{WatchedSymbols: make(map[string]int)}
}

func (m *MockRateFeed) LatestUpdates(ctx context.Context, symbols []string) ([]string, error) {
	return []string{`{"symbol":"BTC","rate":"43250.5","positions":2,"applied_at":0}`}, nil
}

func (m *MockRateFeed) WatchSymbol(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.WatchedSymbols[symbol]++
	return nil
}

func (m *MockRateFeed) UnwatchSymbol(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.WatchedSymbols[symbol]--
	if m.WatchedSymbols[symbol] <= 0 {
		delete(m.WatchedSymbols, symbol)
	}
	return nil
}

func (m *MockRateFeed) RunPubSub(ctx context.Context, onMessage func(symbol string, payload string)) {
	// No-op for unit tests
}

func (m *MockRateFeed) Close() error { return nil }
