package hub_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/hub"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/protocol"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/testutils"
)

func setup() (*hub.Hub, *testutils.MockRateFeed) {
	feed := testutils.NewMockFeed()
	logger := zap.NewNop()
	return hub.NewHub(feed, logger), feed
}

var validSymbols = map[string]bool{"BTC": true, "ETH": true, "SOL": true}

func TestHub_Watch_Success(t *testing.T) {
	h, feed := setup()
	client := testutils.NewMockClient("c1")

	req := protocol.WSRequest{
		Action:  "watch",
		Payload: protocol.RequestPayload{Symbols: []string{"BTC"}},
		ID:      "req-1",
	}

	h.HandleCommand(client, req, validSymbols)

	if client.LastMsgType() != "ack" {
		t.Errorf("Expected ack, got %s", client.LastMsgType())
	}

	feed.Mu.Lock()
	defer feed.Mu.Unlock()
	if feed.WatchedSymbols["BTC"] != 1 {
		t.Errorf("Expected upstream watch on BTC")
	}
}

func TestHub_Watch_MixedValidity(t *testing.T) {
	h, _ := setup()
	client := testutils.NewMockClient("c1")

	req := protocol.WSRequest{
		Action:  "watch",
		Payload: protocol.RequestPayload{Symbols: []string{"BTC", "NOT_A_SYMBOL"}},
		ID:      "req-2",
	}

	h.HandleCommand(client, req, validSymbols)

	client.Mu.Lock()
	lastMsg := client.Messages[len(client.Messages)-1]
	client.Mu.Unlock()
	if lastMsg.Status != "success" {
		t.Errorf("Expected success for partially valid watch request")
	}
	if !strings.Contains(lastMsg.Message, "BTC") {
		t.Errorf("Response should contain accepted symbol BTC")
	}
	if strings.Contains(lastMsg.Message, "NOT_A_SYMBOL") {
		t.Errorf("Response should NOT contain invalid symbol")
	}
}

func TestHub_Watch_Idempotency(t *testing.T) {
	h, feed := setup()
	client := testutils.NewMockClient("c1")
	req := protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbols: []string{"BTC"}},
	}

	h.HandleCommand(client, req, validSymbols)
	h.HandleCommand(client, req, validSymbols)

	feed.Mu.Lock()
	defer feed.Mu.Unlock()
	// upstream watch count stays 1, not 2
	if feed.WatchedSymbols["BTC"] != 1 {
		t.Errorf("Upstream should only be watched once per unique symbol")
	}
}

func TestHub_Unwatch_Logic(t *testing.T) {
	h, feed := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbols: []string{"BTC", "ETH"}},
	}, validSymbols)

	h.HandleCommand(client, protocol.WSRequest{
		Action: "unwatch", Payload: protocol.RequestPayload{Symbols: []string{"BTC"}},
	}, validSymbols)

	feed.Mu.Lock()
	defer feed.Mu.Unlock()
	if feed.WatchedSymbols["BTC"] != 0 {
		t.Errorf("Upstream should be unwatched for BTC")
	}
	if feed.WatchedSymbols["ETH"] != 1 {
		t.Errorf("ETH watch should survive")
	}
}

func TestHub_Broadcast_OnlyToWatchers(t *testing.T) {
	h, _ := setup()
	watcher := testutils.NewMockClient("c1")
	other := testutils.NewMockClient("c2")

	h.HandleCommand(watcher, protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbols: []string{"ETH"}},
	}, validSymbols)
	h.HandleCommand(other, protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbols: []string{"BTC"}},
	}, validSymbols)

	h.Broadcast("ETH", `{"symbol":"ETH","rate":"3000"}`)

	watcher.Mu.Lock()
	got := len(watcher.RawBytes)
	watcher.Mu.Unlock()
	if got == 0 {
		t.Fatal("Watcher should have received the broadcast")
	}

	other.Mu.Lock()
	defer other.Mu.Unlock()
	for _, raw := range other.RawBytes {
		if strings.Contains(raw, `"ETH"`) {
			t.Errorf("Non-watcher received ETH broadcast: %s", raw)
		}
	}
}

func TestHub_Unregister_CleansUp(t *testing.T) {
	h, feed := setup()
	client := testutils.NewMockClient("c1")

	h.HandleCommand(client, protocol.WSRequest{
		Action: "watch", Payload: protocol.RequestPayload{Symbols: []string{"BTC", "ETH"}},
	}, validSymbols)

	h.Unregister(client)

	feed.Mu.Lock()
	defer feed.Mu.Unlock()
	if len(feed.WatchedSymbols) != 0 {
		t.Errorf("All upstream watches should be released, got %v", feed.WatchedSymbols)
	}

	client.Mu.Lock()
	defer client.Mu.Unlock()
	if !client.Closed {
		t.Error("Client should be closed on unregister")
	}
}
