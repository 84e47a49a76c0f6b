// Package hub fans applied rate updates out to connected clients.
package hub

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/protocol"
	"github.com/Stephc02/FinancialTrackingSystem/cmd/gateway/internal/repository"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

type Hub struct {
	watchers    map[string]map[ClientInterface]bool // symbol -> clients
	clientWatch map[ClientInterface]map[string]bool // client -> symbols
	feed        repository.RateFeed
	logger      *zap.Logger
	mu          sync.RWMutex
	refCount    map[string]int
}

func NewHub(feed repository.RateFeed, logger *zap.Logger) *Hub {
	h := &Hub{
		watchers:    make(map[string]map[ClientInterface]bool),
		clientWatch: make(map[ClientInterface]map[string]bool),
		feed:        feed,
		logger:      logger,
		refCount:    make(map[string]int),
	}

	go h.feed.RunPubSub(context.Background(), h.Broadcast)

	return h
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest, validSymbols map[string]bool) {
	switch req.Action {
	case protocol.ActionWatch:
		h.handleWatch(client, req, validSymbols)
	case protocol.ActionUnwatch:
		h.handleUnwatch(client, req)
	case protocol.ActionUnwatchAll:
		h.handleUnwatchAll(client, req)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

func (h *Hub) handleWatch(client ClientInterface, req protocol.WSRequest, validSymbols map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var accepted []string
	for _, s := range req.Payload.Symbols {
		if validSymbols[s] {
			// Idempotency: ignore symbols already watched by this client
			if h.clientWatch[client] != nil && h.clientWatch[client][s] {
				continue
			}
			accepted = append(accepted, s)
		}
	}

	if len(accepted) == 0 {
		h.sendError(client, req.ID, "No valid/new symbols provided")
		return
	}

	if h.clientWatch[client] == nil {
		h.clientWatch[client] = make(map[string]bool)
	}

	for _, sym := range accepted {
		h.clientWatch[client][sym] = true
		if h.watchers[sym] == nil {
			h.watchers[sym] = make(map[ClientInterface]bool)
		}
		h.watchers[sym][client] = true

		// Upstream subscription is ref-counted per symbol
		h.refCount[sym]++
		if h.refCount[sym] == 1 {
			if err := h.feed.WatchSymbol(context.Background(), sym); err != nil {
				h.logger.Error("Failed to watch upstream", zap.String("symbol", sym), zap.Error(err))
			}
		}
	}

	h.sendAck(client, req.ID, "success", fmt.Sprintf("Watching %v", accepted))

	// Send the last applied update for each symbol (async to avoid blocking the lock)
	go func(targets []string) {
		updates, err := h.feed.LatestUpdates(context.Background(), targets)
		if err == nil {
			for _, u := range updates {
				client.SendBytes([]byte(u))
			}
		}
	}(accepted)
}

func (h *Hub) handleUnwatch(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []string
	if watched, ok := h.clientWatch[client]; ok {
		for _, sym := range req.Payload.Symbols {
			if watched[sym] {
				delete(watched, sym)
				delete(h.watchers[sym], client)
				removed = append(removed, sym)
				h.decreaseRefCount(sym)
			}
		}
	}

	if len(removed) > 0 {
		h.sendAck(client, req.ID, "success", fmt.Sprintf("Stopped watching %v", removed))
	} else {
		h.sendError(client, req.ID, fmt.Sprintf("Not watching: %v", req.Payload.Symbols))
	}
}

func (h *Hub) handleUnwatchAll(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watched, ok := h.clientWatch[client]; ok {
		for sym := range watched {
			delete(h.watchers[sym], client)
			h.decreaseRefCount(sym)
		}
		// Clear the map but keep the client registered
		h.clientWatch[client] = make(map[string]bool)
	}
	h.sendAck(client, req.ID, "success", "Stopped watching all symbols")
}

func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watched, ok := h.clientWatch[client]; ok {
		for sym := range watched {
			delete(h.watchers[sym], client)
			h.decreaseRefCount(sym)
		}
		delete(h.clientWatch, client)
	}
	client.Close()
}

// Broadcast pushes an applied update to every client watching the symbol.
func (h *Hub) Broadcast(symbol string, payload string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.watchers[symbol]; ok {
		msgBytes := []byte(payload)
		for client := range clients {
			client.SendBytes(msgBytes)
		}
	}
}

func (h *Hub) decreaseRefCount(symbol string) {
	h.refCount[symbol]--
	if h.refCount[symbol] <= 0 {
		if err := h.feed.UnwatchSymbol(context.Background(), symbol); err != nil {
			h.logger.Error("Failed to unwatch upstream", zap.String("symbol", symbol), zap.Error(err))
		}
		delete(h.refCount, symbol)
		delete(h.watchers, symbol)
	}
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	c.SendJSON(protocol.WSResponse{Type: "ack", ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	c.SendJSON(protocol.WSResponse{Type: "error", ID: id, Message: msg})
}
