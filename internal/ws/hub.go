// Package ws pushes pool state updates to subscribed websocket clients.
// Swap and liquidity operations publish a pool snapshot after every
// completed mutation; clients subscribe to the pools feed and receive the
// updates as JSON.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// PoolUpdate is the message published after a completed pool mutation.
type PoolUpdate struct {
	Type          string  `json:"type"`
	ItemID        string  `json:"item_id"`
	TokenReserve  string  `json:"token_reserve"`
	NativeReserve string  `json:"native_reserve"`
	Price         float64 `json:"price"`
	Volume24h     string  `json:"volume_24h"`
	LPTotalSupply string  `json:"lp_total_supply"`
}

// Hub maintains the set of active clients and fans out pool updates.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates an idle hub; call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.fanOut(message)
		case <-h.stop:
			return
		}
	}
}

// Stop terminates the hub loop and disconnects all clients.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.mu.Lock()
		defer h.mu.Unlock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	})
}

// PublishPoolUpdate serializes the update and queues it for broadcast.
// Publishing never blocks the caller; if the hub is saturated the update is
// dropped and logged.
func (h *Hub) PublishPoolUpdate(update PoolUpdate) {
	raw, err := json.Marshal(update)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal pool update")
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		logrus.WithField("item_id", update.ItemID).Warn("Dropping pool update, broadcast queue full")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	logrus.WithField("client_id", client.id).Debug("Websocket client registered")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		logrus.WithField("client_id", client.id).Debug("Websocket client unregistered")
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	var stale []*Client
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		}
		h.mu.Unlock()
	}
}
