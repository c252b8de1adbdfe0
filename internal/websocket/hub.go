package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/metrics"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
)

const (
	// maximum client messages per second
	maxMessagesPerSecond = 10

	EventCartSnapshot = "cart_snapshot"
	EventSyncRequest  = "sync"
)

// ClientMessage is what a socket may send to the server.
type ClientMessage struct {
	Type string `json:"type"`
}

// CartEvent is pushed to every socket of a cart owner.
type CartEvent struct {
	Type string      `json:"type"`
	Cart interface{} `json:"cart"`
}

// SnapshotFunc loads the current cart of owner for a sync request.
type SnapshotFunc func(owner string) (interface{}, error)

// Client is one open cart socket.
type Client struct {
	Hub           *Hub
	Conn          *Conn
	Owner         string
	Send          chan []byte
	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// NewClient wraps conn for owner with a buffered send queue.
func NewClient(hub *Hub, conn *Conn, owner string) *Client {
	return &Client{
		Hub:   hub,
		Conn:  conn,
		Owner: owner,
		Send:  make(chan []byte, 64),
	}
}

type ownerMessage struct {
	Owner   string
	Message []byte
}

// Hub fans cart snapshots out to the sockets of each owner. An owner is a
// user or a guest session and may have several sockets open.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *ownerMessage
	stop       chan struct{}

	snapshot SnapshotFunc

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *ownerMessage, 1024),
		stop:       make(chan struct{}),
	}
}

// SetSnapshotFunc installs the loader used to answer sync requests.
func (h *Hub) SetSnapshotFunc(fn SnapshotFunc) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Owner] = append(h.clients[client.Owner], client)
			sessions := len(h.clients[client.Owner])
			h.mu.Unlock()
			metrics.CartSocketsConnected.Inc()
			logger.Info("Cart socket registered", map[string]interface{}{
				"owner":          client.Owner,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			clientList := h.clients[message.Owner]
			for _, client := range clientList {
				select {
				case client.Send <- message.Message:
				default:
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"owner": message.Owner,
					})
				}
			}
			h.mu.RUnlock()

		case <-h.stop:
			h.mu.Lock()
			for owner, clientList := range h.clients {
				for _, client := range clientList {
					close(client.Send)
					metrics.CartSocketsConnected.Dec()
				}
				delete(h.clients, owner)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.clients[client.Owner]
	if !ok {
		return
	}

	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}

	if len(newList) == 0 {
		delete(h.clients, client.Owner)
	} else {
		h.clients[client.Owner] = newList
	}
	close(client.Send)
	metrics.CartSocketsConnected.Dec()

	logger.Info("Cart socket unregistered", map[string]interface{}{
		"owner":              client.Owner,
		"remaining_sessions": len(newList),
	})
}

// Stop ends Run and closes every socket queue.
func (h *Hub) Stop() {
	close(h.stop)
}

// PublishCart sends cart to every socket of owner. Owners without an open
// socket are skipped. Dropped silently when the broadcast queue is full; the
// next mutation sends a fresh snapshot.
func (h *Hub) PublishCart(owner string, cart interface{}) {
	if !h.IsOwnerOnline(owner) {
		return
	}

	data, err := json.Marshal(CartEvent{Type: EventCartSnapshot, Cart: cart})
	if err != nil {
		logger.Error("Failed to marshal cart event", err, map[string]interface{}{
			"owner": owner,
		})
		return
	}

	select {
	case h.broadcast <- &ownerMessage{Owner: owner, Message: data}:
	default:
		logger.Warn("Broadcast channel full, cart event dropped", map[string]interface{}{
			"owner": owner,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsOwnerOnline reports whether owner has at least one open socket.
func (h *Hub) IsOwnerOnline(owner string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[owner]
	return ok
}

// SessionCount is the number of open sockets of owner.
func (h *Hub) SessionCount(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}

// HandleClientMessage answers a sync request with the current snapshot for
// the sending socket only.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"owner": client.Owner,
			"count": count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"owner": client.Owner,
			"error": err.Error(),
		})
		return
	}
	if msg.Type != EventSyncRequest {
		return
	}

	h.mu.RLock()
	snapshot := h.snapshot
	h.mu.RUnlock()
	if snapshot == nil {
		return
	}

	cart, err := snapshot(client.Owner)
	if err != nil {
		logger.Error("Failed to load cart for sync", err, map[string]interface{}{
			"owner": client.Owner,
		})
		return
	}
	data, err := json.Marshal(CartEvent{Type: EventCartSnapshot, Cart: cart})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients[client.Owner] {
		if c != client {
			continue
		}
		select {
		case client.Send <- data:
		default:
		}
	}
}
