package ws

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-tenant-catalog/pkg/logger"
	"go-tenant-catalog/pkg/metrics"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a connection bound to the tenant of the user who opened it.
type Client struct {
	Conn     Conn
	TenantID uuid.UUID
}

type message struct {
	tenantID uuid.UUID
	data     []byte
}

// Hub fans messages out to the clients of one tenant. Messages never cross
// tenants.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Register adds c. After Run has returned the connection is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Conn.Close()
	}
}

// Unregister removes and closes c. It returns immediately once Run has stopped,
// since shutdown already closed every connection.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishToTenant queues data for every client of tenantID. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) PublishToTenant(tenantID uuid.UUID, data []byte) {
	select {
	case h.broadcast <- message{tenantID: tenantID, data: data}:
	default:
		logger.GetLogger().Warn("WS broadcast queue full, dropping message",
			zap.String("tenant_id", tenantID.String()))
	}
}

// ClientCount returns the number of clients connected for tenantID.
func (h *Hub) ClientCount(tenantID uuid.UUID) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients[tenantID])
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case c := <-h.register:
			h.mutex.Lock()
			if h.clients[c.TenantID] == nil {
				h.clients[c.TenantID] = make(map[*Client]bool)
			}
			h.clients[c.TenantID][c] = true
			h.mutex.Unlock()
			metrics.IncrementWSConnections()
			logger.GetLogger().Debug("WS client connected", zap.String("tenant_id", c.TenantID.String()))

		case c := <-h.unregister:
			h.mutex.Lock()
			h.remove(c)
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients[msg.tenantID] {
				if err := c.Conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					h.remove(c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// remove must be called with the mutex held.
func (h *Hub) remove(c *Client) {
	tenantClients, ok := h.clients[c.TenantID]
	if !ok || !tenantClients[c] {
		return
	}
	delete(tenantClients, c)
	if len(tenantClients) == 0 {
		delete(h.clients, c.TenantID)
	}
	c.Conn.Close()
	metrics.DecrementWSConnections()
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, tenantClients := range h.clients {
		for c := range tenantClients {
			h.remove(c)
		}
	}
}
