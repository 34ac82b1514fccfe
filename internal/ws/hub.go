package ws

import (
	"sync"

	"github.com/codefionn/warteraum/internal/chat"
	"github.com/codefionn/warteraum/internal/logger"
)

// Hub maintains the set of live connections and delivers events to them. It
// implements chat.Sender: delivery is best-effort, a disconnected or stalled
// recipient silently drops its notification.
type Hub struct {
	conns      map[chat.ConnID]*Conn
	register   chan *Conn
	unregister chan *Conn
	mu         sync.RWMutex
	quit       chan struct{}
	quitOnce   sync.Once
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		conns:      make(map[chat.ConnID]*Conn),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		quit:       make(chan struct{}),
	}
}

// Run processes register/unregister requests until Stop is called.
func (h *Hub) Run() {
	logger.Info("WebSocket hub started")
	defer logger.Info("WebSocket hub stopped")

	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			total := len(h.conns)
			h.mu.Unlock()
			logger.Info("Connection registered: %s (total: %d)", conn.ID, total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[conn.ID]; ok {
				delete(h.conns, conn.ID)
				conn.closeSend()
			}
			total := len(h.conns)
			h.mu.Unlock()
			logger.Info("Connection unregistered: %s (total: %d)", conn.ID, total)

		case <-h.quit:
			h.mu.Lock()
			for id, conn := range h.conns {
				conn.closeSend()
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and closes all connection send channels.
func (h *Hub) Stop() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Conn) {
	h.register <- conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Conn) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// SendTo delivers an event to one connection, if it is still connected.
func (h *Hub) SendTo(id chat.ConnID, event string, payload any) {
	data, err := Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	conn.enqueue(data)
}

// Broadcast delivers an event to every connection.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s broadcast: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		conn.enqueue(data)
	}
}

// ConnCount returns the number of live connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
