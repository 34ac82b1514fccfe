package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codefionn/warteraum/internal/chat"
	"github.com/codefionn/warteraum/internal/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Conn wraps one WebSocket connection. Its id is the party's chat identity
// for the connection's lifetime; a reconnect gets a fresh id and therefore a
// fresh record.
type Conn struct {
	ID     chat.ConnID
	hub    *Hub
	sock   *websocket.Conn
	engine *chat.Engine
	send   chan []byte

	closeMu sync.RWMutex
	closed  bool

	maxMessageSize int64
}

// NewConn creates a connection wrapper around an upgraded socket.
func NewConn(id chat.ConnID, sock *websocket.Conn, hub *Hub, engine *chat.Engine, maxMessageSize int64) *Conn {
	return &Conn{
		ID:             id,
		hub:            hub,
		sock:           sock,
		engine:         engine,
		send:           make(chan []byte, 256),
		maxMessageSize: maxMessageSize,
	}
}

// ReadPump pumps inbound events from the socket into the engine. It runs in
// its own goroutine and tears the connection down on exit.
func (c *Conn) ReadPump() {
	defer func() {
		c.engine.Disconnect(c.ID)
		c.hub.Unregister(c)
		c.sock.Close()
	}()

	c.sock.SetReadLimit(c.maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error on %s: %v", c.ID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logger.Error("Malformed envelope from %s: %v", c.ID, err)
			continue
		}

		// Handler failures are logged here and never tear down the
		// connection or leak into other connections' handling.
		if err := c.dispatch(&env); err != nil {
			logger.Error("Failed to handle %s from %s: %v", env.Event, c.ID, err)
		}
	}
}

// WritePump pumps queued events to the socket and keeps the connection alive
// with pings.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("Failed to write to %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch maps an inbound envelope to the matching engine handler.
func (c *Conn) dispatch(env *Envelope) error {
	switch env.Event {
	case chat.EventJoinQueue:
		name, err := decodeString(env.Data, "name")
		if err != nil {
			return err
		}
		return c.engine.Join(c.ID, name)

	case chat.EventAttendantJoin:
		return c.engine.AttendantConnect(c.ID)

	case chat.EventPickClient:
		clientID, err := decodeString(env.Data, "clientId")
		if err != nil {
			return err
		}
		return c.engine.Pick(c.ID, chat.ConnID(clientID))

	case chat.EventSendMessage:
		var in chat.Inbound
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return err
		}
		return c.engine.SendMessage(in)

	case chat.EventEndChat:
		clientID, err := decodeString(env.Data, "clientId")
		if err != nil {
			return err
		}
		return c.engine.End(c.ID, chat.ConnID(clientID))

	case chat.EventClosedChats:
		return c.engine.ClosedChats(c.ID)

	case chat.EventFetchHistory:
		chatID, err := decodeString(env.Data, "chatId")
		if err != nil {
			return err
		}
		return c.engine.FetchHistory(c.ID, chat.ConnID(chatID))

	default:
		logger.Warn("Unknown event %q from %s", env.Event, c.ID)
		return nil
	}
}

// enqueue hands a pre-encoded frame to the write pump. A full buffer drops
// the frame; delivery is at-most-once.
func (c *Conn) enqueue(data []byte) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Send buffer full for %s, dropping frame", c.ID)
	}
}

// closeSend marks the connection closed and shuts the send channel. Called by
// the hub only.
func (c *Conn) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
