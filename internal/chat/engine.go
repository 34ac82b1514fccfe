package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codefionn/warteraum/internal/logger"
	"github.com/google/uuid"
)

// Store is the durable record of clients and their messages. Implementations
// must be safe for concurrent use; the engine calls them outside its lock.
type Store interface {
	SaveClient(ctx context.Context, c Client) error
	SaveMessage(ctx context.Context, m Message) error
	Messages(ctx context.Context, chatID ConnID) ([]Message, error)
	LoadClients(ctx context.Context) ([]Client, error)
}

// Sender delivers events to connected parties. Delivery is at-most-once and
// best-effort; sending to a disconnected recipient is a silent drop.
type Sender interface {
	SendTo(id ConnID, event string, payload any)
	Broadcast(event string, payload any)
}

// Inbound is the send_message payload as received from the transport.
type Inbound struct {
	ChatID  ConnID `json:"chatId"`
	Text    string `json:"text"`
	Sender  Role   `json:"sender"`
	Kind    Kind   `json:"type"`
	ReplyTo string `json:"replyTo,omitempty"`
}

// Notification payloads.
type (
	// JoinedQueue acknowledges a join with the client's queue position.
	JoinedQueue struct {
		Position int `json:"position"`
	}

	// ChatStarted is sent to both parties when an attendant picks a client.
	// The client sees the attendant side, the attendant the client side.
	ChatStarted struct {
		ChatID      ConnID  `json:"chatId"`
		AttendantID ConnID  `json:"attendantId,omitempty"`
		Attendant   string  `json:"attendant,omitempty"`
		Client      *Client `json:"client,omitempty"`
	}

	// ChatEnded acknowledges end_chat to the attendant.
	ChatEnded struct {
		ChatID ConnID `json:"chatId"`
	}

	// History carries a chat's transcript.
	History struct {
		ChatID   ConnID    `json:"chatId"`
		Messages []Message `json:"messages"`
	}
)

// attendantDisplayName is shown to clients in place of the attendant's
// connection id.
const attendantDisplayName = "Support Agent"

// Engine is the composition root of the session-routing core. Every inbound
// event becomes one atomic in-memory transition plus a set of outbound
// notifications, serialized under a single lock so no two handlers interleave
// mid-mutation. Persistence happens after the lock is released and never
// blocks or reorders notifications.
type Engine struct {
	mu     sync.Mutex
	queue  *Queue
	dir    *Directory
	router *Router
	store  Store
	send   Sender
	now    func() time.Time
}

// NewEngine creates an engine over the given collaborators.
func NewEngine(store Store, send Sender) *Engine {
	queue := NewQueue()
	return &Engine{
		queue:  queue,
		dir:    NewDirectory(),
		router: NewRouter(queue),
		store:  store,
		send:   send,
		now:    time.Now,
	}
}

// Restore rebuilds the in-memory queue from the store. Called once at
// startup, before any connection is accepted.
func (e *Engine) Restore(ctx context.Context) error {
	clients, err := e.store.LoadClients(ctx)
	if err != nil {
		return fmt.Errorf("restore queue state: %w", err)
	}

	e.mu.Lock()
	e.queue.Load(clients)
	e.mu.Unlock()

	logger.Info("Restored %d client records from store", len(clients))
	return nil
}

// Join enqueues a client and announces the new queue to everyone.
func (e *Engine) Join(id ConnID, name string) error {
	e.mu.Lock()
	e.dir.Add(id, RoleClient)
	rec, position := e.queue.Enqueue(id, name, e.now())
	e.send.Broadcast(EventQueueUpdate, e.queue.Waiting())
	e.send.SendTo(id, EventJoinedQueue, JoinedQueue{Position: position})
	e.mu.Unlock()

	e.persistClient(rec)
	return nil
}

// AttendantConnect registers an attendant and sends it the current queue and
// its active chats. Read-only against the queue.
func (e *Engine) AttendantConnect(id ConnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dir.Add(id, RoleAttendant)
	e.send.SendTo(id, EventQueueUpdate, e.queue.Waiting())
	e.send.SendTo(id, EventActiveChats, e.queue.ActiveFor(id))
	return nil
}

// Pick activates a waiting client for the given attendant and notifies both
// parties, then delivers the chat's history to each side.
func (e *Engine) Pick(attendant, clientID ConnID) error {
	e.mu.Lock()
	rec, err := e.queue.Activate(clientID, attendant)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("pick %s: %w", clientID, err)
	}

	e.send.SendTo(clientID, EventChatStarted, ChatStarted{
		ChatID:      clientID,
		AttendantID: attendant,
		Attendant:   attendantDisplayName,
	})
	e.send.SendTo(attendant, EventChatStarted, ChatStarted{
		ChatID: clientID,
		Client: &rec,
	})
	e.send.Broadcast(EventQueueUpdate, e.queue.Waiting())
	e.send.SendTo(attendant, EventActiveChats, e.queue.ActiveFor(attendant))
	e.mu.Unlock()

	e.persistClient(rec)

	// History is read from the store; a failed read suppresses the history
	// notifications instead of sending an empty transcript.
	messages, err := e.store.Messages(context.Background(), clientID)
	if err != nil {
		return fmt.Errorf("load history for %s: %w", clientID, err)
	}
	e.send.SendTo(attendant, EventChatHistory, History{ChatID: clientID, Messages: messages})
	e.send.SendTo(clientID, EventChatHistory, messages)
	return nil
}

// SendMessage stamps and persists a message, then routes it to the current
// recipients. Undeliverable messages are dropped, not broadcast.
func (e *Engine) SendMessage(in Inbound) error {
	kind := in.Kind
	if kind == "" {
		kind = KindText
	}
	msg := Message{
		ID:        uuid.NewString(),
		ChatID:    in.ChatID,
		Sender:    in.Sender,
		Text:      in.Text,
		Kind:      kind,
		ReplyTo:   in.ReplyTo,
		Timestamp: Millis(e.now()),
	}

	e.mu.Lock()
	recipients, err := e.router.Route(&msg)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("route message: %w", err)
	}
	if msg.Sender == RoleClient && len(recipients) == 1 {
		logger.Warn("Chat %s has no attendant assigned, echoing message to sender only", msg.ChatID)
	}
	for _, id := range recipients {
		e.send.SendTo(id, EventReceiveMessage, msg)
	}
	e.mu.Unlock()

	e.persistMessage(msg)
	return nil
}

// End closes a chat and notifies both parties plus the queue watchers.
// Closing an already closed chat repeats the notifications but changes
// nothing.
func (e *Engine) End(attendant, clientID ConnID) error {
	e.mu.Lock()
	rec, err := e.queue.Close(clientID)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("end chat %s: %w", clientID, err)
	}

	e.send.SendTo(clientID, EventChatEnded, ChatEnded{ChatID: clientID})
	e.send.SendTo(attendant, EventChatEnded, ChatEnded{ChatID: clientID})
	e.send.Broadcast(EventQueueUpdate, e.queue.Waiting())
	e.send.SendTo(attendant, EventActiveChats, e.queue.ActiveFor(attendant))
	e.mu.Unlock()

	e.persistClient(rec)
	return nil
}

// ClosedChats sends the requester the closed chats, most recent first.
func (e *Engine) ClosedChats(id ConnID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.send.SendTo(id, EventClosedChatsList, e.queue.Closed())
	return nil
}

// FetchHistory sends the requester a chat's transcript. Purged chats yield an
// empty transcript, a failed store read yields nothing.
func (e *Engine) FetchHistory(id, chatID ConnID) error {
	messages, err := e.store.Messages(context.Background(), chatID)
	if err != nil {
		return fmt.Errorf("fetch history for %s: %w", chatID, err)
	}

	e.send.SendTo(id, EventHistoryMessages, History{ChatID: chatID, Messages: messages})
	return nil
}

// Disconnect forgets the connection. Chat state is left untouched: waiting
// clients keep their queue slot and active assignments stay in place until
// the chat is ended.
func (e *Engine) Disconnect(id ConnID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if role, ok := e.dir.RoleOf(id); ok {
		logger.Info("Connection %s (%s) went offline", id, role)
	}
	e.dir.Remove(id)
}

// persistClient writes a client record after its transition has already been
// applied and announced. A failed write leaves the in-memory state ahead of
// the store until the next write for the same record.
func (e *Engine) persistClient(c Client) {
	if err := e.store.SaveClient(context.Background(), c); err != nil {
		logger.Error("Failed to persist client %s: %v", c.ID, err)
	}
}

func (e *Engine) persistMessage(m Message) {
	if err := e.store.SaveMessage(context.Background(), m); err != nil {
		logger.Error("Failed to persist message %s on chat %s: %v", m.ID, m.ChatID, err)
	}
}
