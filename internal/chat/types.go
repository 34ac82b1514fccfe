// Package chat is the session-routing and queue-state core: it tracks every
// client's lifecycle, matches clients to attendants, routes messages to the
// current recipients, and keeps every connected party's view of queue and
// active-chat state consistent. Storage and transport are collaborators
// behind the Store and Sender interfaces.
package chat

import "time"

// ConnID identifies a connected party for the lifetime of its transport
// connection. The transport-assigned connection id doubles as the client's
// chat identity, so a reconnect yields a new, unrelated record.
type ConnID string

// Role identifies which side of a chat a connection or message belongs to.
type Role string

const (
	RoleClient    Role = "client"
	RoleAttendant Role = "attendant"
)

// Status is a client's lifecycle state. Transitions are forward-only:
// waiting -> active -> closed.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

// Kind is a message payload kind. Audio and image payloads carry a blob URL
// in the Text field; the core treats it as an opaque string.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

// Client is a support client's record. Owned by the queue while waiting or
// active; immutable history once closed.
type Client struct {
	ID        ConnID `json:"id"`
	Name      string `json:"name"`
	Status    Status `json:"status"`
	Attendant ConnID `json:"attendant_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Message is one entry in a chat's append-only transcript. The chat is keyed
// by the client's identity, which stays stable for the chat's lifetime.
type Message struct {
	ID        string `json:"id"`
	ChatID    ConnID `json:"chatId"`
	Sender    Role   `json:"sender"`
	Text      string `json:"text"`
	Kind      Kind   `json:"type"`
	ReplyTo   string `json:"replyTo,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Millis converts a wall-clock time to the epoch-millisecond representation
// used for all record timestamps.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
