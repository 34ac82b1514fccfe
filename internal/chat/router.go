package chat

import "fmt"

// Router computes the recipients for an outbound message. It reads the
// current assignment but never mutates queue state.
type Router struct {
	queue *Queue
}

// NewRouter creates a router over the given queue.
func NewRouter(queue *Queue) *Router {
	return &Router{queue: queue}
}

// Route resolves the recipient connections for msg.
//
// Client messages go to the assigned attendant plus an echo to the sender, so
// the sender's UI reflects the server-assigned id and timestamp. A client
// message on a chat with no attendant assigned yet is echoed to the sender
// only; the caller should log that the message was undeliverable. Attendant
// messages go to the client. A message on an unknown chat is dropped with
// ErrUnknownChat rather than broadcast.
func (r *Router) Route(msg *Message) ([]ConnID, error) {
	c, ok := r.queue.Get(msg.ChatID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChat, msg.ChatID)
	}

	switch msg.Sender {
	case RoleClient:
		if c.Attendant == "" {
			return []ConnID{msg.ChatID}, nil
		}
		return []ConnID{c.Attendant, msg.ChatID}, nil
	case RoleAttendant:
		return []ConnID{msg.ChatID}, nil
	default:
		return nil, fmt.Errorf("unknown sender role %q", msg.Sender)
	}
}
