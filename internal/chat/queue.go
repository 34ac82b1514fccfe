package chat

import (
	"sort"
	"time"
)

// Queue owns the client records and their lifecycle transitions. It is the
// authoritative in-memory view; persistence trails behind it. Queue itself is
// not safe for concurrent use, the engine serializes access.
type Queue struct {
	clients map[ConnID]*Client
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{clients: make(map[ConnID]*Client)}
}

// Load replaces the queue contents with records restored from the store.
func (q *Queue) Load(clients []Client) {
	q.clients = make(map[ConnID]*Client, len(clients))
	for i := range clients {
		c := clients[i]
		q.clients[c.ID] = &c
	}
}

// Enqueue creates or replaces the record for id with status waiting and a
// fresh timestamp, then returns the record and its 1-based queue position.
// Re-joining with the same id moves the client to the end of the waiting
// order rather than keeping its old slot.
func (q *Queue) Enqueue(id ConnID, name string, now time.Time) (Client, int) {
	c := &Client{
		ID:        id,
		Name:      name,
		Status:    StatusWaiting,
		Timestamp: Millis(now),
	}
	q.clients[id] = c

	position := 0
	for _, w := range q.Waiting() {
		position++
		if w.ID == id {
			break
		}
	}
	return *c, position
}

// Get returns a copy of the record for id.
func (q *Queue) Get(id ConnID) (Client, bool) {
	c, ok := q.clients[id]
	if !ok {
		return Client{}, false
	}
	return *c, true
}

// Waiting returns the waiting clients in FIFO order (ascending join time).
func (q *Queue) Waiting() []Client {
	return q.selectByStatus(StatusWaiting, false)
}

// Activate transitions a waiting client to active and stamps the attendant.
// Re-picking an already-active client is a no-op for the same attendant and
// ErrInvalidTransition for a different one; picking a closed client is
// ErrInvalidTransition.
func (q *Queue) Activate(id, attendant ConnID) (Client, error) {
	c, ok := q.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	switch c.Status {
	case StatusWaiting:
		c.Status = StatusActive
		c.Attendant = attendant
		return *c, nil
	case StatusActive:
		if c.Attendant == attendant {
			return *c, nil
		}
		return Client{}, ErrInvalidTransition
	default:
		return Client{}, ErrInvalidTransition
	}
}

// Close transitions a waiting or active client to closed. Closing an already
// closed client is a no-op.
func (q *Queue) Close(id ConnID) (Client, error) {
	c, ok := q.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	c.Status = StatusClosed
	return *c, nil
}

// ActiveFor returns the active clients assigned to attendant, ascending by
// join time.
func (q *Queue) ActiveFor(attendant ConnID) []Client {
	out := make([]Client, 0)
	for _, c := range q.clients {
		if c.Status == StatusActive && c.Attendant == attendant {
			out = append(out, *c)
		}
	}
	sortClients(out, false)
	return out
}

// Closed returns the closed chats, most recent first.
func (q *Queue) Closed() []Client {
	return q.selectByStatus(StatusClosed, true)
}

func (q *Queue) selectByStatus(status Status, descending bool) []Client {
	out := make([]Client, 0)
	for _, c := range q.clients {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	sortClients(out, descending)
	return out
}

func sortClients(clients []Client, descending bool) {
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Timestamp != clients[j].Timestamp {
			if descending {
				return clients[i].Timestamp > clients[j].Timestamp
			}
			return clients[i].Timestamp < clients[j].Timestamp
		}
		// Equal timestamps: fall back to id so ordering stays stable.
		return clients[i].ID < clients[j].ID
	})
}
