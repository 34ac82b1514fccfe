package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteClientMessageToAttendantWithEcho(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	_, err := q.Activate("ana", "att-1")
	require.NoError(t, err)

	r := NewRouter(q)
	recipients, err := r.Route(&Message{ChatID: "ana", Sender: RoleClient})
	require.NoError(t, err)
	assert.Equal(t, []ConnID{"att-1", "ana"}, recipients)
}

func TestRouteClientMessageWithoutAttendantEchoesOnly(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))

	r := NewRouter(q)
	recipients, err := r.Route(&Message{ChatID: "ana", Sender: RoleClient})
	require.NoError(t, err)
	assert.Equal(t, []ConnID{"ana"}, recipients)
}

func TestRouteAttendantMessageToClient(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	_, err := q.Activate("ana", "att-1")
	require.NoError(t, err)

	r := NewRouter(q)
	recipients, err := r.Route(&Message{ChatID: "ana", Sender: RoleAttendant})
	require.NoError(t, err)
	assert.Equal(t, []ConnID{"ana"}, recipients)
}

func TestRouteUnknownChatDropped(t *testing.T) {
	r := NewRouter(NewQueue())
	_, err := r.Route(&Message{ChatID: "ghost", Sender: RoleClient})
	assert.ErrorIs(t, err, ErrUnknownChat)
}

func TestRouteUnknownSenderRole(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))

	r := NewRouter(q)
	_, err := r.Route(&Message{ChatID: "ana", Sender: "intruder"})
	assert.Error(t, err)
}
