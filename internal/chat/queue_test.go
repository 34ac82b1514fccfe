package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime(offset int) time.Time {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offset) * time.Second)
}

func TestEnqueuePositions(t *testing.T) {
	q := NewQueue()

	_, pos := q.Enqueue("ana", "Ana", testTime(0))
	assert.Equal(t, 1, pos)

	_, pos = q.Enqueue("beto", "Beto", testTime(1))
	assert.Equal(t, 2, pos)

	waiting := q.Waiting()
	require.Len(t, waiting, 2)
	assert.Equal(t, ConnID("ana"), waiting[0].ID)
	assert.Equal(t, ConnID("beto"), waiting[1].ID)
}

func TestEnqueueReplaceMovesToTail(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	q.Enqueue("beto", "Beto", testTime(1))

	// Re-joining resets the position to the end of the waiting order.
	_, pos := q.Enqueue("ana", "Ana", testTime(2))
	assert.Equal(t, 2, pos)

	waiting := q.Waiting()
	require.Len(t, waiting, 2)
	assert.Equal(t, ConnID("beto"), waiting[0].ID)
	assert.Equal(t, ConnID("ana"), waiting[1].ID)
}

func TestWaitingHasNoDuplicates(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue("ana", "Ana", testTime(i))
	}

	waiting := q.Waiting()
	require.Len(t, waiting, 1)
	assert.Equal(t, ConnID("ana"), waiting[0].ID)
}

func TestActivateMovesClientAtomically(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	q.Enqueue("beto", "Beto", testTime(1))

	rec, err := q.Activate("ana", "att-1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, ConnID("att-1"), rec.Attendant)

	waiting := q.Waiting()
	require.Len(t, waiting, 1)
	assert.Equal(t, ConnID("beto"), waiting[0].ID)

	active := q.ActiveFor("att-1")
	require.Len(t, active, 1)
	assert.Equal(t, ConnID("ana"), active[0].ID)
}

func TestActivateRepickIsIdempotent(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))

	first, err := q.Activate("ana", "att-1")
	require.NoError(t, err)

	second, err := q.Activate("ana", "att-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, q.ActiveFor("att-1"), 1)
}

func TestActivateByOtherAttendantRejected(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))

	_, err := q.Activate("ana", "att-1")
	require.NoError(t, err)

	_, err = q.Activate("ana", "att-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Assignment unchanged.
	rec, ok := q.Get("ana")
	require.True(t, ok)
	assert.Equal(t, ConnID("att-1"), rec.Attendant)
}

func TestActivateUnknownClient(t *testing.T) {
	q := NewQueue()
	_, err := q.Activate("ghost", "att-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivateClosedClientRejected(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	_, err := q.Close("ana")
	require.NoError(t, err)

	_, err = q.Activate("ana", "att-1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rec, ok := q.Get("ana")
	require.True(t, ok)
	assert.Equal(t, StatusClosed, rec.Status)
}

func TestCloseIsIdempotent(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))

	first, err := q.Close("ana")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, first.Status)

	second, err := q.Close("ana")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCloseUnknownClient(t *testing.T) {
	q := NewQueue()
	_, err := q.Close("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosedOrderedMostRecentFirst(t *testing.T) {
	q := NewQueue()
	q.Enqueue("ana", "Ana", testTime(0))
	q.Enqueue("beto", "Beto", testTime(1))
	q.Enqueue("caro", "Caro", testTime(2))

	for _, id := range []ConnID{"ana", "beto", "caro"} {
		_, err := q.Close(id)
		require.NoError(t, err)
	}

	closed := q.Closed()
	require.Len(t, closed, 3)
	assert.Equal(t, ConnID("caro"), closed[0].ID)
	assert.Equal(t, ConnID("beto"), closed[1].ID)
	assert.Equal(t, ConnID("ana"), closed[2].ID)
}

func TestLoadRestoresRecords(t *testing.T) {
	q := NewQueue()
	q.Load([]Client{
		{ID: "ana", Name: "Ana", Status: StatusWaiting, Timestamp: 100},
		{ID: "beto", Name: "Beto", Status: StatusActive, Attendant: "att-1", Timestamp: 200},
		{ID: "caro", Name: "Caro", Status: StatusClosed, Timestamp: 300},
	})

	assert.Len(t, q.Waiting(), 1)
	assert.Len(t, q.ActiveFor("att-1"), 1)
	assert.Len(t, q.Closed(), 1)
}
