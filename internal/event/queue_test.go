package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_TimestampOrder(t *testing.T) {
	q := NewQueue()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	q.Push(Schedule{Name: "later", Time: base.AddDate(0, 0, 2)})
	q.Push(Schedule{Name: "earlier", Time: base})
	q.Push(Schedule{Name: "middle", Time: base.AddDate(0, 0, 1)})

	assert.Equal(t, "earlier", q.Pop().(Schedule).Name)
	assert.Equal(t, "middle", q.Pop().(Schedule).Name)
	assert.Equal(t, "later", q.Pop().(Schedule).Name)
	assert.Nil(t, q.Pop())
}

func TestQueue_FIFOWithinTimestamp(t *testing.T) {
	q := NewQueue()
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, n := range names {
		q.Push(Schedule{Name: n, Time: ts})
	}

	for _, want := range names {
		e := q.Pop()
		require.NotNil(t, e)
		assert.Equal(t, want, e.(Schedule).Name)
	}
}

func TestQueue_Reset(t *testing.T) {
	q := NewQueue()
	ts := time.Now()
	q.Push(Schedule{Name: "x", Time: ts})
	q.Push(Schedule{Name: "y", Time: ts})
	require.Equal(t, 2, q.Len())

	q.Reset()
	assert.Zero(t, q.Len())
	assert.Nil(t, q.Pop())

	// FIFO ordering restarts cleanly after a reset.
	q.Push(Schedule{Name: "first", Time: ts})
	q.Push(Schedule{Name: "second", Time: ts})
	assert.Equal(t, "first", q.Pop().(Schedule).Name)
	assert.Equal(t, "second", q.Pop().(Schedule).Name)
}
