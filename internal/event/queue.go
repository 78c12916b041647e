package event

import "container/heap"

// Queue orders events by timestamp, FIFO within equal timestamps.
// The FIFO tiebreak is load-bearing: replaying the same inputs must
// dispatch events in exactly the same order.
type Queue struct {
	items *itemHeap
	seq   uint64
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	h := &itemHeap{}
	heap.Init(h)
	return &Queue{items: h}
}

// Push enqueues an event.
func (q *Queue) Push(e Event) {
	q.seq++
	heap.Push(q.items, item{event: e, seq: q.seq})
}

// Pop removes and returns the earliest event, nil when empty.
func (q *Queue) Pop() Event {
	if q.items.Len() == 0 {
		return nil
	}
	return heap.Pop(q.items).(item).event
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return q.items.Len() }

// Reset discards queued events for a fresh run.
func (q *Queue) Reset() {
	*q.items = (*q.items)[:0]
	q.seq = 0
}

type item struct {
	event Event
	seq   uint64
}

type itemHeap []item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	ti, tj := h[i].event.When(), h[j].event.When()
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}
	return ti.Before(tj)
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
