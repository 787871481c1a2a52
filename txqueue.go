package cyphal

import (
	"container/heap"

	"github.com/edu-rossrobotics/cyphal/can"
)

// txQueue is a capacity-bounded priority queue of outgoing CAN frames.
// Frames with numerically lower CAN identifiers (higher bus priority) are
// transmitted first; frames with equal identifiers keep FIFO order.
type txQueue struct {
	items txHeap
	cap   int
	seq   uint64
}

type txItem struct {
	frame can.Frame
	seq   uint64
}

type txHeap []txItem

func (h txHeap) Len() int { return len(h) }
func (h txHeap) Less(i, j int) bool {
	if h[i].frame.ID != h[j].frame.ID {
		return h[i].frame.ID < h[j].frame.ID
	}
	return h[i].seq < h[j].seq
}
func (h txHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *txHeap) Push(x interface{}) { *h = append(*h, x.(txItem)) }
func (h *txHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

func newTxQueue(capacity int) *txQueue {
	return &txQueue{items: make(txHeap, 0, capacity), cap: capacity}
}

// push enqueues a frame, failing with ErrQueueFull at capacity.
func (q *txQueue) push(f can.Frame) error {
	if len(q.items) >= q.cap {
		return ErrQueueFull
	}
	heap.Push(&q.items, txItem{frame: f, seq: q.seq})
	q.seq++
	return nil
}

// peek returns the highest-priority frame without removing it.
func (q *txQueue) peek() (can.Frame, bool) {
	if len(q.items) == 0 {
		return can.Frame{}, false
	}
	return q.items[0].frame, true
}

// pop removes the highest-priority frame.
func (q *txQueue) pop() {
	if len(q.items) > 0 {
		heap.Pop(&q.items)
	}
}

func (q *txQueue) len() int { return len(q.items) }
