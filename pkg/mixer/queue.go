// ABOUTME: Ordered FIFO of time-stamped audio buffers for one input
// ABOUTME: Slice-backed deque; append is O(1), drain is FIFO
package mixer

import "github.com/wavefold/mixcore/pkg/audio"

// BufferQueue is an ordered FIFO of *audio.Buffer. Buffers admitted to
// a mixer input already arrive in presentation order —
// the mixer only ever needs to append at the tail and drain/inspect
// from the head, so a plain slice deque with an advancing head index
// is the right shape (see spec design note on arena-backed index
// lists replacing the source's singly-linked list).
type BufferQueue struct {
	items []*audio.Buffer
	head  int
}

// NewBufferQueue creates an empty queue.
func NewBufferQueue() *BufferQueue {
	return &BufferQueue{}
}

// Len returns the number of buffers currently queued.
func (q *BufferQueue) Len() int {
	return len(q.items) - q.head
}

// Push appends a buffer to the tail. O(1) amortized.
func (q *BufferQueue) Push(buf *audio.Buffer) {
	q.items = append(q.items, buf)
}

// Front returns the head buffer without removing it.
func (q *BufferQueue) Front() (*audio.Buffer, bool) {
	if q.Len() == 0 {
		return nil, false
	}
	return q.items[q.head], true
}

// At returns the buffer i positions after the head (0 == Front)
// without removing anything.
func (q *BufferQueue) At(i int) (*audio.Buffer, bool) {
	idx := q.head + i
	if i < 0 || idx >= len(q.items) {
		return nil, false
	}
	return q.items[idx], true
}

// Pop removes and returns the head buffer.
func (q *BufferQueue) Pop() (*audio.Buffer, bool) {
	buf, ok := q.Front()
	if !ok {
		return nil, false
	}
	q.items[q.head] = nil
	q.head++
	q.compact()
	return buf, true
}

// DropFront discards the first n buffers (freeing their references).
// n is clamped to Len().
func (q *BufferQueue) DropFront(n int) {
	if n <= 0 {
		return
	}
	if n > q.Len() {
		n = q.Len()
	}
	for i := 0; i < n; i++ {
		q.items[q.head+i] = nil
	}
	q.head += n
	q.compact()
}

// Clear discards every queued buffer.
func (q *BufferQueue) Clear() {
	q.items = nil
	q.head = 0
}

// compact reclaims the storage of already-drained slots once they
// dominate the backing array, so a long-lived input doesn't grow its
// slice without bound.
func (q *BufferQueue) compact() {
	if q.head == 0 {
		return
	}
	if q.head < 32 && q.head*2 < len(q.items) {
		return
	}
	remaining := len(q.items) - q.head
	copy(q.items, q.items[q.head:])
	q.items = q.items[:remaining]
	q.head = 0
}
