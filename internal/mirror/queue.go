package mirror

import "context"

// Queue is the bounded FIFO work queue between the lister and the workers.
//
// Enqueue blocks while the queue is full, which gives the lister a hard
// backpressure bound instead of a polled approximation. Termination is
// signalled by closing the queue; workers drain the remaining items and
// exit when the channel is closed.
type Queue struct {
	items chan string
}

// NewQueue creates a queue holding at most capacity keys.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{items: make(chan string, capacity)}
}

// Enqueue adds a key to the queue, blocking while the queue is full.
// It returns the context error if ctx is cancelled before space frees up.
func (q *Queue) Enqueue(ctx context.Context, key string) error {
	select {
	case q.items <- key:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items returns the receive side of the queue for worker range loops.
// The channel is closed once listing has finished.
func (q *Queue) Items() <-chan string {
	return q.items
}

// Close marks the end of the key stream. Must be called exactly once,
// by the lister, after the last key has been enqueued.
func (q *Queue) Close() {
	close(q.items)
}

// Depth reports the current number of queued keys. Used for logging only.
func (q *Queue) Depth() int {
	return len(q.items)
}
