package transport

import "context"

// Queue hands requests from reader goroutines to the control loop.
// Readers block when the loop falls behind; the loop never blocks.
type Queue struct {
	ch chan Request
}

// NewQueue returns a queue holding up to depth pending requests.
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	return &Queue{ch: make(chan Request, depth)}
}

// Push enqueues r, giving up when ctx is done.
func (q *Queue) Push(ctx context.Context, r Request) bool {
	select {
	case q.ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// Poll returns one pending request, if any.
func (q *Queue) Poll() (Request, bool) {
	select {
	case r := <-q.ch:
		return r, true
	default:
		return Request{}, false
	}
}
