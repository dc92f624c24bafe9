package element

import "sync"

// QueueOptions describes a queue consumer's capacity and delivery policy.
// Depth is informational only: nothing in this package reads it. EnqueueAll, if
// set, makes this particular queue receive every decoded sample even when
// the report pipeline decided the element's value didn't actually change.
type QueueOptions struct {
	Depth      int
	EnqueueAll bool
}

// Queue is the fan-out capability report.go dispatches element-value
// change notifications to. Enqueue is best-effort: a full or detached
// queue simply drops the notification rather than blocking the report
// pipeline.
type Queue interface {
	Enqueue(data []byte) bool
	Options() QueueOptions
}

// AttachQueue adds q to e's consumer list, idempotently — attaching an
// already-attached queue is a no-op, tolerating redundant attach calls
// from a client that doesn't track its own state.
func (e *Element) AttachQueue(q Queue) {
	for _, existing := range e.Queues {
		if existing == q {
			return
		}
	}
	e.Queues = append(e.Queues, q)
}

// DetachQueue removes q from e's consumer list. Detaching a queue that was
// never attached is a no-op.
func (e *Element) DetachQueue(q Queue) {
	for i, existing := range e.Queues {
		if existing == q {
			e.Queues = append(e.Queues[:i], e.Queues[i+1:]...)
			return
		}
	}
}

// notifyQueues best-effort enqueues a sample to every attached consumer for
// which shouldProcess is true or that individually opted into EnqueueAll. A
// dropped enqueue (full queue) never blocks or errors the caller — the
// consumer simply misses that sample.
func (e *Element) notifyQueues(data []byte, shouldProcess bool) {
	for _, q := range e.Queues {
		if shouldProcess || q.Options().EnqueueAll {
			q.Enqueue(data)
		}
	}
}

// ChannelQueue is a reference Queue backed by a buffered Go channel, used
// as the in-process consumer in tests.
type ChannelQueue struct {
	mu         sync.Mutex
	ch         chan []byte
	closed     bool
	enqueueAll bool
}

// NewChannelQueue allocates a ChannelQueue with room for depth pending
// notifications.
func NewChannelQueue(depth int) *ChannelQueue {
	if depth <= 0 {
		depth = 1
	}
	return &ChannelQueue{ch: make(chan []byte, depth)}
}

// NewChannelQueueEnqueueAll is NewChannelQueue for a consumer that wants
// every decoded sample, not just the ones the report pipeline judged as
// changed.
func NewChannelQueueEnqueueAll(depth int) *ChannelQueue {
	q := NewChannelQueue(depth)
	q.enqueueAll = true
	return q
}

// Enqueue implements Queue: a non-blocking send that reports false if the
// queue is full or closed.
func (q *ChannelQueue) Enqueue(data []byte) bool {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case q.ch <- cp:
		return true
	default:
		return false
	}
}

// Options implements Queue.
func (q *ChannelQueue) Options() QueueOptions {
	return QueueOptions{Depth: cap(q.ch), EnqueueAll: q.enqueueAll}
}

// C exposes the underlying channel for consumers to range/select over.
func (q *ChannelQueue) C() <-chan []byte { return q.ch }

// Close marks the queue closed; further Enqueue calls report false.
func (q *ChannelQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
