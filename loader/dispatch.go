package loader

import "sync"

// Dispatcher runs state updates and notifications for a Controller.
//
// Contract:
//   - Ordering: functions run one at a time, in the order they were dispatched.
//   - Dispatch must not block the caller on the execution of fn.
type Dispatcher interface {
	Dispatch(fn func())
}

// SerialQueue is a Dispatcher backed by a single goroutine and an unbounded
// FIFO queue.
type SerialQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerialQueue starts a SerialQueue.
func NewSerialQueue() *SerialQueue {
	q := &SerialQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Dispatch enqueues fn. Functions dispatched after Close are dropped.
func (q *SerialQueue) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.queue = append(q.queue, fn)
	q.cond.Signal()
}

// Close stops accepting work. Queued functions still run. Close does not
// wait; use Done to observe termination.
func (q *SerialQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Signal()
}

// Done is closed once the queue has drained after Close.
func (q *SerialQueue) Done() <-chan struct{} {
	return q.done
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.mu.Unlock()

		fn()
	}
}

var _ Dispatcher = (*SerialQueue)(nil)
