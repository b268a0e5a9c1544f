package pool

import (
	"container/list"
	"time"
)

// waiter represents a caller suspended until a resource frees up. Delivery is
// one-shot: either a resource arrives on ready, or err is set and ready is
// closed. Whichever side removes the waiter from the queue first wins; the
// loser observes elem == nil and follows the already-decided outcome.
type waiter struct {
	enqueuedAt time.Time
	ready      chan *Resource // capacity 1, written at most once
	err        error          // rejection reason, set under the pool mutex before close(ready)
	elem       *list.Element  // queue position, nil once resolved; guarded by the pool mutex
}

func newWaiter() *waiter {
	return &waiter{
		enqueuedAt: time.Now(),
		ready:      make(chan *Resource, 1),
	}
}

// deliver hands a resource to the waiter. Caller must hold the pool mutex and
// must already have removed the waiter from the queue.
func (w *waiter) deliver(res *Resource) {
	w.ready <- res
}

// reject resolves the waiter with an error. Caller must hold the pool mutex
// and must already have removed the waiter from the queue.
func (w *waiter) reject(err error) {
	w.err = err
	close(w.ready)
}
