package queue

import (
	"context"
	"sync"
)

// segmentSize is the allocation granularity of each queue's backing
// segments. Unrelated to any wire limit; just an amortization knob.
const segmentSize = 64

// BlockingQueue is the synchronized FIFO the broker's four buffers use.
// Enqueue never blocks; Dequeue suspends the caller until an item is
// available or ctx is done.
type BlockingQueue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond
	q    *Queue[T]
}

// NewBlocking creates an empty BlockingQueue.
func NewBlocking[T any]() *BlockingQueue[T] {
	bq := &BlockingQueue[T]{q: New[T](segmentSize)}
	bq.cond = sync.NewCond(&bq.mu)
	return bq
}

// Enqueue adds item to the tail of the queue and wakes one waiting Dequeue.
func (bq *BlockingQueue[T]) Enqueue(item T) {
	bq.mu.Lock()
	bq.q.Enqueue(item)
	bq.mu.Unlock()
	bq.cond.Signal()
}

// Dequeue removes and returns the item at the head of the queue, suspending
// the caller while the queue is empty. It returns ctx.Err() if ctx is done
// before an item becomes available.
func (bq *BlockingQueue[T]) Dequeue(ctx context.Context) (T, error) {
	// sync.Cond has no native context support: an AfterFunc callback
	// broadcasts once ctx is done so a Wait() blocked with nothing enqueued
	// still notices cancellation. It takes mu first, so the broadcast cannot
	// fall between the ctx.Err() check below and the Wait() that follows it.
	stop := context.AfterFunc(ctx, func() {
		bq.mu.Lock()
		defer bq.mu.Unlock()
		bq.cond.Broadcast()
	})
	defer stop()

	bq.mu.Lock()
	defer bq.mu.Unlock()
	for {
		if v := bq.q.Dequeue(); v != nil {
			return *v, nil
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		bq.cond.Wait()
	}
}

// Len returns the total count of enqueued items.
func (bq *BlockingQueue[T]) Len() int {
	bq.mu.Lock()
	defer bq.mu.Unlock()
	return bq.q.Len()
}
