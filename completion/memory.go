// File: completion/memory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory completion queue: an unbounded FIFO guarded by a mutex and condition.

package completion

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/momentics/jobnotify/api"
)

// MemoryQueue delivers packets posted by in-process sources.
type MemoryQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *queue.Queue
	closed bool
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemory creates an empty in-memory queue.
func NewMemory() *MemoryQueue {
	q := &MemoryQueue{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Associate attaches the queue to a job implementing Source.
func (q *MemoryQueue) Associate(job api.Job) error {
	src, ok := job.(Source)
	if !ok {
		return fmt.Errorf("completion: job %q does not deliver in-process notifications: %w", job.Name(), api.ErrNotSupported)
	}
	return src.Attach(q)
}

// Post appends a packet.
func (q *MemoryQueue) Post(p api.Packet) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return api.ErrClosed
	}
	q.items.Add(p)
	q.cond.Signal()
	return nil
}

// Wait blocks for the next packet. It returns api.ErrClosed once the queue is closed.
func (q *MemoryQueue) Wait() (api.Packet, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return api.Packet{}, api.ErrClosed
	}
	return q.items.Remove().(api.Packet), nil
}

// Backend reports BackendMemory.
func (q *MemoryQueue) Backend() Backend { return BackendMemory }

// Len reports the number of queued packets.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Close wakes every waiter and rejects further posts. It is idempotent.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
	return nil
}
