// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryQueue is a slice-backed Queue for tests and single-process setups.
// Received messages stay pending until acknowledged; unacked messages are
// redelivered by later Receive calls.
type MemoryQueue struct {
	mu      sync.Mutex
	ready   []Message
	pending map[string]Message
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{pending: make(map[string]Message)}
}

func (q *MemoryQueue) Send(_ context.Context, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = append(q.ready, Message{ID: uuid.NewString(), Data: buf})
	return nil
}

func (q *MemoryQueue) Receive(_ context.Context, max int) ([]Message, error) {
	if max <= 0 {
		return nil, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	n := max
	if n > len(q.ready) {
		n = len(q.ready)
	}
	out := make([]Message, n)
	copy(out, q.ready[:n])
	q.ready = q.ready[n:]
	for _, msg := range out {
		q.pending[msg.ID] = msg
	}
	return out, nil
}

func (q *MemoryQueue) Ack(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
	return nil
}

// Requeue returns all pending (received but unacked) messages to the ready
// list. Callers use it to simulate redelivery after a consumer crash.
func (q *MemoryQueue) Requeue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, msg := range q.pending {
		q.ready = append(q.ready, msg)
		delete(q.pending, id)
	}
}

// Depth reports how many messages are ready for delivery.
func (q *MemoryQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready)
}

func (q *MemoryQueue) Close() error { return nil }
