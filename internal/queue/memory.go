package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-lake-pipeline/internal/model"
)

// MemoryQueue is an in-process Queue with the same at-least-once semantics
// as the real one: received messages go invisible for the visibility timeout
// and come back (with a bumped receive count) unless deleted. Used for local
// runs and tests.
type MemoryQueue struct {
	Policy RedeliveryPolicy

	mu      sync.Mutex
	nextID  int
	pending []*memoryMessage
}

type memoryMessage struct {
	job          model.Job
	receipt      string
	receiveCount int
	invisibleTo  time.Time
}

// NewMemoryQueue creates an empty in-memory queue
func NewMemoryQueue(policy RedeliveryPolicy) *MemoryQueue {
	return &MemoryQueue{Policy: policy}
}

// Send enqueues one job
func (q *MemoryQueue) Send(ctx context.Context, job model.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	q.pending = append(q.pending, &memoryMessage{
		job:     job,
		receipt: fmt.Sprintf("mem-%d", q.nextID),
	})
	return nil
}

// Receive returns the first visible message, or ErrEmpty if none shows up
// before the policy's wait time runs out
func (q *MemoryQueue) Receive(ctx context.Context) (*Message, error) {
	deadline := time.Now().Add(q.Policy.WaitTime)
	for {
		if msg := q.takeVisible(); msg != nil {
			return msg, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrEmpty
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (q *MemoryQueue) takeVisible() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for _, m := range q.pending {
		if now.Before(m.invisibleTo) {
			continue
		}
		m.receiveCount++
		m.invisibleTo = now.Add(q.Policy.VisibilityTimeout)
		return &Message{
			Job:           m.job,
			ReceiptHandle: m.receipt,
			ReceiveCount:  m.receiveCount,
		}
	}
	return nil
}

// Delete removes a message for good
func (q *MemoryQueue) Delete(ctx context.Context, receiptHandle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.pending {
		if m.receipt == receiptHandle {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len reports how many messages remain (visible or not)
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
