package queue

import (
	"context"
	"errors"
	"time"

	"go-lake-pipeline/internal/model"
)

// ErrEmpty is returned by Receive when no message is currently available
var ErrEmpty = errors.New("queue: no message available")

// Message is one delivered job plus the bookkeeping the worker needs to ack
// it or let it come back. ReceiveCount starts at 1 on first delivery.
type Message struct {
	Job           model.Job
	ReceiptHandle string
	ReceiveCount  int
}

// RedeliveryPolicy makes the queue's retry behavior an explicit parameter
// instead of an implicit platform default
type RedeliveryPolicy struct {
	VisibilityTimeout time.Duration `json:"visibility_timeout"` // how long a received message stays hidden
	WaitTime          time.Duration `json:"wait_time"`          // long-poll duration for Receive
}

// DefaultRedeliveryPolicy mirrors the deployed queue settings
func DefaultRedeliveryPolicy() RedeliveryPolicy {
	return RedeliveryPolicy{
		VisibilityTimeout: 15 * time.Minute,
		WaitTime:          20 * time.Second,
	}
}

// Queue is the at-least-once delivery channel between producer and workers.
// Delivery may duplicate and may reorder; a message that is received but
// never deleted becomes visible again after the visibility timeout.
type Queue interface {
	// Send enqueues one job message
	Send(ctx context.Context, job model.Job) error
	// Receive returns the next available message, or ErrEmpty after the
	// policy's wait time passes with nothing to deliver
	Receive(ctx context.Context) (*Message, error)
	// Delete acknowledges a message so it is never redelivered
	Delete(ctx context.Context, receiptHandle string) error
}
