package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go-lake-pipeline/internal/model"
	"go-lake-pipeline/internal/queue"
	"go-lake-pipeline/internal/store"
)

// Run consumes the queue until the context is cancelled. One job at a time,
// to completion, matching the one-job-per-worker scheduling model.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	fmt.Printf("👷 Worker started, polling queue\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := q.Receive(ctx)
		if errors.Is(err, queue.ErrEmpty) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("receive failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		w.Handle(ctx, q, msg)
	}
}

// Handle processes one delivery and settles it against the queue: delete on
// done/skipped, delete malformed jobs outright, and leave failed jobs for
// the visibility timeout to redeliver until the dead-letter threshold.
func (w *Worker) Handle(ctx context.Context, q queue.Queue, msg *queue.Message) {
	if msg.ReceiveCount > w.Config.MaxReceives {
		log.Printf("dead-lettering job %s (%s) after %d deliveries", msg.Job.ID, msg.Job.Name, msg.ReceiveCount)
		if msg.Job.ID != "" {
			store.SaveJob(msg.Job)
			store.SaveJobError(msg.Job.ID, fmt.Errorf("dropped after %d deliveries", msg.ReceiveCount))
			store.UpdateJobStatus(msg.Job.ID, "dead_letter")
		}
		if err := q.Delete(ctx, msg.ReceiptHandle); err != nil {
			log.Printf("failed to delete dead-lettered message: %v", err)
		}
		return
	}

	result := w.Process(ctx, msg.Job)

	switch result.State {
	case StateDone, StateSkipped:
		if err := q.Delete(ctx, msg.ReceiptHandle); err != nil {
			// Delete failure means a duplicate delivery later; the
			// deterministic keys make that harmless.
			log.Printf("failed to delete message for %s: %v", msg.Job.Name, err)
		}
	case StateFailed:
		var missing model.ErrMissingField
		if errors.As(result.Err, &missing) {
			// Malformed job: rejected per-item, no point redelivering it
			if err := q.Delete(ctx, msg.ReceiptHandle); err != nil {
				log.Printf("failed to delete malformed message: %v", err)
			}
			return
		}
		// Transient failure: leave the message for the queue's redelivery
		// mechanism to retry after the visibility timeout.
	}
}
