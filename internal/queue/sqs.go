package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"go-lake-pipeline/internal/model"
)

// SQSQueue adapts an SQS queue to the Queue interface. One message per job,
// JSON body, ApproximateReceiveCount surfaced for the dead-letter policy.
type SQSQueue struct {
	Client   *sqs.Client
	QueueURL string
	Policy   RedeliveryPolicy
}

// NewSQSQueue wraps an SQS client for the given queue URL
func NewSQSQueue(client *sqs.Client, queueURL string, policy RedeliveryPolicy) *SQSQueue {
	return &SQSQueue{Client: client, QueueURL: queueURL, Policy: policy}
}

// Send enqueues one job as a JSON message
func (q *SQSQueue) Send(ctx context.Context, job model.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.Name, err)
	}

	_, err = q.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send job %s: %w", job.Name, err)
	}
	return nil
}

// Receive long-polls for the next message. Returns ErrEmpty when the wait
// time passes with nothing delivered.
func (q *SQSQueue) Receive(ctx context.Context) (*Message, error) {
	out, err := q.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.QueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     int32(q.Policy.WaitTime.Seconds()),
		VisibilityTimeout:   int32(q.Policy.VisibilityTimeout.Seconds()),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive message: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, ErrEmpty
	}

	raw := out.Messages[0]
	var job model.Job
	if err := json.Unmarshal([]byte(aws.ToString(raw.Body)), &job); err != nil {
		// Malformed body: hand back a message with a zero job so the worker
		// can reject and delete it instead of crashing on it forever.
		return &Message{
			ReceiptHandle: aws.ToString(raw.ReceiptHandle),
			ReceiveCount:  receiveCount(raw.Attributes),
		}, nil
	}

	return &Message{
		Job:           job,
		ReceiptHandle: aws.ToString(raw.ReceiptHandle),
		ReceiveCount:  receiveCount(raw.Attributes),
	}, nil
}

// Delete acknowledges a message
func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func receiveCount(attrs map[string]string) int {
	n, err := strconv.Atoi(attrs[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
