package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event types carried on the order-events queue.
const (
	EventOrderConfirmed     = "order.confirmed"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload sent from API -> SQS -> worker after a commit or
// a status transition.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	SellerIDs  []string  `json:"seller_ids,omitempty"`
	Status     string    `json:"status,omitempty"`
	Total      int64     `json:"total,omitempty"` // minor currency units
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// PublishOrderEvent marshals the event and sends it to the queue.
// correlationID (request id) is attached as a message attribute when present.
func (p *Publisher) PublishOrderEvent(ctx context.Context, ev OrderEvent, correlationID string) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msgBody := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &msgBody,
	}

	attrs := map[string]sqstypes.MessageAttributeValue{
		"event_type": {DataType: awsString("String"), StringValue: awsString(ev.Type)},
		"order_id":   {DataType: awsString("String"), StringValue: awsString(ev.OrderID)},
	}
	if correlationID != "" {
		attrs["correlation_id"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: awsString(correlationID),
		}
	}
	input.MessageAttributes = attrs

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
