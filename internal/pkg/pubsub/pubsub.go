package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelPaymentStatus = "payment_status"

	TypePaymentStatus = "payment_status"
)

// PaymentEvent announces a payment status change to the paying user.
type PaymentEvent struct {
	Type      string     `json:"type"`
	UserID    int64      `json:"user_id"`
	PaymentID string     `json:"payment_id"`
	Status    string     `json:"status"`
	Plan      string     `json:"plan,omitempty"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// StatusMessages holds the user-facing text for each payment status.
var StatusMessages = map[string]string{
	"pending":    "Payment awaiting review",
	"processing": "Waiting for mobile money confirmation",
	"approved":   "Payment confirmed, subscription active",
	"rejected":   "Payment failed or was cancelled",
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishPaymentStatus fills Type and a default Message, then publishes evt.
func (p *Publisher) PublishPaymentStatus(ctx context.Context, evt *PaymentEvent) error {
	evt.Type = TypePaymentStatus
	if evt.Message == "" {
		evt.Message = StatusMessages[evt.Status]
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	return p.client.Publish(ctx, ChannelPaymentStatus, data).Err()
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe calls handler for every payment event until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*PaymentEvent)) error {
	sub := s.client.Subscribe(ctx, ChannelPaymentStatus)
	defer sub.Close()

	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var evt PaymentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				continue
			}

			handler(&evt)
		}
	}
}
