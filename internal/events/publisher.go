// Package events mirrors client-side signals onto Kafka for downstream
// consumers (analytics, back-office). Publishing is best effort: a broker
// outage never affects the shopper-facing path.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
)

const (
	typeCartChanged    = "cart-changed"
	typeOrderSubmitted = "order-submitted"
)

// writer is satisfied by *kafka.Writer.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	writer writer
	log    *slog.Logger
}

func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, log: log}
}

// OrderSubmitted publishes an accepted order's public token and total.
func (p *Publisher) OrderSubmitted(ctx context.Context, token string, total int64) error {
	payload, err := json.Marshal(map[string]any{
		"token":        token,
		"total_price":  total,
		"submitted_at": time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, typeOrderSubmitted, payload)
}

// MirrorCartChanges forwards cart-changed signals until the subscription is
// cancelled or ctx ends. The marker carries no cart contents, matching the
// broadcast itself.
func (p *Publisher) MirrorCartChanges(ctx context.Context, sub *broadcast.Subscription) {
	for {
		select {
		case _, ok := <-sub.C:
			if !ok {
				return
			}
			if err := p.publish(ctx, typeCartChanged, []byte(`{}`)); err != nil {
				p.log.Warn("cart event publish failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(uuid.NewString()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
