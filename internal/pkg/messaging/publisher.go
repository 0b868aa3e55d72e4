package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, companyID, eventType string, data interface{}) error
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange
type AMQPPublisher struct {
	rmq      *RabbitMQ
	exchange string
	source   string
}

// NewPublisher creates a new publisher for the given exchange
func NewPublisher(rmq *RabbitMQ, exchange, source string) (*AMQPPublisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		rmq:      rmq,
		exchange: exchange,
		source:   source,
	}, nil
}

// Publish publishes an event to the exchange, routed by its type
func (p *AMQPPublisher) Publish(ctx context.Context, companyID, eventType string, data interface{}) error {
	correlationID := CorrelationID(ctx)

	event, err := NewEvent(eventType, p.source, companyID, correlationID, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.rmq.mu.Lock()
	err = p.rmq.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: correlationID,
			MessageId:     event.ID,
			Body:          body,
		},
	)
	p.rmq.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("event published",
		"event_type", eventType,
		"event_id", event.ID,
		"company_id", companyID,
		"correlation_id", correlationID,
	)
	return nil
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }

// PublishBestEffort publishes and only logs failures. Events never roll back
// a committed write.
func PublishBestEffort(ctx context.Context, p Publisher, companyID, eventType string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, companyID, eventType, data); err != nil {
		slog.Warn("failed to publish event", "event_type", eventType, "company_id", companyID, "error", err)
	}
}

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationID retrieves the correlation ID from context
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}
