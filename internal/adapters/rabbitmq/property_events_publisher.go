package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 10 * time.Second

// Publisher - часть rabbitmq_producer.Publisher, нужная адаптеру.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

type propertyEventDTO struct {
	EventType  string    `json:"event_type"`
	PropertyID string    `json:"property_id"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PropertyEventsPublisher реализует PropertyEventsPort. Ключ маршрутизации
// совпадает с типом события (property.created и т.д.).
type PropertyEventsPublisher struct {
	producer Publisher
}

func NewPropertyEventsPublisher(producer Publisher) (*PropertyEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &PropertyEventsPublisher{producer: producer}, nil
}

func (a *PropertyEventsPublisher) Publish(ctx context.Context, event domain.PropertyEvent) error {
	routingKey := string(event.Type)
	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":   "PropertyEventsPublisher",
		"routing_key": routingKey,
		"property_id": event.PropertyID.String(),
	})

	body, err := json.Marshal(propertyEventDTO{
		EventType:  routingKey,
		PropertyID: event.PropertyID.String(),
		OwnerID:    event.OwnerID.String(),
		Status:     string(event.Status),
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal property event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         routingKey,
		Headers:      amqp.Table{},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	// событие публикуется и после отмены запроса клиентом
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish property event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s for property %s: %w", routingKey, event.PropertyID, err)
	}

	adapterLogger.Debug("Property event published", nil)
	return nil
}
