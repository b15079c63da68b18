package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type userDeletedDTO struct {
	UserID string `json:"user_id"`
}

// UserEventsConsumerAdapter - входящий адаптер: по событию user.deleted
// удаляет объявления пользователя.
type UserEventsConsumerAdapter struct {
	consumer *rabbitmq_consumer.Consumer
	useCase  usecases_port.RemoveOwnerPropertiesUseCase
	logger   port.LoggerPort
}

func NewUserEventsConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.RemoveOwnerPropertiesUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*UserEventsConsumerAdapter, error) {
	adapter := &UserEventsConsumerAdapter{useCase: useCase, logger: logger}

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewConsumer(consumerCfg, adapter.handle, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for user events: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// handle возвращает ошибку для некорректных сообщений и сбоев хранилища;
// такие сообщения уходят в DLX очереди.
func (a *UserEventsConsumerAdapter) handle(ctx context.Context, d amqp.Delivery) error {
	traceID, _ := d.Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}
	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"adapter_name": "UserEventsConsumerAdapter",
		"routing_key":  d.RoutingKey,
		"message_id":   d.MessageId,
	})

	ctx = contextkeys.ContextWithLogger(ctx, msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	if err := contracts.Validate(contracts.UserDeletedEvent, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return err
	}
	ownerID, err := decodeUserDeleted(d.Body)
	if err != nil {
		msgLogger.Error("Malformed user.deleted message", err, nil)
		return err
	}

	removed, err := a.useCase.Execute(ctx, ownerID)
	if err != nil {
		return err
	}
	msgLogger.Info("Owner properties removed", port.Fields{"owner_id": ownerID.String(), "removed": removed})
	return nil
}

func decodeUserDeleted(body []byte) (uuid.UUID, error) {
	var dto userDeletedDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return uuid.Nil, fmt.Errorf("failed to unmarshal user event: %w", err)
	}
	id, err := uuid.Parse(dto.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id %q: %w", dto.UserID, err)
	}
	return id, nil
}

func (a *UserEventsConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

func (a *UserEventsConsumerAdapter) Close() error {
	return a.consumer.Close()
}
