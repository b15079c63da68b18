package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"

	"listing-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. Подтверждением управляет Consumer:
// nil - ack, ошибка - nack без повторной постановки (сообщение уходит в DLX очереди, если он задан).
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// ConsumerConfig конфигурация потребителя
type ConsumerConfig struct {
	rabbitmq_common.Config

	QueueName    string
	DurableQueue bool
	QueueArgs    amqp.Table // например x-dead-letter-exchange

	// Привязка очереди к обменнику; пустое имя - без привязки
	ExchangeName string
	ExchangeType string
	RoutingKeys  []string

	PrefetchCount int
	ConsumerTag   string

	Logger rabbitmq_common.Logger
}

func (c ConsumerConfig) validate() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("consumer: invalid base config: %w", err)
	}
	if c.QueueName == "" {
		return fmt.Errorf("consumer: queue name is required")
	}
	if c.ExchangeName != "" && c.ExchangeType == "" {
		return fmt.Errorf("consumer: exchange type is required when exchange name is set")
	}
	return nil
}

// Consumer читает очередь и запускает обработчик для каждого сообщения в своей горутине.
type Consumer struct {
	config  ConsumerConfig
	channel *amqp.Channel
	handler MessageHandler
	wg      sync.WaitGroup

	Logger rabbitmq_common.Logger
}

// NewConsumer открывает канал, объявляет очередь и привязывает ее к обменнику.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*Consumer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, fmt.Errorf("consumer: message handler is required")
	}
	if connManager == nil {
		return nil, fmt.Errorf("consumer: connection manager is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	_, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("consumer: failed to get channel from manager: %w", err)
	}

	c := &Consumer{config: cfg, channel: ch, handler: handler, Logger: logger}
	if err := c.setup(); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return c, nil
}

func (c *Consumer) setup() error {
	if c.config.PrefetchCount > 0 {
		if err := c.channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("consumer: failed to set QoS: %w", err)
		}
	}

	if _, err := c.channel.QueueDeclare(c.config.QueueName, c.config.DurableQueue, false, false, false, c.config.QueueArgs); err != nil {
		return fmt.Errorf("consumer: failed to declare queue '%s': %w", c.config.QueueName, err)
	}

	if c.config.ExchangeName == "" {
		return nil
	}
	if err := c.channel.ExchangeDeclare(c.config.ExchangeName, c.config.ExchangeType, true, false, false, false, nil); err != nil {
		return fmt.Errorf("consumer: failed to declare exchange '%s': %w", c.config.ExchangeName, err)
	}
	for _, key := range c.config.RoutingKeys {
		c.Logger.Debug("Binding queue", "queue", c.config.QueueName, "exchange", c.config.ExchangeName, "routing_key", key)
		if err := c.channel.QueueBind(c.config.QueueName, key, c.config.ExchangeName, false, nil); err != nil {
			return fmt.Errorf("consumer: failed to bind queue '%s' with key '%s': %w", c.config.QueueName, key, err)
		}
	}
	return nil
}

// StartConsuming регистрирует потребителя и возвращает управление.
// Сообщения обрабатываются до отмены ctx или закрытия канала брокером.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.config.QueueName, c.config.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consumer: failed to register on queue '%s': %w", c.config.QueueName, err)
	}
	c.Logger.Info("Waiting for messages", "queue", c.config.QueueName)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.Logger.Info("Context cancelled, stopping consumption", "queue", c.config.QueueName)
				return
			case d, ok := <-msgs:
				if !ok {
					c.Logger.Warn("Deliveries channel closed by broker", "queue", c.config.QueueName)
					return
				}
				c.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer c.wg.Done()
					c.process(ctx, delivery)
				}(d)
			}
		}
	}()
	return nil
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	if err := c.handler(ctx, d); err != nil {
		c.Logger.Error(err, "Message handler failed, rejecting", "delivery_tag", d.DeliveryTag, "routing_key", d.RoutingKey)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.Logger.Error(nackErr, "Failed to nack message", "delivery_tag", d.DeliveryTag)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.Logger.Error(err, "Failed to ack message", "delivery_tag", d.DeliveryTag)
	}
}

// Close дожидается обработчиков и закрывает канал.
func (c *Consumer) Close() error {
	c.wg.Wait()
	if c.channel == nil {
		return nil
	}
	err := c.channel.Close()
	c.channel = nil
	if err != nil {
		c.Logger.Error(err, "Error closing consumer channel")
		return err
	}
	c.Logger.Info("Consumer closed")
	return nil
}
