package stream

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/g3a/htpclient/internal/log"
)

// AMQPOpenerConfig is the configuration of the RabbitMQ transport.
type AMQPOpenerConfig struct {
	Connection *amqp.Connection
	// Exchange is the topic exchange where task events are published.
	Exchange string
	// RoutingKeyPrefix is prepended to the task ID: {RoutingKeyPrefix}.{taskID}.
	RoutingKeyPrefix string
	Logger           log.Logger
}

func (c *AMQPOpenerConfig) defaults() error {
	if c.Connection == nil {
		return fmt.Errorf("amqp connection is required")
	}
	if c.Exchange == "" {
		c.Exchange = "htp.tasks"
	}
	if c.RoutingKeyPrefix == "" {
		c.RoutingKeyPrefix = "task"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stream.AMQPOpener"})

	return nil
}

// AMQPOpener opens task channels as exclusive queues bound to a topic exchange.
type AMQPOpener struct {
	conn             *amqp.Connection
	exchange         string
	routingKeyPrefix string
	logger           log.Logger
}

// NewAMQPOpener returns a new RabbitMQ opener.
func NewAMQPOpener(cfg AMQPOpenerConfig) (*AMQPOpener, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &AMQPOpener{
		conn:             cfg.Connection,
		exchange:         cfg.Exchange,
		routingKeyPrefix: cfg.RoutingKeyPrefix,
		logger:           cfg.Logger,
	}, nil
}

// AMQPRoutingKey returns the routing key of the task events.
func AMQPRoutingKey(prefix, taskID string) string {
	return prefix + "." + taskID
}

// Open declares a server named exclusive queue, binds it to the task routing
// key and starts consuming it. Every channel uses its own AMQP channel.
func (o *AMQPOpener) Open(ctx context.Context, taskID string) (Channel, error) {
	ch, err := o.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("creating amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(o.exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", o.exchange, err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declaring queue: %w", err)
	}

	key := AMQPRoutingKey(o.routingKeyPrefix, taskID)
	if err := ch.QueueBind(q.Name, key, o.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("binding queue to %s: %w", key, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consuming queue: %w", err)
	}
	o.logger.Debugf("Consuming %s bound to %s", q.Name, key)

	return &amqpChannel{ch: ch, deliveries: deliveries}, nil
}

type amqpChannel struct {
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func (c *amqpChannel) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			return nil, fmt.Errorf("amqp deliveries closed")
		}
		return d.Body, nil
	}
}

func (c *amqpChannel) Close() error {
	return c.ch.Close()
}
