package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/g3a/htpclient/internal/log"
)

// RedisOpenerConfig is the configuration of the Redis Pub/Sub transport.
type RedisOpenerConfig struct {
	Client redis.UniversalClient
	// ChannelPrefix is prepended to the task ID: {ChannelPrefix}:{taskID}.
	ChannelPrefix string
	Logger        log.Logger
}

func (c *RedisOpenerConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("redis client is required")
	}
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = "htp:tasks"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "stream.RedisOpener"})

	return nil
}

// RedisOpener opens task channels as Redis Pub/Sub subscriptions.
type RedisOpener struct {
	client redis.UniversalClient
	prefix string
	logger log.Logger
}

// NewRedisOpener returns a new Redis Pub/Sub opener.
func NewRedisOpener(cfg RedisOpenerConfig) (*RedisOpener, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &RedisOpener{
		client: cfg.Client,
		prefix: cfg.ChannelPrefix,
		logger: cfg.Logger,
	}, nil
}

// RedisChannel returns the Pub/Sub channel name of a task.
func RedisChannel(prefix, taskID string) string {
	return prefix + ":" + taskID
}

// Open subscribes to the task channel and waits for the subscription confirmation.
func (o *RedisOpener) Open(ctx context.Context, taskID string) (Channel, error) {
	name := RedisChannel(o.prefix, taskID)
	ps := o.client.Subscribe(ctx, name)

	// Receive the confirmation so subscription errors are reported on open.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", name, err)
	}
	o.logger.Debugf("Subscribed to %s", name)

	return &redisChannel{ps: ps}, nil
}

type redisChannel struct {
	ps *redis.PubSub
}

func (c *redisChannel) Next(ctx context.Context) ([]byte, error) {
	msg, err := c.ps.ReceiveMessage(ctx)
	if err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return nil, fmt.Errorf("subscription closed: %w", err)
		}
		return nil, fmt.Errorf("receiving message: %w", err)
	}

	return []byte(msg.Payload), nil
}

func (c *redisChannel) Close() error {
	return c.ps.Close()
}
