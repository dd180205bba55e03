package commands

import (
	"fmt"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/config"
	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/storage"
	"github.com/g3a/htpclient/internal/stream"
	"github.com/g3a/htpclient/internal/submit"
	"github.com/g3a/htpclient/internal/subscription"
)

func newSubmitClient(cfg config.Config, logger log.Logger) (*submit.Client, error) {
	c, err := submit.NewClient(submit.ClientConfig{
		BaseURL:    cfg.Endpoints.APIBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create submission client: %w", err)
	}

	return c, nil
}

// newOpener returns the task channel opener of the configured transport and a
// function to release the transport connection.
func newOpener(cfg config.Config, logger log.Logger) (stream.Opener, func(), error) {
	switch cfg.Stream.Transport {
	case config.TransportRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Stream.Redis.Address,
			Password: cfg.Stream.Redis.Password,
			DB:       cfg.Stream.Redis.DB,
		})
		opener, err := stream.NewRedisOpener(stream.RedisOpenerConfig{
			Client:        client,
			ChannelPrefix: cfg.Stream.Redis.ChannelPrefix,
			Logger:        logger,
		})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("could not create redis opener: %w", err)
		}
		return opener, func() { _ = client.Close() }, nil

	case config.TransportAMQP:
		conn, err := amqp.Dial(cfg.Stream.AMQP.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to amqp broker: %w", err)
		}
		opener, err := stream.NewAMQPOpener(stream.AMQPOpenerConfig{
			Connection:       conn,
			Exchange:         cfg.Stream.AMQP.Exchange,
			RoutingKeyPrefix: cfg.Stream.AMQP.RoutingKeyPrefix,
			Logger:           logger,
		})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("could not create amqp opener: %w", err)
		}
		return opener, func() { _ = conn.Close() }, nil

	default:
		opener, err := stream.NewSSEOpener(stream.SSEOpenerConfig{
			BaseURL: cfg.Endpoints.APIBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sse opener: %w", err)
		}
		return opener, func() {}, nil
	}
}

// newQueryService wires the submission client, the subscriber and the
// subscription manager. The journal is optional.
func newQueryService(cfg config.Config, journal storage.Repository, logger log.Logger) (*query.Service, func(), error) {
	submitter, err := newSubmitClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opener, closeOpener, err := newOpener(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	subscriber, err := stream.NewTaskSubscriber(stream.SubscriberConfig{
		Opener: opener,
		Logger: logger,
	})
	if err != nil {
		closeOpener()
		return nil, nil, fmt.Errorf("could not create subscriber: %w", err)
	}

	manager, err := subscription.NewManager(subscription.ManagerConfig{
		Subscriber: subscriber,
		Logger:     logger,
	})
	if err != nil {
		closeOpener()
		return nil, nil, fmt.Errorf("could not create subscription manager: %w", err)
	}

	svc, err := query.NewService(query.ServiceConfig{
		Submitter: submitter,
		Manager:   manager,
		Journal:   journal,
		Logger:    logger,
	})
	if err != nil {
		closeOpener()
		return nil, nil, fmt.Errorf("could not create service: %w", err)
	}

	return svc, closeOpener, nil
}
