package lib

import (
	"context"
	"fmt"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/app/status"
	"github.com/g3a/htpclient/internal/config"
	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/stats"
	"github.com/g3a/htpclient/internal/stream"
	"github.com/g3a/htpclient/internal/submit"
	"github.com/g3a/htpclient/internal/subscription"
)

// Config configures the SDK client.
//
// All fields are optional. Empty fields are taken from the Environment
// profile (development by default, pointing to http://localhost:8080).
type Config struct {
	// Environment selects the profile used for the empty fields: "development",
	// "test" or "production".
	// Default: "development".
	Environment string

	// APIBaseURL is the async products API base URL.
	APIBaseURL string
	// AdminAPIURL is the worker admin API base URL.
	AdminAPIURL string
	// PollingInterval is the refresh interval of [Client.WatchStats].
	PollingInterval time.Duration
	// RequestTimeout bounds submissions, status and stats requests. Task
	// channels are never bounded, use [QueryOpts] Timeout for that.
	// Default: 15s.
	RequestTimeout time.Duration

	// RedisClient receives task events from Redis Pub/Sub instead of server
	// sent events. The client is owned by the caller.
	RedisClient redis.UniversalClient
	// RedisChannelPrefix is the Pub/Sub channel prefix, channels are {prefix}:{taskID}.
	// Default: "htp:tasks".
	RedisChannelPrefix string

	// AMQPConnection receives task events from a RabbitMQ topic exchange
	// instead of server sent events. The connection is owned by the caller.
	AMQPConnection *amqp.Connection
	// AMQPExchange is the topic exchange of the task events.
	// Default: "htp.tasks".
	AMQPExchange string

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() (config.Config, error) {
	if c.Environment == "" {
		c.Environment = string(config.EnvironmentDevelopment)
	}

	cfg, err := config.Profile(config.Environment(c.Environment))
	if err != nil {
		return config.Config{}, err
	}

	if c.APIBaseURL != "" {
		cfg.Endpoints.APIBaseURL = c.APIBaseURL
	}
	if c.AdminAPIURL != "" {
		cfg.Endpoints.AdminAPIURL = c.AdminAPIURL
	}
	if c.PollingInterval != 0 {
		cfg.PollingInterval = c.PollingInterval
	}
	if c.RequestTimeout != 0 {
		cfg.RequestTimeout = c.RequestTimeout
	}
	if c.RedisChannelPrefix != "" {
		cfg.Stream.Redis.ChannelPrefix = c.RedisChannelPrefix
	}
	if c.AMQPExchange != "" {
		cfg.Stream.AMQP.Exchange = c.AMQPExchange
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return cfg, nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client owns at most one active task subscription.
type Client struct {
	submitter *submit.Client
	manager   *subscription.Manager
	query     *query.Service
	status    *status.Service
	stats     *stats.Poller
	statsCfg  stats.PollerConfig
	logger    log.Logger
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to cancel the active
// subscription:
//
//	client, err := lib.New(lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(cfg Config) (*Client, error) {
	resolved, err := cfg.defaults()
	if err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	logger := cfg.Logger
	httpClient := &http.Client{Timeout: resolved.RequestTimeout}

	submitter, err := submit.NewClient(submit.ClientConfig{
		BaseURL:    resolved.Endpoints.APIBaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create submission client: %w", err))
	}

	opener, err := newOpener(cfg, resolved, logger)
	if err != nil {
		return nil, mapError(err)
	}

	subscriber, err := stream.NewTaskSubscriber(stream.SubscriberConfig{
		Opener: opener,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create subscriber: %w", err)
	}

	manager, err := subscription.NewManager(subscription.ManagerConfig{
		Subscriber: subscriber,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create subscription manager: %w", err)
	}

	querySvc, err := query.NewService(query.ServiceConfig{
		Submitter: submitter,
		Manager:   manager,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create query service: %w", err)
	}

	statusSvc, err := status.NewService(status.ServiceConfig{
		StatusGetter: submitter,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create status service: %w", err)
	}

	statsCfg := stats.PollerConfig{
		AdminURL:   resolved.Endpoints.AdminAPIURL,
		Interval:   resolved.PollingInterval,
		HTTPClient: httpClient,
		Logger:     logger,
	}
	poller, err := stats.NewPoller(statsCfg)
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create stats poller: %w", err))
	}

	return &Client{
		submitter: submitter,
		manager:   manager,
		query:     querySvc,
		status:    statusSvc,
		stats:     poller,
		statsCfg:  statsCfg,
		logger:    logger,
	}, nil
}

func newOpener(cfg Config, resolved config.Config, logger log.Logger) (stream.Opener, error) {
	switch {
	case cfg.RedisClient != nil:
		return stream.NewRedisOpener(stream.RedisOpenerConfig{
			Client:        cfg.RedisClient,
			ChannelPrefix: resolved.Stream.Redis.ChannelPrefix,
			Logger:        logger,
		})
	case cfg.AMQPConnection != nil:
		return stream.NewAMQPOpener(stream.AMQPOpenerConfig{
			Connection:       cfg.AMQPConnection,
			Exchange:         resolved.Stream.AMQP.Exchange,
			RoutingKeyPrefix: resolved.Stream.AMQP.RoutingKeyPrefix,
			Logger:           logger,
		})
	default:
		return stream.NewSSEOpener(stream.SSEOpenerConfig{
			BaseURL: resolved.Endpoints.APIBaseURL,
			Logger:  logger,
		})
	}
}

// Close cancels the active subscription, if any. Transport clients set on
// [Config] are owned by the caller and are not closed.
func (c *Client) Close() error {
	c.manager.CancelActive()
	return nil
}

// Submit submits a deferred read and returns the ID of the task the result
// will be correlated with.
func (c *Client) Submit(ctx context.Context, op Operation) (string, error) {
	sub, err := c.submitter.Submit(ctx, op.op)
	if err != nil {
		return "", mapError(err)
	}

	return sub.TaskID, nil
}

// TaskStatus returns the point in time status of a task.
//
// Returns [ErrNotFound] if the task does not exist or has expired.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*TaskSnapshot, error) {
	snap, err := c.status.Run(ctx, status.Request{TaskID: taskID})
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalSnapshot(snap), nil
}

// Stats gets the current worker stats.
func (c *Client) Stats(ctx context.Context) (WorkerStats, error) {
	s, err := c.stats.Refresh(ctx)
	if err != nil {
		return WorkerStats{}, mapError(err)
	}

	return fromInternalStats(s), nil
}

// WatchStats refreshes the worker stats right away and then on every polling
// interval until the context is done. Failed refreshes are passed to onError
// and never stop the polling. Either hook can be nil.
func (c *Client) WatchStats(ctx context.Context, onRefresh func(WorkerStats), onError func(error)) error {
	cfg := c.statsCfg
	if onRefresh != nil {
		cfg.OnRefresh = func(s model.WorkerStats) { onRefresh(fromInternalStats(s)) }
	}
	if onError != nil {
		cfg.OnError = func(err error) { onError(mapError(err)) }
	}

	poller, err := stats.NewPoller(cfg)
	if err != nil {
		return mapError(fmt.Errorf("could not create stats poller: %w", err))
	}

	return poller.Run(ctx)
}
