// Package config provides the endpoint profiles used to reach the high
// throughput products API on every deployment environment.
//
// The profile is selected by hostname (like the web client does) unless an
// environment is forced. A YAML file, environment variables and finally CLI
// flags can override any value of the selected profile.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/g3a/htpclient/internal/model"
)

// Environment is a deployment environment.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentTest        Environment = "test"
	EnvironmentProduction  Environment = "production"
)

// Stream transports.
const (
	TransportSSE   = "sse"
	TransportRedis = "redis"
	TransportAMQP  = "amqp"
)

// DefaultRequestTimeout is the timeout of the synchronous requests (submission, status and stats).
const DefaultRequestTimeout = 15 * time.Second

// Config is the client configuration.
type Config struct {
	Environment Environment `validate:"required,oneof=development test production"`
	Endpoints   Endpoints

	// PollingInterval is the stats refresh interval.
	PollingInterval time.Duration `env:"POLLING_INTERVAL, overwrite" validate:"gt=0"`
	// RequestTimeout bounds synchronous requests, push channels are never bounded.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, overwrite" validate:"gt=0"`

	Stream StreamConfig
}

// Endpoints are the API base URLs.
type Endpoints struct {
	// APIBaseURL is the base of the deferred (async) operations.
	APIBaseURL string `env:"API_BASE_URL, overwrite" validate:"required,url"`
	// SyncAPIBaseURL is the base of the synchronous operations, not used by the task protocol.
	SyncAPIBaseURL string `env:"SYNC_API_BASE_URL, overwrite" validate:"omitempty,url"`
	// AdminAPIURL is the base of the worker admin endpoints (stats).
	AdminAPIURL string `env:"ADMIN_API_URL, overwrite" validate:"required,url"`
}

// StreamConfig selects and configures the task channel transport.
type StreamConfig struct {
	Transport string `env:"STREAM_TRANSPORT, overwrite" validate:"required,oneof=sse redis amqp"`
	Redis     RedisConfig
	AMQP      AMQPConfig
}

// RedisConfig configures the Redis Pub/Sub transport.
type RedisConfig struct {
	Address       string `env:"REDIS_ADDRESS, overwrite" validate:"omitempty,hostname_port"`
	Password      string `env:"REDIS_PASSWORD, overwrite"`
	DB            int    `env:"REDIS_DB, overwrite" validate:"gte=0"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX, overwrite"`
}

// AMQPConfig configures the RabbitMQ transport.
type AMQPConfig struct {
	URL              string `env:"AMQP_URL, overwrite" validate:"omitempty,url"`
	Exchange         string `env:"AMQP_EXCHANGE, overwrite"`
	RoutingKeyPrefix string `env:"AMQP_ROUTING_KEY_PREFIX, overwrite"`
}

var profiles = map[Environment]Config{
	EnvironmentDevelopment: newProfile(EnvironmentDevelopment, "http://localhost:8080", 1*time.Second),
	EnvironmentTest:        newProfile(EnvironmentTest, "http://test-server", 2*time.Second),
	EnvironmentProduction:  newProfile(EnvironmentProduction, "https://api.example.com", 3*time.Second),
}

func newProfile(env Environment, host string, pollingInterval time.Duration) Config {
	return Config{
		Environment: env,
		Endpoints: Endpoints{
			APIBaseURL:     host + "/api/products/async",
			SyncAPIBaseURL: host + "/api/products",
			AdminAPIURL:    host + "/api/admin/worker",
		},
		PollingInterval: pollingInterval,
		RequestTimeout:  DefaultRequestTimeout,
		Stream: StreamConfig{
			Transport: TransportSSE,
			Redis: RedisConfig{
				ChannelPrefix: "htp:tasks",
			},
			AMQP: AMQPConfig{
				Exchange:         "htp.tasks",
				RoutingKeyPrefix: "task",
			},
		},
	}
}

// Profile returns the built-in configuration of an environment.
func Profile(env Environment) (Config, error) {
	cfg, ok := profiles[env]
	if !ok {
		return Config{}, fmt.Errorf("unknown environment %q: %w", env, model.ErrNotValid)
	}
	return cfg, nil
}

// Select returns the environment for a hostname: hosts with "test" are the test
// environment, hosts in example.com production, anything else development.
func Select(hostname string) Environment {
	hostname = strings.ToLower(hostname)
	switch {
	case strings.Contains(hostname, "test"):
		return EnvironmentTest
	case strings.Contains(hostname, "example.com"):
		return EnvironmentProduction
	default:
		return EnvironmentDevelopment
	}
}

var validate = validator.New()

// Validate validates the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotValid, err)
	}

	switch c.Stream.Transport {
	case TransportRedis:
		if c.Stream.Redis.Address == "" {
			return fmt.Errorf("redis transport requires an address: %w", model.ErrNotValid)
		}
	case TransportAMQP:
		if c.Stream.AMQP.URL == "" {
			return fmt.Errorf("amqp transport requires a URL: %w", model.ErrNotValid)
		}
	}

	return nil
}
