package lib

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sdklib "github.com/g3a/htpclient/pkg/lib"
)

// Config holds integration test configuration loaded from environment variables.
// Every dependency is optional, the tests that need a missing one are skipped.
type Config struct {
	// APIBaseURL and AdminAPIURL point to a running products backend.
	APIBaseURL  string
	AdminAPIURL string
	// RedisAddress is a Redis server used as task channel transport.
	RedisAddress string
	// AMQPURL is a RabbitMQ broker used as task channel transport.
	AMQPURL string
}

const (
	envActivation  = "HTP_INTEGRATION"
	envAPIBaseURL  = "HTP_INTEGRATION_API_BASE_URL"
	envAdminAPIURL = "HTP_INTEGRATION_ADMIN_API_URL"
	envRedisAddr   = "HTP_INTEGRATION_REDIS_ADDRESS"
	envAMQPURL     = "HTP_INTEGRATION_AMQP_URL"
)

// NewConfig loads integration test configuration from environment variables.
// If the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	return Config{
		APIBaseURL:   os.Getenv(envAPIBaseURL),
		AdminAPIURL:  os.Getenv(envAdminAPIURL),
		RedisAddress: os.Getenv(envRedisAddr),
		AMQPURL:      os.Getenv(envAMQPURL),
	}
}

// RequireBackend skips the test if no backend is configured.
func (c Config) RequireBackend(t *testing.T) {
	t.Helper()
	if c.APIBaseURL == "" || c.AdminAPIURL == "" {
		t.Skipf("Skipping: %s and %s are required", envAPIBaseURL, envAdminAPIURL)
	}
}

// RequireRedis skips the test if no Redis is configured.
func (c Config) RequireRedis(t *testing.T) {
	t.Helper()
	if c.RedisAddress == "" {
		t.Skipf("Skipping: %s is required", envRedisAddr)
	}
}

// RequireAMQP skips the test if no AMQP broker is configured.
func (c Config) RequireAMQP(t *testing.T) {
	t.Helper()
	if c.AMQPURL == "" {
		t.Skipf("Skipping: %s is required", envAMQPURL)
	}
}

// UniqueTaskID generates a unique task ID for test isolation.
func UniqueTaskID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// NewTestClient creates an SDK client, the config endpoints are used when set.
func NewTestClient(t *testing.T, config Config, cfg sdklib.Config) *sdklib.Client {
	t.Helper()

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = config.APIBaseURL
	}
	if cfg.AdminAPIURL == "" {
		cfg.AdminAPIURL = config.AdminAPIURL
	}

	client, err := sdklib.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
