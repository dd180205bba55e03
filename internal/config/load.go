package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/g3a/htpclient/internal/model"
)

// EnvPrefix is the prefix of the environment variables that override the configuration.
const EnvPrefix = "HTP_"

// LoadOptions are the options to load the configuration.
type LoadOptions struct {
	// FS is the filesystem where the config file is read from.
	FS fs.FS
	// Path is the config file path on FS, if empty no file is loaded.
	Path string
	// Optional ignores a missing config file.
	Optional bool
	// Environment forces an environment, takes precedence over the file and the hostname.
	Environment Environment
	// Hostname is used to select the environment when none is forced.
	Hostname string
	// Lookuper resolves environment variables, nil disables environment overrides.
	Lookuper envconfig.Lookuper
	// Override is applied last, before validation (e.g. CLI flags).
	Override func(*Config)
}

// Load resolves the configuration: selected profile, then config file, then
// environment variables and finally the override.
func Load(ctx context.Context, opts LoadOptions) (Config, error) {
	var file *fileConfig
	if opts.Path != "" && opts.FS != nil {
		f, err := readFile(opts.FS, opts.Path)
		if err != nil {
			if !(opts.Optional && errors.Is(err, fs.ErrNotExist)) {
				return Config{}, fmt.Errorf("could not read config file: %w", err)
			}
		} else {
			file = f
		}
	}

	env := opts.Environment
	if env == "" && file != nil {
		env = Environment(file.Environment)
	}
	if env == "" {
		env = Select(opts.Hostname)
	}

	cfg, err := Profile(env)
	if err != nil {
		return Config{}, err
	}

	if file != nil {
		if err := file.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config file: %w", err)
		}
	}

	if opts.Lookuper != nil {
		err := envconfig.ProcessWith(ctx, &envconfig.Config{
			Target:   &cfg,
			Lookuper: envconfig.PrefixLookuper(EnvPrefix, opts.Lookuper),
		})
		if err != nil {
			return Config{}, fmt.Errorf("could not load environment overrides: %w", err)
		}
	}

	if opts.Override != nil {
		opts.Override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// fileConfig represents the YAML structure of the config file. Every field is
// optional and only overrides the selected profile when set.
type fileConfig struct {
	Environment     string           `yaml:"environment"`
	Endpoints       fileEndpoints    `yaml:"endpoints"`
	PollingInterval string           `yaml:"pollingInterval"`
	RequestTimeout  string           `yaml:"requestTimeout"`
	Stream          fileStreamConfig `yaml:"stream"`
}

type fileEndpoints struct {
	APIBaseURL     string `yaml:"apiBaseUrl"`
	SyncAPIBaseURL string `yaml:"syncApiBaseUrl"`
	AdminAPIURL    string `yaml:"adminApiUrl"`
}

type fileStreamConfig struct {
	Transport string `yaml:"transport"`
	Redis     struct {
		Address       string `yaml:"address"`
		Password      string `yaml:"password"`
		DB            *int   `yaml:"db"`
		ChannelPrefix string `yaml:"channelPrefix"`
	} `yaml:"redis"`
	AMQP struct {
		URL              string `yaml:"url"`
		Exchange         string `yaml:"exchange"`
		RoutingKeyPrefix string `yaml:"routingKeyPrefix"`
	} `yaml:"amqp"`
}

func readFile(fsys fs.FS, path string) (*fileConfig, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	return &f, nil
}

func (f fileConfig) apply(cfg *Config) error {
	setString(&cfg.Endpoints.APIBaseURL, f.Endpoints.APIBaseURL)
	setString(&cfg.Endpoints.SyncAPIBaseURL, f.Endpoints.SyncAPIBaseURL)
	setString(&cfg.Endpoints.AdminAPIURL, f.Endpoints.AdminAPIURL)

	// The web client used milliseconds, accept both "1500" and "1.5s".
	if f.PollingInterval != "" {
		d, err := parseDuration(f.PollingInterval)
		if err != nil {
			return fmt.Errorf("pollingInterval: %w", err)
		}
		cfg.PollingInterval = d
	}
	if f.RequestTimeout != "" {
		d, err := parseDuration(f.RequestTimeout)
		if err != nil {
			return fmt.Errorf("requestTimeout: %w", err)
		}
		cfg.RequestTimeout = d
	}

	setString(&cfg.Stream.Transport, f.Stream.Transport)
	setString(&cfg.Stream.Redis.Address, f.Stream.Redis.Address)
	setString(&cfg.Stream.Redis.Password, f.Stream.Redis.Password)
	setString(&cfg.Stream.Redis.ChannelPrefix, f.Stream.Redis.ChannelPrefix)
	if f.Stream.Redis.DB != nil {
		cfg.Stream.Redis.DB = *f.Stream.Redis.DB
	}
	setString(&cfg.Stream.AMQP.URL, f.Stream.AMQP.URL)
	setString(&cfg.Stream.AMQP.Exchange, f.Stream.AMQP.Exchange)
	setString(&cfg.Stream.AMQP.RoutingKeyPrefix, f.Stream.AMQP.RoutingKeyPrefix)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("invalid duration %q: %w", s, model.ErrNotValid)
}
