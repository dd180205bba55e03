package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sethvargo/go-envconfig"
	"k8s.io/client-go/util/homedir"

	"github.com/g3a/htpclient/internal/config"
	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/printer"
	"github.com/g3a/htpclient/internal/storage"
	"github.com/g3a/htpclient/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug       bool
	NoLog       bool
	NoColor     bool
	LoggerType  string
	ConfigPath  string
	Environment string
	APIBaseURL  string
	AdminAPIURL string
	Transport   string
	HistoryDB   string
	NoHistory   bool

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	app.Flag("config", "Path to the YAML config file (default: ~/.htpctl/config.yaml, ignored if missing).").StringVar(&c.ConfigPath)
	app.Flag("environment", "Forces the environment profile instead of selecting it by hostname.").
		EnumVar(&c.Environment, string(config.EnvironmentDevelopment), string(config.EnvironmentTest), string(config.EnvironmentProduction))
	app.Flag("api-url", "Overrides the async products API base URL.").StringVar(&c.APIBaseURL)
	app.Flag("admin-url", "Overrides the worker admin API base URL.").StringVar(&c.AdminAPIURL)
	app.Flag("transport", "Overrides the task channel transport.").EnumVar(&c.Transport, config.TransportSSE, config.TransportRedis, config.TransportAMQP)
	app.Flag("history-db", "Path to the local task journal database.").Default(DefaultHistoryDBPath()).StringVar(&c.HistoryDB)
	app.Flag("no-history", "Disable the local task journal.").BoolVar(&c.NoHistory)

	return c
}

// DefaultConfigPath returns the config file path used when none is set.
func DefaultConfigPath() string {
	return filepath.Join(homedir.HomeDir(), ".htpctl", "config.yaml")
}

// DefaultHistoryDBPath returns the task journal path used when none is set.
func DefaultHistoryDBPath() string {
	return filepath.Join(homedir.HomeDir(), ".htpctl", "history.db")
}

// OpenJournal opens the local task journal. It returns a nil repository when
// the journal is disabled.
func (c RootCommand) OpenJournal(ctx context.Context) (storage.Repository, func(), error) {
	if c.NoHistory {
		return nil, func() {}, nil
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.HistoryDB,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not open task journal: %w", err)
	}

	return repo, func() { _ = repo.Close() }, nil
}

// openJournalOrSkip opens the task journal, a journal that can't be opened
// never blocks a query.
func (c RootCommand) openJournalOrSkip(ctx context.Context) (storage.Repository, func()) {
	journal, closeJournal, err := c.OpenJournal(ctx)
	if err != nil {
		c.Logger.Warningf("Task journal disabled: %s", err)
		return nil, func() {}
	}
	return journal, closeJournal
}

// LoadConfig resolves the client configuration: profile, config file,
// environment and finally the global flags.
func (c RootCommand) LoadConfig(ctx context.Context) (config.Config, error) {
	path := c.ConfigPath
	optional := false
	if path == "" {
		path = DefaultConfigPath()
		optional = true
	}

	// Hostname is best effort, without it the development profile is selected.
	hostname, _ := os.Hostname()

	cfg, err := config.Load(ctx, config.LoadOptions{
		FS:          os.DirFS(filepath.Dir(path)),
		Path:        filepath.Base(path),
		Optional:    optional,
		Environment: config.Environment(c.Environment),
		Hostname:    hostname,
		Lookuper:    envconfig.OsLookuper(),
		Override: func(cfg *config.Config) {
			if c.APIBaseURL != "" {
				cfg.Endpoints.APIBaseURL = c.APIBaseURL
			}
			if c.AdminAPIURL != "" {
				cfg.Endpoints.AdminAPIURL = c.AdminAPIURL
			}
			if c.Transport != "" {
				cfg.Stream.Transport = c.Transport
			}
		},
	})
	if err != nil {
		return config.Config{}, err
	}

	c.Logger.WithValues(log.Kv{
		"environment": cfg.Environment,
		"api":         cfg.Endpoints.APIBaseURL,
		"transport":   cfg.Stream.Transport,
	}).Debugf("Configuration loaded")

	return cfg, nil
}

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(w)
	default: // table
		return printer.NewTablePrinter(w)
	}
}
