package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/stats"
)

type StatsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	watch  bool
	format string
}

// NewStatsCommand returns the stats command.
func NewStatsCommand(rootCmd *RootCommand, app *kingpin.Application) *StatsCommand {
	c := &StatsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("stats", "Show the backend worker stats.")
	c.Cmd.Flag("watch", "Keep refreshing the stats at the configured polling interval.").Short('w').BoolVar(&c.watch)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c StatsCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatsCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	refreshes := make(chan model.WorkerStats, 1)

	poller, err := stats.NewPoller(stats.PollerConfig{
		AdminURL:   cfg.Endpoints.AdminAPIURL,
		Interval:   cfg.PollingInterval,
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout},
		Logger:     logger,
		OnRefresh: func(s model.WorkerStats) {
			// Drop the refresh if the previous one is still being printed.
			select {
			case refreshes <- s:
			default:
			}
		},
		OnError: func(err error) {
			fmt.Fprintf(c.rootCmd.Stderr, "Warning: %s\n", err)
		},
	})
	if err != nil {
		return fmt.Errorf("could not create stats poller: %w", err)
	}

	if !c.watch {
		s, err := poller.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("could not get stats: %w", err)
		}
		return p.PrintStats(s)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g run.Group

	// Poller.
	g.Add(
		func() error {
			return poller.Run(ctx)
		},
		func(_ error) {
			cancel()
		},
	)

	// Printer.
	g.Add(
		func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case s := <-refreshes:
					if err := p.PrintStats(s); err != nil {
						return fmt.Errorf("could not print stats: %w", err)
					}
					if c.format == formatTable {
						fmt.Fprintln(c.rootCmd.Stdout)
					}
				}
			}
		},
		func(_ error) {
			cancel()
		},
	)

	return g.Run()
}
