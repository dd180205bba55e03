package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/g3a/htpclient/internal/app/history"
	"github.com/g3a/htpclient/internal/model"
)

type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit  int
	status string
	prune  time.Duration
	format string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the tasks submitted by this client.")
	c.Cmd.Flag("limit", "Max number of tasks listed, 0 lists all of them.").Short('n').Default("20").IntVar(&c.limit)
	c.Cmd.Flag("status", "Only list tasks with this status.").EnumVar(&c.status,
		string(model.TaskStatusAccepted), string(model.TaskStatusProcessed), string(model.TaskStatusRejected))
	c.Cmd.Flag("prune", "Remove the tasks submitted before this age instead of listing (e.g. 72h).").DurationVar(&c.prune)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	if c.rootCmd.NoHistory {
		return fmt.Errorf("task journal is disabled: %w", model.ErrNotValid)
	}

	journal, closeJournal, err := c.rootCmd.OpenJournal(ctx)
	if err != nil {
		return err
	}
	defer closeJournal()

	svc, err := history.NewService(history.ServiceConfig{
		Repository: journal,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)

	if c.prune > 0 {
		n, err := svc.Prune(ctx, history.PruneRequest{OlderThan: c.prune})
		if err != nil {
			return err
		}
		return p.PrintMessage(fmt.Sprintf("Removed %d tasks", n))
	}

	req := history.Request{Limit: c.limit}
	if c.status != "" {
		st := model.TaskStatus(c.status)
		req.StatusFilter = &st
	}

	entries, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}

	return p.PrintHistory(entries)
}
