package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/model"
	"github.com/g3a/htpclient/internal/printer"
)

type SubscribeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID  string
	timeout time.Duration
	format  string
}

// NewSubscribeCommand returns the subscribe command.
func NewSubscribeCommand(rootCmd *RootCommand, app *kingpin.Application) *SubscribeCommand {
	c := &SubscribeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("subscribe", "Wait for the result of an already submitted task.")
	c.Cmd.Arg("task-id", "Task ID returned on submission.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("timeout", "Max time waiting for the result, 0 waits until the task is resolved.").Default("0").DurationVar(&c.timeout)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c SubscribeCommand) Name() string { return c.Cmd.FullCommand() }

func (c SubscribeCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}

	// Tasks waited by ID only update their journal entry when this client submitted them.
	journal, closeJournal := c.rootCmd.openJournalOrSkip(ctx)
	defer closeJournal()

	svc, closeTransport, err := newQueryService(cfg, journal, c.rootCmd.Logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	resp, err := svc.Run(ctx, query.Request{
		TaskID:  c.taskID,
		Timeout: c.timeout,
	})
	if err != nil {
		return fmt.Errorf("could not wait for task %s: %w", c.taskID, err)
	}

	return printResponse(newPrinter(c.format, c.rootCmd.Stdout), resp)
}

// printResponse prints a resolved task, a rejected task is reported as an error.
func printResponse(p printer.Printer, resp *query.Response) error {
	if resp.Status == model.TaskStatusRejected {
		return fmt.Errorf("task %s was rejected by the backend, try again later", resp.TaskID)
	}

	var result model.Result
	if resp.Result != nil {
		result = *resp.Result
	}

	if err := p.PrintResult(resp.TaskID, result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}
