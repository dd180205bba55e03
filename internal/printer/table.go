package printer

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/g3a/htpclient/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintResult prints a processed task result.
func (t *TablePrinter) PrintResult(taskID string, result model.Result) error {
	fmt.Fprintf(t.writer, "Task:       %s\n", taskID)

	switch {
	case result.Found != nil:
		if !*result.Found || result.Product == nil {
			msg := result.Message
			if msg == "" {
				msg = "product not found"
			}
			fmt.Fprintf(t.writer, "Found:      no (%s)\n", msg)
			return nil
		}
		fmt.Fprintf(t.writer, "Found:      yes\n\n")
		return t.printProducts([]model.Product{*result.Product})
	case result.Keyword != "":
		fmt.Fprintf(t.writer, "Keyword:    %s\n", result.Keyword)
	}

	if result.Page != nil {
		p := result.Page
		fmt.Fprintf(t.writer, "Page:       %d/%d (size %d, %d total)\n", p.CurrentPage+1, p.TotalPages, p.PageSize, p.TotalElements)
	}
	if result.Count != nil {
		fmt.Fprintf(t.writer, "Count:      %d\n", *result.Count)
	}

	if len(result.Products) == 0 {
		return nil
	}
	fmt.Fprintln(t.writer)

	return t.printProducts(result.Products)
}

func (t *TablePrinter) printProducts(products []model.Product) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")

	// Print rows.
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}

	return nil
}

// PrintTaskStatus prints the point in time status of a task.
func (t *TablePrinter) PrintTaskStatus(snap model.TaskSnapshot) error {
	fmt.Fprintf(t.writer, "Task:       %s\n", snap.TaskID)
	if snap.Type != "" {
		fmt.Fprintf(t.writer, "Type:       %s\n", snap.Type)
	}
	fmt.Fprintf(t.writer, "Status:     %s\n", snap.Status)
	fmt.Fprintf(t.writer, "Created:    %s (%s)\n", FormatTimestamp(snap.CreatedAt), TimeAgo(snap.CreatedAt))

	if snap.ProcessedAt != nil {
		fmt.Fprintf(t.writer, "Processed:  %s\n", FormatTimestamp(*snap.ProcessedAt))
		fmt.Fprintf(t.writer, "Took:       %s\n", FormatDuration(snap.ProcessingTime))
	} else {
		fmt.Fprintf(t.writer, "Elapsed:    %s\n", FormatDuration(snap.Elapsed))
	}

	return nil
}

// PrintStats prints the worker stats.
func (t *TablePrinter) PrintStats(stats model.WorkerStats) error {
	fmt.Fprintf(t.writer, "Processed:  %d (%d successful, %d rejected)\n", stats.TotalTasksProcessed, stats.TasksSuccessful, stats.TasksRejected)
	fmt.Fprintf(t.writer, "Uptime:     %s\n", FormatDuration(stats.Uptime))
	fmt.Fprintf(t.writer, "Avg time:   %s\n", FormatDuration(stats.AvgProcessingTime))
	fmt.Fprintf(t.writer, "Stored:     %d\n", stats.StoredResults)
	fmt.Fprintf(t.writer, "Emitters:   %d\n", stats.ActiveEmitters)
	fmt.Fprintf(t.writer, "Permits:    %d\n", stats.AvailablePermits)
	fmt.Fprintf(t.writer, "Queue:      %d\n", stats.QueueLength)
	fmt.Fprintf(t.writer, "Load:       %.2f\n", stats.SystemLoad)

	if len(stats.TasksByType) == 0 {
		return nil
	}

	types := make([]string, 0, len(stats.TasksByType))
	for k := range stats.TasksByType {
		types = append(types, k)
	}
	sort.Strings(types)

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TYPE\tTASKS")
	for _, k := range types {
		fmt.Fprintf(tw, "%s\t%d\n", k, stats.TasksByType[k])
	}

	return nil
}

// PrintHistory prints the journaled tasks.
func (t *TablePrinter) PrintHistory(entries []model.JournalEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(t.writer, "No tasks found")
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TASK ID\tOPERATION\tSTATUS\tSUBMITTED\tTOOK\tERROR")
	for _, e := range entries {
		status := string(e.Status)
		took := "-"
		if e.IsResolved() {
			took = FormatDuration(e.ResolvedAt.Sub(e.SubmittedAt))
		} else {
			status = "WAITING"
		}
		errMsg := e.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.TaskID, e.Kind, status, TimeAgo(e.SubmittedAt), took, errMsg)
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
