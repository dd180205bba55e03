package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/model"
)

// Operation names accepted by the query command.
const (
	opAll           = "all"
	opPaged         = "paged"
	opByID          = "by-id"
	opCategory      = "category"
	opCategoryPaged = "category-paged"
	opPrice         = "price"
	opPricePaged    = "price-paged"
	opStock         = "stock"
	opStockPaged    = "stock-paged"
	opSearch        = "search"
	opSearchPaged   = "search-paged"
)

type operationOpts struct {
	id       int64
	category string
	minPrice float64
	maxPrice float64
	minStock int
	keyword  string
	page     int
	size     int
}

type QueryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operation string
	opts      operationOpts
	timeout   time.Duration
	format    string
}

// NewQueryCommand returns the query command.
func NewQueryCommand(rootCmd *RootCommand, app *kingpin.Application) *QueryCommand {
	c := &QueryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("query", "Submit a deferred product read and wait for its result.")
	c.Cmd.Arg("operation", "Operation to run.").Required().EnumVar(&c.operation,
		opAll, opPaged, opByID, opCategory, opCategoryPaged, opPrice, opPricePaged, opStock, opStockPaged, opSearch, opSearchPaged)
	c.Cmd.Flag("id", "Product ID (by-id).").Int64Var(&c.opts.id)
	c.Cmd.Flag("category", "Product category (category, category-paged).").StringVar(&c.opts.category)
	c.Cmd.Flag("min-price", "Min price (price, price-paged).").Float64Var(&c.opts.minPrice)
	c.Cmd.Flag("max-price", "Max price (price, price-paged).").Float64Var(&c.opts.maxPrice)
	c.Cmd.Flag("min-stock", "Min units in stock (stock, stock-paged).").IntVar(&c.opts.minStock)
	c.Cmd.Flag("keyword", "Search keyword (search, search-paged).").StringVar(&c.opts.keyword)
	c.Cmd.Flag("page", "Page number, starts at 0 (paged operations).").Default("0").IntVar(&c.opts.page)
	c.Cmd.Flag("size", "Page size (paged operations).").Default("20").IntVar(&c.opts.size)
	c.Cmd.Flag("timeout", "Max time waiting for the result, 0 waits until the task is resolved.").Default("0").DurationVar(&c.timeout)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c QueryCommand) Name() string { return c.Cmd.FullCommand() }

func (c QueryCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	op, err := buildOperation(c.operation, c.opts)
	if err != nil {
		return err
	}

	cfg, err := c.rootCmd.LoadConfig(ctx)
	if err != nil {
		return err
	}

	journal, closeJournal := c.rootCmd.openJournalOrSkip(ctx)
	defer closeJournal()

	svc, closeTransport, err := newQueryService(cfg, journal, logger)
	if err != nil {
		return err
	}
	defer closeTransport()

	resp, err := svc.Run(ctx, query.Request{
		Operation: op,
		Timeout:   c.timeout,
	})
	if err != nil {
		return fmt.Errorf("could not query products: %w", err)
	}

	return printResponse(newPrinter(c.format, c.rootCmd.Stdout), resp)
}

// buildOperation maps the CLI operation and flags to a deferred read.
func buildOperation(name string, opts operationOpts) (model.Operation, error) {
	var op model.Operation
	switch name {
	case opAll:
		op = model.AllProducts()
	case opPaged:
		op = model.PagedProducts(opts.page, opts.size)
	case opByID:
		if opts.id <= 0 {
			return model.Operation{}, fmt.Errorf("--id is required: %w", model.ErrNotValid)
		}
		op = model.ProductByID(opts.id)
	case opCategory, opCategoryPaged:
		if opts.category == "" {
			return model.Operation{}, fmt.Errorf("--category is required: %w", model.ErrNotValid)
		}
		op = model.ProductsByCategory(opts.category)
		if name == opCategoryPaged {
			op = model.ProductsByCategoryPaged(opts.category, opts.page, opts.size)
		}
	case opPrice:
		op = model.ProductsByPriceRange(opts.minPrice, opts.maxPrice)
	case opPricePaged:
		op = model.ProductsByPriceRangePaged(opts.minPrice, opts.maxPrice, opts.page, opts.size)
	case opStock:
		op = model.ProductsByMinStock(opts.minStock)
	case opStockPaged:
		op = model.ProductsByMinStockPaged(opts.minStock, opts.page, opts.size)
	case opSearch:
		op = model.SearchProducts(opts.keyword)
	case opSearchPaged:
		op = model.SearchProductsPaged(opts.keyword, opts.page, opts.size)
	default:
		return model.Operation{}, fmt.Errorf("unknown operation %q: %w", name, model.ErrNotValid)
	}

	if err := op.Validate(); err != nil {
		return model.Operation{}, fmt.Errorf("invalid %s operation: %w", name, err)
	}

	return op, nil
}
