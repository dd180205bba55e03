package lib

import (
	"time"

	"github.com/g3a/htpclient/internal/app/query"
	"github.com/g3a/htpclient/internal/model"
)

// --- Operation types ---

// Operation is a deferred product read. Create operations with the
// constructors ([AllProducts], [PagedProducts], [SearchProducts]...).
type Operation struct {
	op model.Operation
}

// Kind returns the backend task type of the operation (e.g. "GET_PAGED_PRODUCTS").
func (o Operation) Kind() string { return string(o.op.Kind) }

// AllProducts lists every product.
func AllProducts() Operation { return Operation{op: model.AllProducts()} }

// PagedProducts lists one page of products, pages start at 0.
func PagedProducts(page, size int) Operation {
	return Operation{op: model.PagedProducts(page, size)}
}

// ProductByID looks up a single product.
func ProductByID(id int64) Operation { return Operation{op: model.ProductByID(id)} }

// ProductsByCategory lists the products of a category.
func ProductsByCategory(category string) Operation {
	return Operation{op: model.ProductsByCategory(category)}
}

// ProductsByCategoryPaged lists one page of the products of a category.
func ProductsByCategoryPaged(category string, page, size int) Operation {
	return Operation{op: model.ProductsByCategoryPaged(category, page, size)}
}

// ProductsByPriceRange lists products with a price between min and max.
func ProductsByPriceRange(minPrice, maxPrice float64) Operation {
	return Operation{op: model.ProductsByPriceRange(minPrice, maxPrice)}
}

// ProductsByPriceRangePaged lists one page of products with a price between min and max.
func ProductsByPriceRangePaged(minPrice, maxPrice float64, page, size int) Operation {
	return Operation{op: model.ProductsByPriceRangePaged(minPrice, maxPrice, page, size)}
}

// ProductsByMinStock lists products with at least min units in stock.
func ProductsByMinStock(minStock int) Operation {
	return Operation{op: model.ProductsByMinStock(minStock)}
}

// ProductsByMinStockPaged lists one page of products with at least min units in stock.
func ProductsByMinStockPaged(minStock, page, size int) Operation {
	return Operation{op: model.ProductsByMinStockPaged(minStock, page, size)}
}

// SearchProducts searches products by keyword.
func SearchProducts(keyword string) Operation {
	return Operation{op: model.SearchProducts(keyword)}
}

// SearchProductsPaged searches products by keyword returning one page.
func SearchProductsPaged(keyword string, page, size int) Operation {
	return Operation{op: model.SearchProductsPaged(keyword, page, size)}
}

// --- Task types ---

// TaskStatus is the state of a deferred task.
//
// A task is accepted on submission, pending while queued and finally
// processed or rejected:
//
//	ACCEPTED/PENDING -> PROCESSED | REJECTED
type TaskStatus string

const (
	// TaskStatusAccepted is returned on submission.
	TaskStatusAccepted TaskStatus = "ACCEPTED"
	// TaskStatusPending indicates the task is queued.
	TaskStatusPending TaskStatus = "PENDING"
	// TaskStatusProcessed indicates the task was resolved with a result.
	TaskStatusProcessed TaskStatus = "PROCESSED"
	// TaskStatusRejected indicates the backend gave up on the task (overload, timeout).
	TaskStatusRejected TaskStatus = "REJECTED"
)

// Product is a catalog item.
type Product struct {
	ID       int64
	Name     string
	Price    float64
	Category string
	Stock    int
}

// Page is the pagination metadata of paged operations.
type Page struct {
	// CurrentPage starts at 0.
	CurrentPage   int
	TotalPages    int
	PageSize      int
	TotalElements int64
}

// Result is the payload of a processed task. Which fields are set depends on
// the operation.
type Result struct {
	// Products is set on list and search operations.
	Products []Product
	// Count is the number of products of non paged operations.
	Count *int
	// Keyword is echoed back by search operations.
	Keyword string
	// Page is set only on paged operations.
	Page *Page
	// Product, Found and Message are set on lookups by ID.
	Product *Product
	Found   *bool
	Message string
	// Raw is the result payload as received.
	Raw []byte
}

// TaskOutcome is how a task was resolved. Result is nil unless the task was processed.
type TaskOutcome struct {
	TaskID string
	Status TaskStatus
	Result *Result
}

// TaskSnapshot is the point in time status of a task.
type TaskSnapshot struct {
	TaskID string
	// Type is the operation task type.
	Type        string
	Status      TaskStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
	// Elapsed is the time the task has been waiting, set while pending.
	Elapsed time.Duration
	// ProcessingTime is set once processed or rejected.
	ProcessingTime time.Duration
	Result         *Result
}

// WorkerStats is a snapshot of the backend worker metrics.
type WorkerStats struct {
	TotalTasksProcessed  int64
	TasksSuccessful      int64
	TasksRejected        int64
	Uptime               time.Duration
	AvgProcessingTime    time.Duration
	StoredResults        int64
	ActiveEmitters       int64
	AvailablePermits     int64
	QueueLength          int64
	SystemLoad           float64
	TasksByType          map[string]int64
	RegisteredProcessors []string
}

// --- Internal conversion helpers ---

func fromInternalProduct(p model.Product) Product {
	return Product{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Stock:    p.Stock,
	}
}

func fromInternalResult(r *model.Result) *Result {
	if r == nil {
		return nil
	}

	res := &Result{
		Count:   r.Count,
		Keyword: r.Keyword,
		Found:   r.Found,
		Message: r.Message,
		Raw:     r.Raw,
	}

	if r.Products != nil {
		res.Products = make([]Product, 0, len(r.Products))
		for _, p := range r.Products {
			res.Products = append(res.Products, fromInternalProduct(p))
		}
	}

	if r.Product != nil {
		p := fromInternalProduct(*r.Product)
		res.Product = &p
	}

	if r.Page != nil {
		res.Page = &Page{
			CurrentPage:   r.Page.CurrentPage,
			TotalPages:    r.Page.TotalPages,
			PageSize:      r.Page.PageSize,
			TotalElements: r.Page.TotalElements,
		}
	}

	return res
}

func fromInternalResponse(r *query.Response) *TaskOutcome {
	return &TaskOutcome{
		TaskID: r.TaskID,
		Status: TaskStatus(r.Status),
		Result: fromInternalResult(r.Result),
	}
}

func fromInternalSnapshot(s *model.TaskSnapshot) *TaskSnapshot {
	return &TaskSnapshot{
		TaskID:         s.TaskID,
		Type:           s.Type,
		Status:         TaskStatus(s.Status),
		CreatedAt:      s.CreatedAt,
		ProcessedAt:    s.ProcessedAt,
		Elapsed:        s.Elapsed,
		ProcessingTime: s.ProcessingTime,
		Result:         fromInternalResult(s.Result),
	}
}

func fromInternalStats(s model.WorkerStats) WorkerStats {
	return WorkerStats{
		TotalTasksProcessed:  s.TotalTasksProcessed,
		TasksSuccessful:      s.TasksSuccessful,
		TasksRejected:        s.TasksRejected,
		Uptime:               s.Uptime,
		AvgProcessingTime:    s.AvgProcessingTime,
		StoredResults:        s.StoredResults,
		ActiveEmitters:       s.ActiveEmitters,
		AvailablePermits:     s.AvailablePermits,
		QueueLength:          s.QueueLength,
		SystemLoad:           s.SystemLoad,
		TasksByType:          s.TasksByType,
		RegisteredProcessors: s.RegisteredProcessors,
	}
}
