// Package fake is an in-process implementation of the products async API
// backend. It resolves tasks against an in memory catalog and is used to test
// the client end to end without a real worker.
package fake

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/g3a/htpclient/internal/log"
	"github.com/g3a/htpclient/internal/model"
)

// Outcome is how the fake worker resolves a task. A nil Outcome means the
// task is processed against the catalog.
type Outcome struct {
	Status model.TaskStatus
	// Result replaces the computed result of processed tasks when set.
	Result any
}

// BackendConfig is the configuration of the fake backend.
type BackendConfig struct {
	// Products is the catalog, DefaultCatalog when empty.
	Products []model.Product
	// ProcessingDelay is the time the worker takes to resolve every task.
	ProcessingDelay time.Duration
	// Resolve decides the outcome of a task, optional.
	Resolve func(t Task) *Outcome
	// Overloaded rejects submissions with 503 when it returns true, optional.
	Overloaded func() bool
	// NewTaskID generates task IDs, ULIDs by default.
	NewTaskID func() string
	Logger    log.Logger
}

func (c *BackendConfig) defaults() error {
	if len(c.Products) == 0 {
		c.Products = DefaultCatalog(47)
	}
	if c.Resolve == nil {
		c.Resolve = func(Task) *Outcome { return nil }
	}
	if c.Overloaded == nil {
		c.Overloaded = func() bool { return false }
	}
	if c.NewTaskID == nil {
		c.NewTaskID = func() string { return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String() }
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})

	return nil
}

// Task is a task known by the fake backend.
type Task struct {
	ID          string
	Kind        model.OperationKind
	Params      map[string]string
	Status      model.TaskStatus
	CreatedAt   time.Time
	ProcessedAt time.Time
	Result      any

	done chan struct{}
}

// Backend is the fake backend.
type Backend struct {
	products  []model.Product
	delay     time.Duration
	resolve   func(t Task) *Outcome
	overload  func() bool
	newTaskID func() string
	logger    log.Logger
	startedAt time.Time
	router    chi.Router

	mu          sync.RWMutex
	tasks       map[string]*Task
	subscribers int
	successful  int64
	rejected    int64
	byType      map[string]int64
	procTimes   []time.Duration
}

// NewBackend returns a new fake backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := &Backend{
		products:  cfg.Products,
		delay:     cfg.ProcessingDelay,
		resolve:   cfg.Resolve,
		overload:  cfg.Overloaded,
		newTaskID: cfg.NewTaskID,
		logger:    cfg.Logger,
		startedAt: time.Now(),
		tasks:     map[string]*Task{},
		byType:    map[string]int64{},
	}
	b.router = b.routes()

	return b, nil
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/products/async", func(r chi.Router) {
		r.Get("/", b.submit(model.OperationAllProducts))
		r.Get("/paged", b.submit(model.OperationPagedProducts))
		r.Get("/category/{category}", b.submit(model.OperationProductsByCategory))
		r.Get("/category/{category}/paged", b.submit(model.OperationProductsByCategoryPaged))
		r.Get("/price", b.submit(model.OperationProductsByPriceRange))
		r.Get("/price/paged", b.submit(model.OperationProductsByPriceRangePaged))
		r.Get("/stock", b.submit(model.OperationProductsByMinStock))
		r.Get("/stock/paged", b.submit(model.OperationProductsByMinStockPaged))
		r.Get("/search", b.submit(model.OperationSearchProducts))
		r.Get("/search/paged", b.submit(model.OperationSearchProductsPaged))
		r.Get("/task/{taskID}", b.taskStatus)
		r.Get("/subscribe/{taskID}", b.subscribe)
		r.Get("/{id}", b.submit(model.OperationProductByID))
	})
	r.Get("/api/admin/worker/stats", b.stats)

	return r
}

// Task returns a copy of a known task.
func (b *Backend) Task(id string) (Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// DefaultCatalog returns n products spread on a few categories.
func DefaultCatalog(n int) []model.Product {
	categories := []string{"electronics", "books", "home", "sports"}
	names := []string{"Phone", "Novel", "Lamp", "Ball", "Laptop", "Cookbook", "Chair", "Racket"}

	products := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, model.Product{
			ID:       int64(i + 1),
			Name:     fmt.Sprintf("%s %d", names[i%len(names)], i+1),
			Price:    float64(10 + (i*37)%490),
			Category: categories[i%len(categories)],
			Stock:    (i * 7) % 100,
		})
	}
	return products
}
