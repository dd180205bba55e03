package fake

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/g3a/htpclient/internal/model"
)

func (b *Backend) submit(kind model.OperationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if b.overload() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "REJECTED",
				"message": "Server is currently at high load. Please try again later.",
			})
			return
		}

		params := map[string]string{}
		for k := range r.URL.Query() {
			params[k] = r.URL.Query().Get(k)
		}
		if c := chi.URLParam(r, "category"); c != "" {
			params["category"] = unescape(c)
		}
		if id := chi.URLParam(r, "id"); id != "" {
			if _, err := strconv.ParseInt(id, 10, 64); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"status": "REJECTED", "message": "invalid id"})
				return
			}
			params["id"] = id
		}

		t := &Task{
			ID:        b.newTaskID(),
			Kind:      kind,
			Params:    params,
			Status:    model.TaskStatusPending,
			CreatedAt: time.Now().UTC(),
			done:      make(chan struct{}),
		}
		b.mu.Lock()
		b.tasks[t.ID] = t
		b.mu.Unlock()

		go b.process(t)

		writeJSON(w, http.StatusAccepted, map[string]any{"status": "ACCEPTED", "idTask": t.ID})
	}
}

func (b *Backend) process(t *Task) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}

	b.mu.RLock()
	snapshot := *t
	b.mu.RUnlock()

	status := model.TaskStatusProcessed
	var result any
	if o := b.resolve(snapshot); o != nil {
		status = o.Status
		result = o.Result
	}
	if status == model.TaskStatusProcessed && result == nil {
		result = b.compute(snapshot.Kind, snapshot.Params)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	t.Status = status
	t.Result = result
	t.ProcessedAt = time.Now().UTC()
	b.byType[string(t.Kind)]++
	b.procTimes = append(b.procTimes, t.ProcessedAt.Sub(t.CreatedAt))
	if status == model.TaskStatusProcessed {
		b.successful++
	} else {
		b.rejected++
	}
	close(t.done)
	b.logger.Debugf("Task %s resolved as %s", t.ID, status)
}

func (b *Backend) subscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	b.mu.Lock()
	t, ok := b.tasks[id]
	if ok {
		b.subscribers++
	}
	b.mu.Unlock()

	if !ok {
		writeEvent(w, map[string]any{"idTask": id, "status": "UNKNOWN", "message": "Task not found or expired"})
		return
	}
	defer func() {
		b.mu.Lock()
		b.subscribers--
		b.mu.Unlock()
	}()

	select {
	case <-r.Context().Done():
		return
	case <-t.done:
	}

	b.mu.RLock()
	event := map[string]any{"idTask": t.ID, "status": string(t.Status)}
	if t.Status == model.TaskStatusProcessed {
		event["result"] = t.Result
		if t.Result == nil {
			event["result"] = ""
		}
	}
	b.mu.RUnlock()

	writeEvent(w, event)
}

func (b *Backend) taskStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tasks[chi.URLParam(r, "taskID")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "NOT_FOUND", "message": "Task not found"})
		return
	}

	body := map[string]any{
		"idTask":    t.ID,
		"taskType":  string(t.Kind),
		"createdAt": t.CreatedAt.Format(time.RFC3339Nano),
		"status":    string(t.Status),
	}
	switch t.Status {
	case model.TaskStatusPending:
		body["elapsedTimeMs"] = time.Since(t.CreatedAt).Milliseconds()
	case model.TaskStatusProcessed:
		body["result"] = t.Result
		body["processingTimeMs"] = t.ProcessedAt.Sub(t.CreatedAt).Milliseconds()
		body["processedAt"] = t.ProcessedAt.Format(time.RFC3339Nano)
	case model.TaskStatusRejected:
		body["processingTimeMs"] = t.ProcessedAt.Sub(t.CreatedAt).Milliseconds()
		body["processedAt"] = t.ProcessedAt.Format(time.RFC3339Nano)
	}

	writeJSON(w, http.StatusOK, body)
}

func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var avg float64
	if len(b.procTimes) > 0 {
		var total time.Duration
		for _, d := range b.procTimes {
			total += d
		}
		avg = float64(total.Microseconds()) / float64(len(b.procTimes)) / 1000
	}

	processors := []string{
		string(model.OperationAllProducts), string(model.OperationPagedProducts), string(model.OperationProductByID),
		string(model.OperationProductsByCategory), string(model.OperationProductsByCategoryPaged),
		string(model.OperationProductsByPriceRange), string(model.OperationProductsByPriceRangePaged),
		string(model.OperationProductsByMinStock), string(model.OperationProductsByMinStockPaged),
		string(model.OperationSearchProducts), string(model.OperationSearchProductsPaged),
	}
	sort.Strings(processors)

	writeJSON(w, http.StatusOK, map[string]any{
		"totalTasksProcessed":  b.successful + b.rejected,
		"tasksSuccessful":      b.successful,
		"tasksRejected":        b.rejected,
		"activeEmitters":       b.subscribers,
		"storedResults":        len(b.tasks),
		"uptime":               int64(time.Since(b.startedAt).Seconds()),
		"avgProcessingTimeMs":  avg,
		"tasksByType":          b.byType,
		"registeredProcessors": processors,
	})
}

// compute resolves an operation against the catalog with the result shapes of the real worker.
func (b *Backend) compute(kind model.OperationKind, params map[string]string) map[string]any {
	switch kind {
	case model.OperationAllProducts:
		return listResult(b.products)
	case model.OperationPagedProducts:
		return pageResult(b.products, params)
	case model.OperationProductByID:
		id, _ := strconv.ParseInt(params["id"], 10, 64)
		for _, p := range b.products {
			if p.ID == id {
				return map[string]any{"product": productJSON(p), "found": true}
			}
		}
		return map[string]any{"found": false, "message": fmt.Sprintf("Product not found with id: %d", id)}
	case model.OperationProductsByCategory, model.OperationProductsByCategoryPaged:
		res := b.filter(func(p model.Product) bool { return strings.EqualFold(p.Category, params["category"]) })
		if kind == model.OperationProductsByCategory {
			return listResult(res)
		}
		return pageResult(res, params)
	case model.OperationProductsByPriceRange, model.OperationProductsByPriceRangePaged:
		minPrice, _ := strconv.ParseFloat(params["min"], 64)
		maxPrice, _ := strconv.ParseFloat(params["max"], 64)
		res := b.filter(func(p model.Product) bool { return p.Price >= minPrice && p.Price <= maxPrice })
		if kind == model.OperationProductsByPriceRange {
			return listResult(res)
		}
		return pageResult(res, params)
	case model.OperationProductsByMinStock, model.OperationProductsByMinStockPaged:
		minStock, _ := strconv.Atoi(params["min"])
		res := b.filter(func(p model.Product) bool { return p.Stock >= minStock })
		if kind == model.OperationProductsByMinStock {
			return listResult(res)
		}
		return pageResult(res, params)
	case model.OperationSearchProducts, model.OperationSearchProductsPaged:
		keyword := params["keyword"]
		res := b.filter(func(p model.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), strings.ToLower(keyword))
		})
		var out map[string]any
		if kind == model.OperationSearchProducts {
			out = listResult(res)
		} else {
			out = pageResult(res, params)
		}
		out["keyword"] = keyword
		return out
	}

	return map[string]any{}
}

func (b *Backend) filter(keep func(model.Product) bool) []model.Product {
	res := []model.Product{}
	for _, p := range b.products {
		if keep(p) {
			res = append(res, p)
		}
	}
	return res
}

func listResult(products []model.Product) map[string]any {
	return map[string]any{"products": productsJSON(products), "count": len(products)}
}

func pageResult(products []model.Product, params map[string]string) map[string]any {
	page := atoiDefault(params["page"], model.DefaultPage)
	size := atoiDefault(params["size"], model.DefaultPageSize)
	if size <= 0 {
		size = model.DefaultPageSize
	}
	page = max(page, 0)

	from := min(page*size, len(products))
	to := min(from+size, len(products))

	return map[string]any{
		"products":      productsJSON(products[from:to]),
		"currentPage":   page,
		"totalPages":    int(math.Ceil(float64(len(products)) / float64(size))),
		"pageSize":      size,
		"totalElements": len(products),
	}
}

func productsJSON(products []model.Product) []map[string]any {
	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON(p))
	}
	return out
}

func productJSON(p model.Product) map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name, "price": p.Price, "category": p.Category, "stock": p.Stock}
}

func atoiDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func unescape(s string) string {
	u, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return u
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeEvent(w http.ResponseWriter, body any) {
	data, _ := json.Marshal(body)
	_, _ = fmt.Fprintf(w, "data:%s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
