package model

// Product is a catalog item.
type Product struct {
	ID       int64
	Name     string
	Price    float64
	Category string
	Stock    int
}

// Page has the pagination metadata of paged operation results.
type Page struct {
	CurrentPage   int
	TotalPages    int
	PageSize      int
	TotalElements int64
}

// Result is the payload of a processed task. Which fields are set depends on
// the requested operation.
type Result struct {
	// Products is set on list and search operations.
	Products []Product
	// Count is the number of products reported by non paged operations.
	Count *int
	// Keyword is echoed back by search operations.
	Keyword string
	// Page is set only on paged operations.
	Page *Page

	// Product, Found and Message are set on lookups by ID.
	Product *Product
	Found   *bool
	Message string

	// Raw is the result payload exactly as it was received.
	Raw []byte
}

// IsPaged returns true if the result carries pagination metadata.
func (r Result) IsPaged() bool {
	return r.Page != nil
}
