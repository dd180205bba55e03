package model

import (
	"fmt"
	"net/url"
	"strconv"
)

// OperationKind identifies a deferred read operation, the values are the
// backend task types.
type OperationKind string

const (
	OperationAllProducts               OperationKind = "GET_ALL_PRODUCTS"
	OperationPagedProducts             OperationKind = "GET_PAGED_PRODUCTS"
	OperationProductByID               OperationKind = "GET_PRODUCT_BY_ID"
	OperationProductsByCategory        OperationKind = "GET_PRODUCTS_BY_CATEGORY"
	OperationProductsByCategoryPaged   OperationKind = "GET_PRODUCTS_BY_CATEGORY_PAGED"
	OperationProductsByPriceRange      OperationKind = "GET_PRODUCTS_BY_PRICE_RANGE"
	OperationProductsByPriceRangePaged OperationKind = "GET_PRODUCTS_BY_PRICE_RANGE_PAGED"
	OperationProductsByMinStock        OperationKind = "GET_PRODUCTS_BY_MIN_STOCK"
	OperationProductsByMinStockPaged   OperationKind = "GET_PRODUCTS_BY_MIN_STOCK_PAGED"
	OperationSearchProducts            OperationKind = "SEARCH_PRODUCTS"
	OperationSearchProductsPaged       OperationKind = "SEARCH_PRODUCTS_PAGED"
)

const (
	// DefaultPage is the page used when none is requested.
	DefaultPage = 0
	// DefaultPageSize is the page size used by the backend when none is requested.
	DefaultPageSize = 20
)

// Operation is a deferred read request: the operation, the path relative to the
// async API base URL and the query parameters.
type Operation struct {
	Kind   OperationKind
	Path   string
	Params url.Values
}

// Validate validates the operation parameters.
func (o Operation) Validate() error {
	if o.Kind == "" {
		return fmt.Errorf("operation kind is required: %w", ErrNotValid)
	}

	if o.Params.Has("page") {
		page, err := strconv.Atoi(o.Params.Get("page"))
		if err != nil || page < 0 {
			return fmt.Errorf("page must be a non negative integer: %w", ErrNotValid)
		}
	}
	if o.Params.Has("size") {
		size, err := strconv.Atoi(o.Params.Get("size"))
		if err != nil || size <= 0 {
			return fmt.Errorf("size must be a positive integer: %w", ErrNotValid)
		}
	}
	if o.Params.Has("keyword") && o.Params.Get("keyword") == "" {
		return fmt.Errorf("keyword is required: %w", ErrNotValid)
	}

	switch o.Kind {
	case OperationProductsByPriceRange, OperationProductsByPriceRangePaged:
		minPrice, errMin := strconv.ParseFloat(o.Params.Get("min"), 64)
		maxPrice, errMax := strconv.ParseFloat(o.Params.Get("max"), 64)
		if errMin != nil || errMax != nil {
			return fmt.Errorf("price range requires numeric min and max: %w", ErrNotValid)
		}
		if minPrice > maxPrice {
			return fmt.Errorf("min price can't be greater than max price: %w", ErrNotValid)
		}
	case OperationProductsByMinStock, OperationProductsByMinStockPaged:
		if _, err := strconv.Atoi(o.Params.Get("min")); err != nil {
			return fmt.Errorf("min stock must be an integer: %w", ErrNotValid)
		}
	}

	return nil
}

// AllProducts lists every product.
func AllProducts() Operation {
	return Operation{Kind: OperationAllProducts, Path: "", Params: url.Values{}}
}

// PagedProducts lists one page of products.
func PagedProducts(page, size int) Operation {
	return Operation{Kind: OperationPagedProducts, Path: "/paged", Params: pageParams(url.Values{}, page, size)}
}

// ProductByID looks up a single product.
func ProductByID(id int64) Operation {
	return Operation{Kind: OperationProductByID, Path: "/" + strconv.FormatInt(id, 10), Params: url.Values{}}
}

// ProductsByCategory lists the products of a category.
func ProductsByCategory(category string) Operation {
	return Operation{Kind: OperationProductsByCategory, Path: "/category/" + url.PathEscape(category), Params: url.Values{}}
}

// ProductsByCategoryPaged lists one page of the products of a category.
func ProductsByCategoryPaged(category string, page, size int) Operation {
	return Operation{
		Kind:   OperationProductsByCategoryPaged,
		Path:   "/category/" + url.PathEscape(category) + "/paged",
		Params: pageParams(url.Values{}, page, size),
	}
}

// ProductsByPriceRange lists products with a price between min and max.
func ProductsByPriceRange(minPrice, maxPrice float64) Operation {
	return Operation{Kind: OperationProductsByPriceRange, Path: "/price", Params: priceParams(minPrice, maxPrice)}
}

// ProductsByPriceRangePaged lists one page of products with a price between min and max.
func ProductsByPriceRangePaged(minPrice, maxPrice float64, page, size int) Operation {
	return Operation{
		Kind:   OperationProductsByPriceRangePaged,
		Path:   "/price/paged",
		Params: pageParams(priceParams(minPrice, maxPrice), page, size),
	}
}

// ProductsByMinStock lists products with at least min units in stock.
func ProductsByMinStock(minStock int) Operation {
	return Operation{Kind: OperationProductsByMinStock, Path: "/stock", Params: url.Values{"min": {strconv.Itoa(minStock)}}}
}

// ProductsByMinStockPaged lists one page of products with at least min units in stock.
func ProductsByMinStockPaged(minStock, page, size int) Operation {
	return Operation{
		Kind:   OperationProductsByMinStockPaged,
		Path:   "/stock/paged",
		Params: pageParams(url.Values{"min": {strconv.Itoa(minStock)}}, page, size),
	}
}

// SearchProducts searches products by keyword.
func SearchProducts(keyword string) Operation {
	return Operation{Kind: OperationSearchProducts, Path: "/search", Params: url.Values{"keyword": {keyword}}}
}

// SearchProductsPaged searches products by keyword returning one page.
func SearchProductsPaged(keyword string, page, size int) Operation {
	return Operation{
		Kind:   OperationSearchProductsPaged,
		Path:   "/search/paged",
		Params: pageParams(url.Values{"keyword": {keyword}}, page, size),
	}
}

func pageParams(v url.Values, page, size int) url.Values {
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	return v
}

func priceParams(minPrice, maxPrice float64) url.Values {
	return url.Values{
		"min": {strconv.FormatFloat(minPrice, 'f', -1, 64)},
		"max": {strconv.FormatFloat(maxPrice, 'f', -1, 64)},
	}
}
