package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/g3a/htpclient/internal/model"
)

func TestOperations(t *testing.T) {
	tests := map[string]struct {
		op        model.Operation
		expKind   model.OperationKind
		expPath   string
		expParams string
	}{
		"All products should not have params.": {
			op:      model.AllProducts(),
			expKind: model.OperationAllProducts,
			expPath: "",
		},
		"Paged products should set page and size.": {
			op:        model.PagedProducts(0, 10),
			expKind:   model.OperationPagedProducts,
			expPath:   "/paged",
			expParams: "page=0&size=10",
		},
		"Product by ID should use the ID in the path.": {
			op:      model.ProductByID(42),
			expKind: model.OperationProductByID,
			expPath: "/42",
		},
		"Category should be escaped in the path.": {
			op:      model.ProductsByCategory("home & garden"),
			expKind: model.OperationProductsByCategory,
			expPath: "/category/home%20&%20garden",
		},
		"Category paged should set paging params.": {
			op:        model.ProductsByCategoryPaged("phones", 2, 5),
			expKind:   model.OperationProductsByCategoryPaged,
			expPath:   "/category/phones/paged",
			expParams: "page=2&size=5",
		},
		"Price range should set min and max.": {
			op:        model.ProductsByPriceRange(10, 99.5),
			expKind:   model.OperationProductsByPriceRange,
			expPath:   "/price",
			expParams: "max=99.5&min=10",
		},
		"Price range paged should set min, max and paging.": {
			op:        model.ProductsByPriceRangePaged(1.25, 2, 0, 20),
			expKind:   model.OperationProductsByPriceRangePaged,
			expPath:   "/price/paged",
			expParams: "max=2&min=1.25&page=0&size=20",
		},
		"Min stock should set min.": {
			op:        model.ProductsByMinStock(3),
			expKind:   model.OperationProductsByMinStock,
			expPath:   "/stock",
			expParams: "min=3",
		},
		"Min stock paged should set min and paging.": {
			op:        model.ProductsByMinStockPaged(3, 1, 10),
			expKind:   model.OperationProductsByMinStockPaged,
			expPath:   "/stock/paged",
			expParams: "min=3&page=1&size=10",
		},
		"Search should set the keyword.": {
			op:        model.SearchProducts("phone"),
			expKind:   model.OperationSearchProducts,
			expPath:   "/search",
			expParams: "keyword=phone",
		},
		"Search paged should set the keyword and paging.": {
			op:        model.SearchProductsPaged("phone", 0, 10),
			expKind:   model.OperationSearchProductsPaged,
			expPath:   "/search/paged",
			expParams: "keyword=phone&page=0&size=10",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			assert.Equal(test.expKind, test.op.Kind)
			assert.Equal(test.expPath, test.op.Path)
			assert.Equal(test.expParams, test.op.Params.Encode())
			assert.NoError(test.op.Validate())
		})
	}
}

func TestOperationValidate(t *testing.T) {
	tests := map[string]struct {
		op     model.Operation
		expErr bool
	}{
		"Negative page should fail.": {
			op:     model.PagedProducts(-1, 10),
			expErr: true,
		},
		"Zero size should fail.": {
			op:     model.SearchProductsPaged("phone", 0, 0),
			expErr: true,
		},
		"Empty keyword should fail.": {
			op:     model.SearchProducts(""),
			expErr: true,
		},
		"Inverted price range should fail.": {
			op:     model.ProductsByPriceRange(100, 10),
			expErr: true,
		},
		"Equal price range should not fail.": {
			op:     model.ProductsByPriceRange(10, 10),
			expErr: false,
		},
		"Missing kind should fail.": {
			op:     model.Operation{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.op.Validate()

			if test.expErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
