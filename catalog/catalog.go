// Package catalog is the product lookup and stock mutation contract the
// point-of-sale engine depends on. The catalog is the single source of truth
// for price and stock; the cart re-reads it instead of trusting snapshots.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int32           `json:"stock"`
	MinStock    int32           `json:"minStock"`
	Unit        string          `json:"unit"`
	Barcode     string          `json:"barcode"`
	Category    string          `json:"category"`
	IsActive    bool            `json:"isActive"`
}

// SearchQuery filters active products. Search matches name, sku and barcode,
// Category matches exactly. Empty fields match everything.
type SearchQuery struct {
	Search   string
	Category string
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	SKU         *string
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Cost        *decimal.Decimal
	Stock       *int32
	MinStock    *int32
	Unit        *string
	Barcode     *string
	Category    *string
	IsActive    *bool
}

// Reader is the read-only view of the catalog consumed by the cart.
// Lookups report absence through the bool, never through an error.
type Reader interface {
	FindById(c context.Context, id int64) (Product, bool, error)
	FindByBarcode(c context.Context, barcode string) (Product, bool, error)
	Search(c context.Context, query SearchQuery) ([]Product, error)
	FindLowStock(c context.Context) ([]Product, error)
}

type Catalog interface {
	Reader

	Insert(c context.Context, param Product) (Product, error)
	Update(c context.Context, id int64, patch ProductPatch) (Product, bool, error)
	Remove(c context.Context, id int64) (bool, error)

	// DecrementStock applies an atomic conditional decrement: it fails with
	// ErrInsufficientStock when the product holds less than amount, leaving
	// stock untouched. Only checkout commit calls it.
	DecrementStock(c context.Context, id int64, amount int32) error

	// RestoreStock returns previously decremented stock. Checkout uses it to
	// compensate applied decrements when a later line fails its decrement.
	RestoreStock(c context.Context, id int64, amount int32) error
}
