package request

import "github.com/shopspring/decimal"

type AddItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type SetQuantity struct {
	Quantity int32 `json:"quantity" validate:"gte=0"`
}

type Product struct {
	SKU         string          `json:"sku"         validate:"required"`
	Name        string          `json:"name"        validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"       validate:"required"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int32           `json:"stock"       validate:"gte=0"`
	MinStock    int32           `json:"minStock"    validate:"gte=0"`
	Unit        string          `json:"unit"        validate:"required"`
	Barcode     string          `json:"barcode"     validate:"required"`
	Category    string          `json:"category"    validate:"required"`
}

type UpdateProduct struct {
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Cost        *decimal.Decimal `json:"cost"`
	Stock       *int32           `json:"stock"       validate:"omitempty,gte=0"`
	MinStock    *int32           `json:"minStock"    validate:"omitempty,gte=0"`
	Unit        *string          `json:"unit"`
	Barcode     *string          `json:"barcode"`
	Category    *string          `json:"category"`
	IsActive    *bool            `json:"isActive"`
}
