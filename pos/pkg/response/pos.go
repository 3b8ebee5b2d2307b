package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inframex/pos/cart"
	"github.com/inframex/pos/catalog"
)

type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	MinStock    int32           `json:"minStock"`
	Unit        string          `json:"unit"`
	Barcode     string          `json:"barcode"`
	Category    string          `json:"category"`
}

type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int32           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Cart struct {
	ID      uuid.UUID       `json:"id"`
	Lines   []Line          `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Clamped bool            `json:"clamped,omitempty"`
}

type Receipt struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cartId"`
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

type Violation struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Requested int32  `json:"requested"`
	Available int32  `json:"available"`
	Reason    string `json:"reason"`
}

func NewProduct(p catalog.Product) Product {
	return Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Unit:        p.Unit,
		Barcode:     p.Barcode,
		Category:    p.Category,
	}
}

func NewProducts(products []catalog.Product) []Product {
	result := make([]Product, len(products))
	for i, p := range products {
		result[i] = NewProduct(p)
	}
	return result
}

func NewLines(lines []cart.Line) []Line {
	result := make([]Line, len(lines))
	for i, line := range lines {
		result[i] = Line{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: cart.LineTotal(line),
		}
	}
	return result
}

func NewCart(id uuid.UUID, lines []cart.Line, clamped bool) Cart {
	return Cart{
		ID:      id,
		Lines:   NewLines(lines),
		Total:   cart.CartTotal(lines),
		Clamped: clamped,
	}
}

func NewReceipt(cartID uuid.UUID, receipt cart.Receipt) Receipt {
	return Receipt{
		ID:        receipt.ID,
		CartID:    cartID,
		Lines:     NewLines(receipt.Lines),
		Total:     receipt.Total,
		Timestamp: receipt.Timestamp,
	}
}

func NewViolations(violations []cart.LineViolation) []Violation {
	result := make([]Violation, len(violations))
	for i, v := range violations {
		reason := ""
		if v.Err != nil {
			reason = v.Err.Error()
		}
		result[i] = Violation{
			ProductID: v.ProductID,
			Name:      v.Name,
			Requested: v.Requested,
			Available: v.Available,
			Reason:    reason,
		}
	}
	return result
}
