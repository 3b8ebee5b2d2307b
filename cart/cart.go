// Package cart implements the point-of-sale transaction engine: cart state
// against a live catalog, pricing, and the checkout commit.
package cart

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inframex/pos/catalog"
	"github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/internal/otel"
)

// Line is one product in the cart. Name and UnitPrice are snapshots taken
// when the product was first added; later catalog price changes do not touch
// an open cart.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int32           `json:"quantity"`
}

// Cart holds the line items of one in-progress sale. A cart belongs to a
// single till session and is not safe for concurrent use; the catalog behind
// it is the shared resource.
//
// Invariants: one line per product, insertion order preserved, quantity
// always positive and never above the stock known at the last mutation.
type Cart struct {
	catalog catalog.Reader
	lines   []Line
}

func New(reader catalog.Reader) *Cart {
	return &Cart{catalog: reader, lines: []Line{}}
}

func (crt *Cart) findLine(productID int64) int {
	for i := range crt.lines {
		if crt.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem puts one unit of the product into the cart, merging into the
// existing line when the product is already present. The returned bool
// reports that the quantity was clamped to the available stock instead of
// incremented. Inactive, unknown and out-of-stock products are rejected with
// ErrStockUnavailable and the cart stays unchanged.
func (crt *Cart) AddItem(c context.Context, productID int64) (Line, bool, error) {
	c, span := otel.Tracer.Start(c, "Cart AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Cart AddItem").
		Int64(log.KeyProductID, productID).
		Logger()

	logger.Trace().Msg("finding product in catalog")
	product, found, err := crt.catalog.FindById(c, productID)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%d with error=%w", productID, err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Line{}, false, err
	}
	if !found || !product.IsActive || product.Stock <= 0 {
		err = errors.ErrStockUnavailable
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Line{}, false, err
	}

	i := crt.findLine(productID)
	if i < 0 {
		line := Line{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  1,
		}
		crt.lines = append(crt.lines, line)
		logger.Info().Int32(log.KeyQuantity, 1).Msg("added new cart line")
		return line, false, nil
	}

	quantity := crt.lines[i].Quantity + 1
	clamped := false
	if quantity > product.Stock {
		quantity = product.Stock
		clamped = true
	}
	crt.lines[i].Quantity = quantity
	logger.Info().
		Int32(log.KeyQuantity, quantity).
		Bool(log.KeyClamped, clamped).
		Msg("merged cart line")
	return crt.lines[i], clamped, nil
}

// SetQuantity sets the quantity of an existing line. Zero and negative
// quantities remove the line. Quantities above the product's current stock
// are clamped to it, reported through the bool; a clamp down to zero removes
// the line. Fails with ErrLineNotFound when the product is not in the cart
// and with ErrProductGone when the product vanished from the catalog.
func (crt *Cart) SetQuantity(
	c context.Context,
	productID int64,
	quantity int32,
) (Line, bool, error) {
	c, span := otel.Tracer.Start(c, "Cart SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Cart SetQuantity").
		Int64(log.KeyProductID, productID).
		Int32(log.KeyQuantity, quantity).
		Logger()

	if quantity <= 0 {
		crt.RemoveItem(productID)
		logger.Info().Msg("removed cart line")
		return Line{}, false, nil
	}

	i := crt.findLine(productID)
	if i < 0 {
		err := errors.ErrLineNotFound
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Line{}, false, err
	}

	logger.Trace().Msg("finding product in catalog")
	product, found, err := crt.catalog.FindById(c, productID)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%d with error=%w", productID, err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Line{}, false, err
	}
	if !found || !product.IsActive {
		err = errors.ErrProductGone
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Line{}, false, err
	}

	clamped := false
	if quantity > product.Stock {
		quantity = product.Stock
		clamped = true
	}
	if quantity <= 0 {
		crt.RemoveItem(productID)
		logger.Info().Bool(log.KeyClamped, true).Msg("stock exhausted, removed cart line")
		return Line{}, true, nil
	}
	crt.lines[i].Quantity = quantity
	logger.Info().
		Int32(log.KeyQuantity, quantity).
		Bool(log.KeyClamped, clamped).
		Msg("set cart line quantity")
	return crt.lines[i], clamped, nil
}

// RemoveItem drops the line for the product. Removing an absent line is a
// no-op.
func (crt *Cart) RemoveItem(productID int64) {
	i := crt.findLine(productID)
	if i < 0 {
		return
	}
	crt.lines = append(crt.lines[:i], crt.lines[i+1:]...)
}

func (crt *Cart) Clear() {
	crt.lines = crt.lines[:0]
}

// Lines returns a copy of the cart lines in insertion order; mutating it
// does not touch the cart.
func (crt *Cart) Lines() []Line {
	lines := make([]Line, len(crt.lines))
	copy(lines, crt.lines)
	return lines
}

func (crt *Cart) Len() int {
	return len(crt.lines)
}
