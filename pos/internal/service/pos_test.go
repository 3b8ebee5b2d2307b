package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframex/pos/cart"
	"github.com/inframex/pos/catalog"
	inErrors "github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/pos/pkg/request"
)

func seededService() *PosService {
	return NewPosService(catalog.NewMemoryCatalog(catalog.SeedProducts()...))
}

func TestPosService_OpenCart(t *testing.T) {
	c := context.Background()
	svc := seededService()

	opened := svc.OpenCart(c)
	assert.NotEqual(t, uuid.Nil, opened.ID)
	assert.Empty(t, opened.Lines)
	assert.Equal(t, "0", opened.Total.String())

	found, err := svc.FindCart(c, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, found.ID)
}

func TestPosService_FindCart_UnknownCart(t *testing.T) {
	c := context.Background()
	svc := seededService()

	_, err := svc.FindCart(c, uuid.New())
	assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
}

func TestPosService_AddItem(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	updated, err := svc.AddItem(c, opened.ID, request.AddItem{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, int64(1), updated.Lines[0].ProductID)
	assert.Equal(t, int32(1), updated.Lines[0].Quantity)
	assert.Equal(t, "45.50", updated.Total.StringFixed(2))
	assert.False(t, updated.Clamped)

	updated, err = svc.AddItem(c, opened.ID, request.AddItem{ProductID: 1})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, int32(2), updated.Lines[0].Quantity)
	assert.Equal(t, "91.00", updated.Total.StringFixed(2))
}

func TestPosService_AddItem_UnknownCart(t *testing.T) {
	c := context.Background()
	svc := seededService()

	_, err := svc.AddItem(c, uuid.New(), request.AddItem{ProductID: 1})
	assert.ErrorIs(t, err, inErrors.ErrCartNotFound)
}

func TestPosService_SetQuantity_Clamps(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	_, err := svc.AddItem(c, opened.ID, request.AddItem{ProductID: 5})
	require.NoError(t, err)

	// Grava has 12 in stock, asking for 50 clamps there.
	updated, err := svc.SetQuantity(c, opened.ID, 5, request.SetQuantity{Quantity: 50})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, int32(12), updated.Lines[0].Quantity)
	assert.True(t, updated.Clamped)
}

func TestPosService_RemoveItemAndClear(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	_, err := svc.AddItem(c, opened.ID, request.AddItem{ProductID: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(c, opened.ID, request.AddItem{ProductID: 2})
	require.NoError(t, err)

	updated, err := svc.RemoveItem(c, opened.ID, 1)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, int64(2), updated.Lines[0].ProductID)

	cleared, err := svc.ClearCart(c, opened.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
}

func TestPosService_Checkout(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	_, err := svc.AddItem(c, opened.ID, request.AddItem{ProductID: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(c, opened.ID, request.AddItem{ProductID: 1})
	require.NoError(t, err)

	receipt, err := svc.Checkout(c, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, receipt.CartID)
	assert.Equal(t, "91.00", receipt.Total.StringFixed(2))
	require.Len(t, receipt.Lines, 1)
	assert.Equal(t, int32(2), receipt.Lines[0].Quantity)

	// The cart is empty again and keeps its last receipt.
	found, err := svc.FindCart(c, opened.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Lines)

	last, err := svc.LastReceipt(c, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, last.ID)
}

func TestPosService_Checkout_EmptyCart(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	_, err := svc.Checkout(c, opened.ID)
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestPosService_Checkout_ConcurrentCartsCompeteForStock(t *testing.T) {
	c := context.Background()
	svc := seededService()

	// Grava has 12 in stock; two carts want 10 each, only one commit fits.
	first := svc.OpenCart(c)
	second := svc.OpenCart(c)
	for _, cartID := range []uuid.UUID{first.ID, second.ID} {
		_, err := svc.AddItem(c, cartID, request.AddItem{ProductID: 5})
		require.NoError(t, err)
		_, err = svc.SetQuantity(c, cartID, 5, request.SetQuantity{Quantity: 10})
		require.NoError(t, err)
	}

	_, err := svc.Checkout(c, first.ID)
	require.NoError(t, err)

	_, err = svc.Checkout(c, second.ID)
	require.Error(t, err)
	commitErr := &cart.CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 1)
	assert.Equal(t, int64(5), commitErr.Violations[0].ProductID)
	assert.Equal(t, int32(10), commitErr.Violations[0].Requested)
	assert.Equal(t, int32(2), commitErr.Violations[0].Available)

	// The losing cart keeps its line for correction.
	found, err := svc.FindCart(c, second.ID)
	require.NoError(t, err)
	require.Len(t, found.Lines, 1)
	assert.Equal(t, int32(10), found.Lines[0].Quantity)
}

func TestPosService_LastReceipt_NoneYet(t *testing.T) {
	c := context.Background()
	svc := seededService()
	opened := svc.OpenCart(c)

	_, err := svc.LastReceipt(c, opened.ID)
	assert.ErrorIs(t, err, inErrors.ErrReceiptNotFound)
}

func TestPosService_ProductLookups(t *testing.T) {
	c := context.Background()
	svc := seededService()

	product, err := svc.FindProductById(c, 3)
	require.NoError(t, err)
	assert.Equal(t, "VAR-3-8", product.SKU)

	_, err = svc.FindProductById(c, 99999)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

	product, err = svc.FindProductByBarcode(c, "7501234567893")
	require.NoError(t, err)
	assert.Equal(t, "ARENA-M3", product.SKU)

	_, err = svc.FindProductByBarcode(c, "0000000000000")
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}

func TestPosService_ProductLifecycle(t *testing.T) {
	c := context.Background()
	svc := seededService()

	inserted, err := svc.InsertProduct(c, request.Product{
		SKU:      "MADERA-2X4",
		Name:     "Polin de madera 2x4",
		Price:    decimal.RequireFromString("85.00"),
		Stock:    40,
		MinStock: 10,
		Unit:     "pieza",
		Barcode:  "7501234567895",
		Category: "Madera",
	})
	require.NoError(t, err)
	assert.NotZero(t, inserted.ID)
	assert.Equal(t, int32(40), inserted.Stock)

	newStock := int32(4)
	updated, err := svc.UpdateProduct(c, inserted.ID, request.UpdateProduct{Stock: &newStock})
	require.NoError(t, err)
	assert.Equal(t, int32(4), updated.Stock)

	lowStock, err := svc.LowStockProducts(c)
	require.NoError(t, err)
	require.Len(t, lowStock, 1)
	assert.Equal(t, "MADERA-2X4", lowStock[0].SKU)

	require.NoError(t, svc.RemoveProduct(c, inserted.ID))
	_, err = svc.FindProductById(c, inserted.ID)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)

	err = svc.RemoveProduct(c, 99999)
	assert.ErrorIs(t, err, inErrors.ErrProductNotFound)
}
