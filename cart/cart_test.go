package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframex/pos/catalog"
	inErrors "github.com/inframex/pos/internal/errors"
)

func testCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(
		catalog.Product{
			SKU:      "TUBO-50-PVC",
			Name:     "Tubo PVC 50mm",
			Price:    decimal.RequireFromString("45.50"),
			Stock:    150,
			MinStock: 20,
			Unit:     "pieza",
			Barcode:  "7501031311309",
			Category: "Tuberia",
			IsActive: true,
		},
		catalog.Product{
			SKU:      "ARENA-M3",
			Name:     "Arena de rio m3",
			Price:    decimal.RequireFromString("450.00"),
			Stock:    3,
			MinStock: 5,
			Unit:     "m3",
			Barcode:  "7501031311347",
			Category: "Agregados",
			IsActive: true,
		},
		catalog.Product{
			SKU:      "VIGA-IPR",
			Name:     "Viga IPR 6m",
			Price:    decimal.RequireFromString("1250.00"),
			Stock:    0,
			MinStock: 2,
			Unit:     "pieza",
			Barcode:  "7501031311392",
			Category: "Acero",
			IsActive: true,
		},
	)
}

func TestCart_AddItem_NewLine(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	line, clamped, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	assert.False(t, clamped)
	assert.Equal(t, int64(1), line.ProductID)
	assert.Equal(t, "Tubo PVC 50mm", line.Name)
	assert.Equal(t, int32(1), line.Quantity)
	assert.True(t, decimal.RequireFromString("45.50").Equal(line.UnitPrice))
	assert.Equal(t, 1, crt.Len())
}

func TestCart_AddItem_MergesIntoExistingLine(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	line, clamped, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	assert.False(t, clamped)
	assert.Equal(t, int32(2), line.Quantity)
	assert.Equal(t, 1, crt.Len())
}

func TestCart_AddItem_OutOfStock(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 3)
	assert.ErrorIs(t, err, inErrors.ErrStockUnavailable)
	assert.Equal(t, 0, crt.Len())
}

func TestCart_AddItem_UnknownProduct(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 999)
	assert.ErrorIs(t, err, inErrors.ErrStockUnavailable)
}

func TestCart_AddItem_ClampsAtStock(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	for range 3 {
		_, _, err := crt.AddItem(c, 2)
		require.NoError(t, err)
	}

	line, clamped, err := crt.AddItem(c, 2)
	require.NoError(t, err)

	assert.True(t, clamped)
	assert.Equal(t, int32(3), line.Quantity)
}

func TestCart_SetQuantity(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	line, clamped, err := crt.SetQuantity(c, 1, 10)
	require.NoError(t, err)

	assert.False(t, clamped)
	assert.Equal(t, int32(10), line.Quantity)
}

func TestCart_SetQuantity_ClampsAtStock(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 2)
	require.NoError(t, err)

	line, clamped, err := crt.SetQuantity(c, 2, 50)
	require.NoError(t, err)

	assert.True(t, clamped)
	assert.Equal(t, int32(3), line.Quantity)
}

func TestCart_SetQuantity_ZeroRemovesLine(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	_, clamped, err := crt.SetQuantity(c, 1, 0)
	require.NoError(t, err)

	assert.False(t, clamped)
	assert.Equal(t, 0, crt.Len())
}

func TestCart_SetQuantity_LineNotFound(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.SetQuantity(c, 1, 2)
	assert.ErrorIs(t, err, inErrors.ErrLineNotFound)
}

func TestCart_SetQuantity_ProductGone(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	removed, err := cat.Remove(c, 1)
	require.NoError(t, err)
	require.True(t, removed)

	_, _, err = crt.SetQuantity(c, 1, 2)
	assert.ErrorIs(t, err, inErrors.ErrProductGone)
}

func TestCart_RemoveItem_Idempotent(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	crt.RemoveItem(1)
	assert.Equal(t, 0, crt.Len())

	crt.RemoveItem(1)
	crt.RemoveItem(999)
	assert.Equal(t, 0, crt.Len())
}

func TestCart_Clear(t *testing.T) {
	c := context.Background()
	crt := New(testCatalog())

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 2)
	require.NoError(t, err)
	require.Equal(t, 2, crt.Len())

	crt.Clear()
	assert.Equal(t, 0, crt.Len())
	assert.Empty(t, crt.Lines())
}

func TestCart_PriceIsSnapshottedAtAddTime(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("99.99")
	_, found, err := cat.Update(c, 1, catalog.ProductPatch{Price: &newPrice})
	require.NoError(t, err)
	require.True(t, found)

	lines := crt.Lines()
	require.Len(t, lines, 1)
	assert.True(t, decimal.RequireFromString("45.50").Equal(lines[0].UnitPrice))
}
