package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inframex/pos/catalog"
	inErrors "github.com/inframex/pos/internal/errors"
)

func TestCheckout_Commit_Success(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 2)
	require.NoError(t, err)

	receipt, err := NewCheckout().Commit(c, crt, cat)
	require.NoError(t, err)

	assert.NotEqual(t, [16]byte{}, [16]byte(receipt.ID))
	assert.Len(t, receipt.Lines, 2)
	assert.Equal(t, "541.00", receipt.Total.StringFixed(2))
	assert.False(t, receipt.Timestamp.IsZero())

	// Cart is emptied and stock decremented.
	assert.Equal(t, 0, crt.Len())
	product, found, err := cat.FindById(c, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(148), product.Stock)
	product, found, err = cat.FindById(c, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(2), product.Stock)
}

func TestCheckout_Commit_EmptyCart(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, err := NewCheckout().Commit(c, crt, cat)
	assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
}

func TestCheckout_Commit_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 2)
	require.NoError(t, err)
	_, _, err = crt.SetQuantity(c, 2, 3)
	require.NoError(t, err)

	// Stock for product 2 drops below the cart quantity after the lines
	// were added.
	stock := int32(1)
	_, found, err := cat.Update(c, 2, catalog.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	require.True(t, found)

	_, err = NewCheckout().Commit(c, crt, cat)
	require.Error(t, err)

	commitErr := &CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 1)
	violation := commitErr.Violations[0]
	assert.Equal(t, int64(2), violation.ProductID)
	assert.Equal(t, "Arena de rio m3", violation.Name)
	assert.Equal(t, int32(3), violation.Requested)
	assert.Equal(t, int32(1), violation.Available)
	assert.ErrorIs(t, violation.Err, inErrors.ErrInsufficientStock)

	// Nothing applied: cart keeps its lines and no stock moved.
	assert.Equal(t, 2, crt.Len())
	product, found, err := cat.FindById(c, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(150), product.Stock)
}

func TestCheckout_Commit_StockSoldElsewhereBeforeCommit(t *testing.T) {
	c := context.Background()
	cat := catalog.NewMemoryCatalog(catalog.Product{
		SKU:      "GRAVA-M3",
		Name:     "Grava triturada 3/4\"",
		Price:    decimal.RequireFromString("520.00"),
		Stock:    12,
		Unit:     "m3",
		IsActive: true,
	})
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.SetQuantity(c, 1, 12)
	require.NoError(t, err)

	// Another till sells 2 units before this cart commits.
	require.NoError(t, cat.DecrementStock(c, 1, 2))

	_, err = NewCheckout().Commit(c, crt, cat)
	require.Error(t, err)

	commitErr := &CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 1)
	assert.Equal(t, int32(12), commitErr.Violations[0].Requested)
	assert.Equal(t, int32(10), commitErr.Violations[0].Available)
	assert.ErrorIs(t, commitErr.Violations[0].Err, inErrors.ErrInsufficientStock)

	// The cart keeps its line for correction and stock is untouched by the
	// failed commit.
	assert.Equal(t, 1, crt.Len())
	product, found, err := cat.FindById(c, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(10), product.Stock)
}

func TestCheckout_Commit_ReportsEveryViolatingLine(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 2)
	require.NoError(t, err)

	zero := int32(0)
	_, found, err := cat.Update(c, 1, catalog.ProductPatch{Stock: &zero})
	require.NoError(t, err)
	require.True(t, found)

	removed, err := cat.Remove(c, 2)
	require.NoError(t, err)
	require.True(t, removed)

	_, err = NewCheckout().Commit(c, crt, cat)
	require.Error(t, err)

	commitErr := &CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 2)
	assert.ErrorIs(t, commitErr.Violations[0].Err, inErrors.ErrInsufficientStock)
	assert.ErrorIs(t, commitErr.Violations[1].Err, inErrors.ErrProductGone)
	assert.Equal(t, int32(0), commitErr.Violations[1].Available)
}

func TestCheckout_Commit_GoneProductViolation(t *testing.T) {
	c := context.Background()
	cat := testCatalog()
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	removed, err := cat.Remove(c, 1)
	require.NoError(t, err)
	require.True(t, removed)

	_, err = NewCheckout().Commit(c, crt, cat)
	require.Error(t, err)

	commitErr := &CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 1)
	assert.ErrorIs(t, commitErr.Violations[0].Err, inErrors.ErrProductGone)
	assert.Equal(t, 1, crt.Len())
}

// raceCatalog shrinks one product's stock right after it has been validated,
// simulating another till winning the stock between validation and decrement.
type raceCatalog struct {
	*catalog.MemoryCatalog
	once     sync.Once
	victimID int64
	steal    int32
}

func (r *raceCatalog) DecrementStock(c context.Context, id int64, amount int32) error {
	r.once.Do(func() {
		_ = r.MemoryCatalog.DecrementStock(c, r.victimID, r.steal)
	})
	return r.MemoryCatalog.DecrementStock(c, id, amount)
}

func TestCheckout_Commit_RestoresAppliedDecrementsOnRace(t *testing.T) {
	c := context.Background()
	cat := &raceCatalog{
		MemoryCatalog: testCatalog(),
		victimID:      2,
		steal:         3,
	}
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)
	_, _, err = crt.AddItem(c, 2)
	require.NoError(t, err)
	_, _, err = crt.SetQuantity(c, 2, 2)
	require.NoError(t, err)

	_, err = NewCheckout().Commit(c, crt, cat)
	require.Error(t, err)

	commitErr := &CommitError{}
	require.ErrorAs(t, err, &commitErr)
	require.Len(t, commitErr.Violations, 1)
	assert.Equal(t, int64(2), commitErr.Violations[0].ProductID)
	assert.ErrorIs(t, commitErr.Violations[0].Err, inErrors.ErrInsufficientStock)

	// The decrement already applied to product 1 is restored.
	product, found, err := cat.FindById(c, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int32(150), product.Stock)
	assert.Equal(t, 2, crt.Len())
}

// blockingCatalog parks the first DecrementStock call until released so a
// second Commit can be attempted while the first is outstanding.
type blockingCatalog struct {
	*catalog.MemoryCatalog
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingCatalog) DecrementStock(c context.Context, id int64, amount int32) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.MemoryCatalog.DecrementStock(c, id, amount)
}

func TestCheckout_Commit_SecondCallFailsFastWhileCommitting(t *testing.T) {
	c := context.Background()
	cat := &blockingCatalog{
		MemoryCatalog: testCatalog(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	crt := New(cat)

	_, _, err := crt.AddItem(c, 1)
	require.NoError(t, err)

	checkout := NewCheckout()
	done := make(chan error, 1)
	go func() {
		_, commitErr := checkout.Commit(c, crt, cat)
		done <- commitErr
	}()

	<-cat.entered
	_, err = checkout.Commit(c, crt, cat)
	assert.ErrorIs(t, err, inErrors.ErrCommitInProgress)

	close(cat.release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, crt.Len())
}
