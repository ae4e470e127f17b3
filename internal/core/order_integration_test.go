package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiv-erp/internal/core"
)

func TestPurchaseOrder_CreatePricesFromProduct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()

	po, err := svc.po.Create(ctx, core.CreateOrderInput{
		CounterpartyID: vendorID,
		Items:          []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("2"), TaxID: intPtr(igstID)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "PO00001", po.Number)
	assert.Equal(t, core.OrderDraft, po.Status)
	assert.Equal(t, "Timber Traders", po.CounterpartyName)
	assert.True(t, po.UntaxedAmount.Equal(dec("200")), "untaxed %s", po.UntaxedAmount)
	assert.True(t, po.TaxAmount.Equal(dec("36")))
	assert.True(t, po.TotalAmount.Equal(dec("236")))

	require.Len(t, po.Items, 1)
	line := po.Items[0]
	assert.Equal(t, "Office Chair", line.ProductName)
	assert.Equal(t, "9403", line.HSNCode)
	require.NotNil(t, line.UnitPrice)
	assert.True(t, line.UnitPrice.Equal(dec("100")), "purchase price is used")
	require.NotNil(t, line.LineTotal)
	assert.True(t, line.LineTotal.Equal(dec("236")))
}

func TestPurchaseOrder_CounterpartyRules(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()
	items := []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("1")}}

	_, err := svc.po.Create(ctx, core.CreateOrderInput{CounterpartyID: customerID, Items: items})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "customer cannot be a vendor, got %v", err)
	assert.Equal(t, "vendor_id", core.FieldOf(err))

	_, err = svc.po.Create(ctx, core.CreateOrderInput{Items: items})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "vendor is required, got %v", err)

	_, err = svc.po.Create(ctx, core.CreateOrderInput{CounterpartyID: 999, Items: items})
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)

	_, err = svc.po.Create(ctx, core.CreateOrderInput{CounterpartyID: vendorID})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "items are required, got %v", err)

	_, err = svc.po.Create(ctx, core.CreateOrderInput{CounterpartyID: bothID, Items: items})
	assert.NoError(t, err, "a Both contact can sell")
}

func TestPurchaseOrder_BillLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()

	po, err := svc.po.Create(ctx, core.CreateOrderInput{
		CounterpartyID: vendorID,
		Items:          []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("2"), TaxID: intPtr(igstID)}},
	})
	require.NoError(t, err)

	_, err = svc.bills.CreateFromOrder(ctx, po.ID, core.CreateFromOrderInput{})
	assert.True(t, errors.Is(err, core.ErrInvalidState), "draft orders cannot be billed, got %v", err)

	po, err = svc.po.Confirm(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderConfirmed, po.Status)

	_, err = svc.po.Update(ctx, po.ID, core.UpdateOrderInput{Reference: strPtr("late edit")})
	assert.True(t, errors.Is(err, core.ErrInvalidState), "confirmed orders are read-only, got %v", err)

	vb, err := svc.bills.CreateFromOrder(ctx, po.ID, core.CreateFromOrderInput{})
	require.NoError(t, err)
	assert.Equal(t, core.BillingConfirmed, vb.Status)
	assert.Regexp(t, `^Bill/\d{4}/0001$`, vb.Number)
	assert.True(t, vb.TotalAmount.Equal(dec("236")))
	assert.True(t, vb.AmountDue.Equal(dec("236")))
	require.NotNil(t, vb.Reference)
	assert.Equal(t, po.Number, *vb.Reference)
	require.NotNil(t, vb.SourceOrderID)
	assert.Equal(t, po.ID, *vb.SourceOrderID)
	require.Len(t, vb.Items, 1)
	require.NotNil(t, vb.Items[0].AccountID)
	assert.Equal(t, expenseAcctID, *vb.Items[0].AccountID)

	po, err = svc.po.Get(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderBilled, po.Status)

	_, err = svc.po.Confirm(ctx, po.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidState), "got %v", err)
	_, err = svc.bills.CreateFromOrder(ctx, po.ID, core.CreateFromOrderInput{})
	assert.True(t, errors.Is(err, core.ErrInvalidState), "an order is billed once, got %v", err)
}

func TestPurchaseOrder_RevertAndCancel(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()

	po, err := svc.po.Create(ctx, core.CreateOrderInput{
		CounterpartyID: vendorID,
		Items:          []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = svc.po.Confirm(ctx, po.ID)
	require.NoError(t, err)
	po, err = svc.po.Cancel(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderCancelled, po.Status)

	po, err = svc.po.RevertToDraft(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderDraft, po.Status)

	po, err = svc.po.Update(ctx, po.ID, core.UpdateOrderInput{
		Items: []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("3"), TaxID: intPtr(igstID)}},
	})
	require.NoError(t, err)
	assert.True(t, po.TotalAmount.Equal(dec("354")), "repriced total %s", po.TotalAmount)
}

func TestSalesOrder_CannotCancelAfterConfirm(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()

	so, err := svc.so.Create(ctx, core.CreateOrderInput{
		CounterpartyID: customerID,
		Items:          []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("1"), TaxIDs: []int{cgstID, sgstID}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SO00001", so.Number)
	assert.True(t, so.TotalAmount.Equal(dec("177")), "sales price 150 plus 18%%, got %s", so.TotalAmount)

	_, err = svc.so.Confirm(ctx, so.ID)
	require.NoError(t, err)

	_, err = svc.so.Cancel(ctx, so.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidState), "got %v", err)
	_, err = svc.so.RevertToDraft(ctx, so.ID)
	assert.True(t, errors.Is(err, core.ErrInvalidState), "got %v", err)

	got, err := svc.so.Get(ctx, so.ID)
	require.NoError(t, err)
	assert.Equal(t, core.OrderConfirmed, got.Status)
}

func TestOrder_MissingProductPolicy(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	in := core.CreateOrderInput{
		CounterpartyID: vendorID,
		Items:          []core.OrderLine{{ProductID: intPtr(404), Quantity: dec("1")}},
	}

	t.Run("degrade", func(t *testing.T) {
		svc := newServices(pool, core.EnrichDegrade)
		po, err := svc.po.Create(ctx, in)
		require.NoError(t, err)
		assert.True(t, po.TotalAmount.IsZero())
		assert.NotEmpty(t, po.Warnings)
	})

	t.Run("strict", func(t *testing.T) {
		svc := newServices(pool, core.EnrichStrict)
		_, err := svc.po.Create(ctx, in)
		assert.True(t, errors.Is(err, core.ErrDependencyFailure), "got %v", err)
	})
}

func TestOrder_ListFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	svc := newServices(pool, core.EnrichDegrade)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.po.Create(ctx, core.CreateOrderInput{
			CounterpartyID: vendorID,
			Reference:      "batch",
			Items:          []core.OrderLine{{ProductID: intPtr(productID), Quantity: dec("1")}},
		})
		require.NoError(t, err)
	}
	_, err := svc.po.Confirm(ctx, 1)
	require.NoError(t, err)

	page, err := svc.po.List(ctx, core.ListFilter{Status: string(core.OrderDraft), Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Len(t, page.Items, 1)

	page, err = svc.po.List(ctx, core.ListFilter{Query: "po00003"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "PO00003", page.Items[0].Number)

	page, err = svc.po.List(ctx, core.ListFilter{Query: "timber"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func strPtr(s string) *string { return &s }
