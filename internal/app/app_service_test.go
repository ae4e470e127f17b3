package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiv-erp/internal/core"
)

func TestAppService_UnknownKinds(t *testing.T) {
	svc := NewAppService(Services{})
	ctx := context.Background()

	_, err := svc.GetOrder(ctx, core.OrderKind("rental"), 1)
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
	assert.Equal(t, "kind", core.FieldOf(err))

	_, err = svc.GetBillingDocument(ctx, core.BillingKind("credit_note"), 1)
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
}

func TestAppService_BadDatesAreInvalidInput(t *testing.T) {
	svc := NewAppService(Services{
		Orders: map[core.OrderKind]core.OrderService{core.PurchaseOrderKind: nil},
	})

	_, err := svc.CreateOrder(context.Background(), core.PurchaseOrderKind, CreateOrderRequest{Date: "15/06/2025"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
	assert.Equal(t, "date", core.FieldOf(err))
}

func TestAppService_HSN(t *testing.T) {
	svc := NewAppService(Services{})
	ctx := context.Background()

	res, err := svc.LookupHSN(ctx, " 9403 ")
	require.NoError(t, err)
	assert.Equal(t, "9403", res.Rate.HSNCode)
	assert.Equal(t, "Furniture", res.Rate.Category)
	assert.Equal(t, "prefix", res.Suggested.Source)
	assert.True(t, res.Validation.Valid)

	_, err = svc.LookupHSN(ctx, "94x3")
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)

	rates, err := svc.SearchHSN(ctx, "furniture", false, 5)
	require.NoError(t, err)
	assert.Len(t, rates, 1)

	_, err = svc.SearchHSN(ctx, "  ", false, 5)
	assert.Equal(t, "q", core.FieldOf(err))
}

func TestAppService_CalculateTaxNeedsItems(t *testing.T) {
	svc := NewAppService(Services{})

	_, err := svc.CalculateTax(context.Background(), CalculateTaxRequest{Kind: "purchase"})
	assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
	assert.Equal(t, "items", core.FieldOf(err))
}

type periodRecorder struct {
	core.ReportingService
	periods []string
}

func (r *periodRecorder) DashboardSummary(_ context.Context, period string) (*core.Dashboard, error) {
	r.periods = append(r.periods, period)
	return &core.Dashboard{Period: period}, nil
}

func TestAppService_DashboardPeriod(t *testing.T) {
	rec := &periodRecorder{}
	svc := NewAppService(Services{Reports: rec})
	ctx := context.Background()

	for _, in := range []string{"", "  ", "7d", " 1y "} {
		_, err := svc.Dashboard(ctx, in)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"30d", "30d", "7d", "1y"}, rec.periods)
}

type seedAccounts struct{ core.AccountService }

func (seedAccounts) SeedDefaults(context.Context) (int, error) { return 3, nil }

type typeRules struct {
	core.AccountRules
	missing core.AccountType
}

func (r typeRules) DefaultAccount(_ context.Context, typ core.AccountType) (*core.Account, error) {
	if typ == r.missing {
		return nil, &core.DomainError{Kind: core.ErrNotFound, Op: "default account", Entity: "account"}
	}
	name := map[core.AccountType]string{core.AccountIncome: "Sales Income", core.AccountExpense: "Purchase Expense"}[typ]
	return &core.Account{ID: len(name), AccountName: name, Type: typ}, nil
}

func TestAppService_SeedReportsDefaultAccounts(t *testing.T) {
	ctx := context.Background()
	svc := NewAppService(Services{Accounts: seedAccounts{}, Rules: typeRules{}})

	res, err := svc.SeedDefaultAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, len(core.DefaultAccounts), res.Total)
	require.NotNil(t, res.DefaultIncome)
	assert.Equal(t, "Sales Income", res.DefaultIncome.AccountName)
	require.NotNil(t, res.DefaultExpense)
	assert.Equal(t, "Purchase Expense", res.DefaultExpense.AccountName)

	svc = NewAppService(Services{Accounts: seedAccounts{}, Rules: typeRules{missing: core.AccountExpense}})
	_, err = svc.SeedDefaultAccounts(ctx)
	assert.True(t, errors.Is(err, core.ErrNotFound), "got %v", err)
}

func TestFirstNonZero(t *testing.T) {
	assert.Equal(t, 7, firstNonZero(0, 7, 3))
	assert.Equal(t, 0, firstNonZero())
}

func TestToLines_DropsComputedFields(t *testing.T) {
	pid := 3
	lines := toLines([]OrderLineRequest{{ProductID: &pid, ProductName: "  Desk ", Quantity: dec("2")}})
	require.Len(t, lines, 1)
	assert.Equal(t, "Desk", lines[0].ProductName)
	assert.Nil(t, lines[0].LineTotal)
	assert.Nil(t, toLines(nil), "nil keeps the existing lines on update")
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
