package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiv-erp/internal/core"
)

// The catalog service and the product type values live side by side in core.
var _ core.ProductService = core.NewProductService(nil)

func TestProductTypes(t *testing.T) {
	assert.Equal(t, core.ProductType("Goods"), core.ProductTypeGoods)
	assert.Equal(t, core.ProductType("Service"), core.ProductTypeService)
}

func TestProductService_Create(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	products := core.NewProductService(pool)

	t.Run("type defaults to goods", func(t *testing.T) {
		p, err := products.Create(ctx, core.ProductInput{Name: "Study Desk", SalesPrice: dec("900"), PurchasePrice: dec("600")})
		require.NoError(t, err)
		assert.Equal(t, core.ProductTypeGoods, p.Type)
	})

	t.Run("service products are accepted", func(t *testing.T) {
		p, err := products.Create(ctx, core.ProductInput{Name: "Polishing", Type: core.ProductTypeService})
		require.NoError(t, err)
		assert.Equal(t, core.ProductTypeService, p.Type)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := products.Create(ctx, core.ProductInput{Name: "Gift card", Type: "Voucher"})
		assert.True(t, errors.Is(err, core.ErrInvalidInput), "got %v", err)
		assert.Equal(t, "type", core.FieldOf(err))
	})
}
