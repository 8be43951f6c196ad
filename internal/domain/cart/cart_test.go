package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/memstore"
)

func TestCart_SetAndRemove(t *testing.T) {
	c := cart.New()
	assert.True(t, c.IsEmpty())

	pid := id.New()
	c.Set(pid, 3)
	assert.Equal(t, int64(3), c.Quantity(pid))
	assert.Equal(t, 1, c.Len())

	c.Set(pid, 5)
	assert.Equal(t, int64(5), c.Quantity(pid))

	// Setting zero removes the line.
	c.Set(pid, 0)
	assert.True(t, c.IsEmpty())

	c.Set(pid, 2)
	c.Remove(pid)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Quantity(pid))
}

func TestCart_ProductIDsAscending(t *testing.T) {
	c := cart.New()
	for i := 0; i < 20; i++ {
		c.Set(id.New(), 1)
	}

	ids := c.ProductIDs()
	require.Len(t, ids, 20)
	for i := 1; i < len(ids); i++ {
		assert.True(t, id.Less(ids[i-1], ids[i]), "ids must come back in ascending order")
	}
}

func TestCart_SnapshotDetached(t *testing.T) {
	c := cart.New()
	pid := id.New()
	c.Set(pid, 2)

	snap := c.Snapshot()
	c.Set(pid, 9)
	assert.Equal(t, int64(2), snap[pid])
}

func newCartService(t *testing.T) (*cart.Service, *product.Product) {
	t.Helper()
	db := memstore.New()
	products := memstore.NewProductRepo(db)

	p := product.NewProduct("Cetirizine 10mg", types.MustMoney("9.75"))
	p.StockQuantity = 5
	require.NoError(t, products.Create(context.Background(), p))

	return cart.NewService(cart.NewStore(), products), p
}

func TestService_AddChecksStock(t *testing.T) {
	svc, p := newCartService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "reg1", p.ID, 3))

	// Adding beyond the advisory stock check fails and keeps the cart.
	err := svc.Add(ctx, "reg1", p.ID, 3)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Equal(t, int64(3), svc.Snapshot("reg1").Quantity(p.ID))

	require.NoError(t, svc.Add(ctx, "reg1", p.ID, 2))
	assert.Equal(t, int64(5), svc.Snapshot("reg1").Quantity(p.ID))
}

func TestService_AddUnknownProduct(t *testing.T) {
	svc, _ := newCartService(t)

	err := svc.Add(context.Background(), "reg1", id.New(), 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_SetQuantity(t *testing.T) {
	svc, p := newCartService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "reg1", p.ID, 1))
	require.NoError(t, svc.SetQuantity(ctx, "reg1", p.ID, 4))
	assert.Equal(t, int64(4), svc.Snapshot("reg1").Quantity(p.ID))

	err := svc.SetQuantity(ctx, "reg1", p.ID, 6)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	// Zero removes the line without touching the catalog.
	require.NoError(t, svc.SetQuantity(ctx, "reg1", p.ID, 0))
	assert.True(t, svc.Snapshot("reg1").IsEmpty())
}

func TestService_SessionsAreIsolated(t *testing.T) {
	svc, p := newCartService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "reg1", p.ID, 2))
	require.NoError(t, svc.Add(ctx, "reg2", p.ID, 5))

	svc.Clear("reg1")
	assert.True(t, svc.Snapshot("reg1").IsEmpty())
	assert.Equal(t, int64(5), svc.Snapshot("reg2").Quantity(p.ID))
}

func TestService_ViewPricesCart(t *testing.T) {
	db := memstore.New()
	products := memstore.NewProductRepo(db)
	ctx := context.Background()

	p1 := product.NewProduct("Ibuprofen 200mg", types.MustMoney("8.25"))
	p1.StockQuantity = 100
	p2 := product.NewProduct("Multivitamins", types.MustMoney("15.50"))
	p2.StockQuantity = 100
	require.NoError(t, products.Create(ctx, p1))
	require.NoError(t, products.Create(ctx, p2))

	svc := cart.NewService(cart.NewStore(), products)
	require.NoError(t, svc.Add(ctx, "reg1", p1.ID, 4))
	require.NoError(t, svc.Add(ctx, "reg1", p2.ID, 2))

	view, err := svc.View(ctx, "reg1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.True(t, view.Total.Equal(types.MustMoney("64.00")), "got total %s", view.Total)
}

func TestService_ViewSkipsDeletedProducts(t *testing.T) {
	db := memstore.New()
	products := memstore.NewProductRepo(db)
	ctx := context.Background()

	p := product.NewProduct("Loperamide 2mg", types.MustMoney("11.00"))
	p.StockQuantity = 10
	require.NoError(t, products.Create(ctx, p))

	store := cart.NewStore()
	svc := cart.NewService(store, products)
	require.NoError(t, svc.Add(ctx, "reg1", p.ID, 2))

	// A line whose product vanished from the catalog is dropped from the
	// view instead of failing the whole cart.
	stale := cart.NewService(store, memstore.NewProductRepo(memstore.New()))
	view, err := stale.View(ctx, "reg1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Total.IsZero())
}
