package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/memstore"
	"farmapos/internal/domain/sales"
)

type fixture struct {
	db       *memstore.DB
	products *memstore.ProductRepo
	saleRepo *memstore.SaleRepo
	ledger   *ledger.Service
	svc      *sales.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	txm := memstore.NewTxManager(db)
	products := memstore.NewProductRepo(db)
	movements := memstore.NewMovementRepo(db)
	saleRepo := memstore.NewSaleRepo(db)
	ledgerSvc := ledger.NewService(products, movements, txm)

	return &fixture{
		db:       db,
		products: products,
		saleRepo: saleRepo,
		ledger:   ledgerSvc,
		svc:      sales.NewService(products, ledgerSvc, saleRepo, txm, nil),
	}
}

func (f *fixture) addProduct(t *testing.T, name, price string, stock int64) *product.Product {
	t.Helper()
	p := product.NewProduct(name, types.MustMoney(price))
	p.StockQuantity = stock
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stockOf(t *testing.T, p *product.Product) int64 {
	t.Helper()
	got, err := f.products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.StockQuantity
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), cart.New(), sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("100"),
		Cashier:       "cashier",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyCart))

	_, err = f.svc.Checkout(context.Background(), nil, sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("100"),
		Cashier:       "cashier",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyCart))
}

func TestCheckout_ValidatesPayment(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Paracetamol 500mg", "12.50", 10)

	c := cart.New()
	c.Set(p.ID, 1)

	_, err := f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
		PaidAmount: types.MustMoney("100"), Cashier: "cashier",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
		PaymentMethod: "cash", PaidAmount: types.MustMoney("-1"), Cashier: "cashier",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidPayment))
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t)
	p1 := f.addProduct(t, "Paracetamol 500mg", "12.50", 100)
	p2 := f.addProduct(t, "Amoxicillin 500mg", "18.00", 50)
	ctx := context.Background()

	c := cart.New()
	c.Set(p1.ID, 4) // 50.00
	c.Set(p2.ID, 2) // 36.00

	sale, err := f.svc.Checkout(ctx, c, sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("100"),
		Cashier:       "maria",
	})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(types.MustMoney("86.00")), "got total %s", sale.Total)
	assert.True(t, sale.ChangeAmount.Equal(types.MustMoney("14.00")), "got change %s", sale.ChangeAmount)
	assert.Equal(t, "maria", sale.Cashier)
	assert.NotEmpty(t, sale.Reference)

	// Stock moved and every line left an OUT movement tied to the sale.
	assert.Equal(t, int64(96), f.stockOf(t, p1))
	assert.Equal(t, int64(48), f.stockOf(t, p2))

	history, err := f.ledger.History(ctx, p1.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.MovementOut, history[0].Type)
	assert.Equal(t, ledger.ReferenceSale, history[0].ReferenceType)
	require.NotNil(t, history[0].ReferenceID)
	assert.Equal(t, sale.ID, *history[0].ReferenceID)

	// Line items are price snapshots.
	stored, items, err := f.svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.Reference, stored.Reference)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, sale.ID, item.SaleID)
		assert.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(types.MoneyFromInt(item.Quantity))))
	}

	// The cart is the caller's to clear; checkout does not touch it.
	assert.Equal(t, 2, c.Len())
}

func TestCheckout_UnderpaymentGivesZeroChange(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Salbutamol Inhaler", "385.00", 10)

	c := cart.New()
	c.Set(p.ID, 1)

	sale, err := f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("300.00"),
		Cashier:       "maria",
	})
	require.NoError(t, err)

	assert.True(t, sale.Total.Equal(types.MustMoney("385.00")))
	assert.True(t, sale.PaidAmount.Equal(types.MustMoney("300.00")))
	assert.True(t, sale.ChangeAmount.IsZero(), "underpayment must yield zero change, got %s", sale.ChangeAmount)
}

func TestCheckout_InsufficientStockNamesProduct(t *testing.T) {
	f := newFixture(t)
	p1 := f.addProduct(t, "Paracetamol 500mg", "12.50", 100)
	p2 := f.addProduct(t, "Losartan 50mg", "22.50", 1)

	c := cart.New()
	c.Set(p1.ID, 2)
	c.Set(p2.ID, 3)

	_, err := f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("500"),
		Cashier:       "maria",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Losartan 50mg", appErr.Details["product"])
	assert.Equal(t, int64(3), appErr.Details["requested"])
	assert.Equal(t, int64(1), appErr.Details["available"])

	// Nothing committed, including the line that had enough stock.
	assert.Equal(t, int64(100), f.stockOf(t, p1))
	assert.Equal(t, int64(1), f.stockOf(t, p2))
}

func TestCheckout_AtomicOnFailure(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Metformin 500mg", "14.00", 20)

	f.saleRepo.FailSaveItems = errors.New("disk full")

	c := cart.New()
	c.Set(p.ID, 5)

	_, err := f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("100"),
		Cashier:       "maria",
	})
	require.Error(t, err)

	// The failed transaction leaves no sale, no movements, no stock change.
	assert.Equal(t, int64(20), f.stockOf(t, p))
	history, err := f.ledger.History(context.Background(), p.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCheckout_NoOversellUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "Ascorbic Acid 500mg", "6.00", 5)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := cart.New()
			c.Set(p.ID, 1)
			_, err := f.svc.Checkout(context.Background(), c, sales.CheckoutInput{
				PaymentMethod: "cash",
				PaidAmount:    types.MustMoney("10"),
				Cashier:       "maria",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, declined int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsCode(err, apperror.CodeInsufficientStock):
			declined++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, declined)
	assert.Equal(t, int64(0), f.stockOf(t, p))
}
