package reward_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/cart"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/memstore"
	"farmapos/internal/domain/reward"
	"farmapos/internal/domain/sales"
)

// Full register flow: stock arrives, a sale checks out against it, the
// receipt's reward code is redeemed once and only once.
func TestRegisterFlow(t *testing.T) {
	db := memstore.New()
	txm := memstore.NewTxManager(db)
	products := memstore.NewProductRepo(db)
	movements := memstore.NewMovementRepo(db)
	saleRepo := memstore.NewSaleRepo(db)

	ledgerSvc := ledger.NewService(products, movements, txm)
	cartSvc := cart.NewService(cart.NewStore(), products)
	checkoutSvc := sales.NewService(products, ledgerSvc, saleRepo, txm, nil)
	loyaltySvc := loyalty.NewService(memstore.NewAccountRepo(db), txm)
	rewardSvc := reward.NewService(memstore.NewTokenRepo(db), saleRepo, loyaltySvc, txm, nil)

	ctx := context.Background()

	// Stock arrives.
	p := product.NewProduct("Salbutamol Inhaler", types.MustMoney("385.00"))
	require.NoError(t, products.Create(ctx, p))
	_, err := ledgerSvc.Apply(ctx, ledger.ApplyInput{
		ProductID:     p.ID,
		Type:          ledger.MovementAdjustment,
		Quantity:      10,
		ReferenceType: ledger.ReferenceInitialStock,
		Actor:         "seed",
	})
	require.NoError(t, err)

	// Cashier rings up two inhalers.
	require.NoError(t, cartSvc.Add(ctx, "reg1", p.ID, 2))
	view, err := cartSvc.View(ctx, "reg1")
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(types.MustMoney("770.00")))

	sale, err := checkoutSvc.Checkout(ctx, cartSvc.Snapshot("reg1"), sales.CheckoutInput{
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney("1000.00"),
		Cashier:       "maria",
	})
	require.NoError(t, err)
	cartSvc.Clear("reg1")

	assert.True(t, sale.Total.Equal(types.MustMoney("770.00")))
	assert.True(t, sale.ChangeAmount.Equal(types.MustMoney("230.00")))

	left, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), left.StockQuantity)

	// The receipt's reward code is worth floor(770/500)*25 = 25 points.
	token, err := rewardSvc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), token.PointsValue)

	// A retry on the issue endpoint returns the same code.
	again, err := rewardSvc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, token.Code, again.Code)

	// The customer scans the code at home.
	result, err := rewardSvc.Redeem(ctx, token.Code, "0917-555-0101")
	require.NoError(t, err)
	assert.Equal(t, int64(25), result.PointsEarned)
	assert.Equal(t, int64(25), result.NewBalance)

	// Scanning the same code again is refused.
	_, err = rewardSvc.Redeem(ctx, token.Code, "0917-555-0101")
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyRedeemed))
}
