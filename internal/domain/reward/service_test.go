package reward_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/refcode"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/memstore"
	"farmapos/internal/domain/reward"
	"farmapos/internal/domain/sales"
)

type fixture struct {
	db       *memstore.DB
	saleRepo *memstore.SaleRepo
	loyalty  *loyalty.Service
	svc      *reward.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	txm := memstore.NewTxManager(db)
	saleRepo := memstore.NewSaleRepo(db)
	loyaltySvc := loyalty.NewService(memstore.NewAccountRepo(db), txm)

	return &fixture{
		db:       db,
		saleRepo: saleRepo,
		loyalty:  loyaltySvc,
		svc:      reward.NewService(memstore.NewTokenRepo(db), saleRepo, loyaltySvc, txm, nil),
	}
}

func (f *fixture) addSale(t *testing.T, total string) *sales.Sale {
	t.Helper()
	now := time.Now().UTC()
	sale := &sales.Sale{
		ID:            id.New(),
		Reference:     refcode.NewSaleReference(now),
		Total:         types.MustMoney(total),
		PaymentMethod: "cash",
		PaidAmount:    types.MustMoney(total),
		ChangeAmount:  types.ZeroMoney(),
		Cashier:       "maria",
		CreatedAt:     now,
	}
	require.NoError(t, f.saleRepo.Create(context.Background(), sale))
	return sale
}

func TestIssueForSale_CreatesToken(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "1250.00")

	token, err := f.svc.IssueForSale(context.Background(), sale.ID)
	require.NoError(t, err)

	assert.Equal(t, sale.ID, token.SaleID)
	assert.Equal(t, int64(50), token.PointsValue)
	assert.False(t, token.IsRedeemed)
	assert.NotEmpty(t, token.Code)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), token.ExpiresAt, time.Minute)
}

func TestIssueForSale_Idempotent(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "600.00")
	ctx := context.Background()

	first, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	second, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Code, second.Code)
}

func TestIssueForSale_BelowThreshold(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "499.99")

	_, err := f.svc.IssueForSale(context.Background(), sale.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeNoRewardEligible))
}

func TestIssueForSale_UnknownSale(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.IssueForSale(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRedeem_CreditsLoyaltyAccount(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "1000.00")
	ctx := context.Background()

	token, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	result, err := f.svc.Redeem(ctx, token.Code, "0917-555-0101")
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.PointsEarned)
	assert.Equal(t, int64(50), result.NewBalance)

	account, err := f.loyalty.GetAccount(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "0917-555-0101", account.CustomerRef)
	assert.Equal(t, int64(50), account.Balance)

	history, err := f.loyalty.History(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, loyalty.TransactionQRScan, history[0].Type)
	assert.Equal(t, token.Code, history[0].Reference)
}

func TestRedeem_SecondAttemptFails(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "750.00")
	ctx := context.Background()

	token, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, token.Code, "0917-555-0101")
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, token.Code, "0917-555-0101")
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyRedeemed))

	// Balance credited exactly once.
	account, err := f.loyalty.GetAccount(ctx, mustAccountID(t, f, "0917-555-0101"))
	require.NoError(t, err)
	assert.Equal(t, int64(25), account.Balance)
}

func TestRedeem_UnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Redeem(context.Background(), "RWD-DOESNOTEXIST", "0917-555-0101")
	assert.True(t, apperror.IsCode(err, apperror.CodeTokenNotFound))
}

func TestRedeem_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "800.00")
	ctx := context.Background()

	issuedAt := time.Now().UTC()
	f.svc.WithClock(func() time.Time { return issuedAt })

	token, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	// 31 days later the token is expired; expiry is derived from
	// expires_at, never from a stored flag.
	f.svc.WithClock(func() time.Time { return issuedAt.Add(31 * 24 * time.Hour) })

	_, err = f.svc.Redeem(ctx, token.Code, "0917-555-0101")
	assert.True(t, apperror.IsCode(err, apperror.CodeTokenExpired))
}

func TestRedeemForAccount_StaffFlow(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "2000.00")
	ctx := context.Background()

	accountRepo := memstore.NewAccountRepo(f.db)
	account := loyalty.NewAccount("0917-555-0202")
	require.NoError(t, accountRepo.Create(ctx, account))

	token, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	result, err := f.svc.RedeemForAccount(ctx, token.Code, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, result.AccountID)
	assert.Equal(t, int64(100), result.NewBalance)
}

func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	sale := f.addSale(t, "1500.00")
	ctx := context.Background()

	token, err := f.svc.IssueForSale(ctx, sale.ID)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Redeem(ctx, token.Code, "0917-555-0101")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case apperror.IsCode(err, apperror.CodeAlreadyRedeemed):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, won, "exactly one concurrent redemption may win")
	assert.Equal(t, attempts-1, lost)

	account, err := f.loyalty.GetAccount(ctx, mustAccountID(t, f, "0917-555-0101"))
	require.NoError(t, err)
	assert.Equal(t, int64(75), account.Balance)
}

func mustAccountID(t *testing.T, f *fixture, customerRef string) id.ID {
	t.Helper()
	account, err := memstore.NewAccountRepo(f.db).GetByCustomerRef(context.Background(), customerRef)
	require.NoError(t, err)
	return account.ID
}
