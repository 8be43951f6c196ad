package loyalty_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/domain/loyalty"
	"farmapos/internal/domain/memstore"
)

func newService() (*loyalty.Service, *memstore.AccountRepo) {
	db := memstore.New()
	repo := memstore.NewAccountRepo(db)
	return loyalty.NewService(repo, memstore.NewTxManager(db)), repo
}

func TestCredit_LazyAccountCreation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	result, err := svc.Credit(ctx, loyalty.CreditInput{
		CustomerRef: "0917-555-0101",
		Delta:       25,
		Type:        loyalty.TransactionQRScan,
		Reference:   "RWD-TEST",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), result.NewBalance)
	assert.Equal(t, "0917-555-0101", result.Account.CustomerRef)

	// A second credit finds the same account instead of creating another.
	result2, err := svc.Credit(ctx, loyalty.CreditInput{
		CustomerRef: "0917-555-0101",
		Delta:       50,
		Type:        loyalty.TransactionEarn,
	})
	require.NoError(t, err)
	assert.Equal(t, result.Account.ID, result2.Account.ID)
	assert.Equal(t, int64(75), result2.NewBalance)

	history, err := svc.History(ctx, result.Account.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Newest first.
	assert.Equal(t, int64(50), history[0].Delta)
	assert.Equal(t, int64(25), history[1].Delta)
}

func TestCredit_ByAccountID(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	account := loyalty.NewAccount("0917-555-0102")
	require.NoError(t, repo.Create(ctx, account))

	result, err := svc.Credit(ctx, loyalty.CreditInput{
		AccountID: &account.ID,
		Delta:     100,
		Type:      loyalty.TransactionBonus,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.NewBalance)

	_, err = svc.Credit(ctx, loyalty.CreditInput{
		AccountID: ptr(id.New()),
		Delta:     10,
		Type:      loyalty.TransactionBonus,
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCredit_NegativeBalanceRejected(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	account := loyalty.NewAccount("0917-555-0103")
	require.NoError(t, repo.Create(ctx, account))

	_, err := svc.Credit(ctx, loyalty.CreditInput{
		AccountID: &account.ID,
		Delta:     -10,
		Type:      loyalty.TransactionRedeem,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))

	// The failed debit leaves no ledger entry behind.
	history, err := svc.History(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCredit_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Credit(ctx, loyalty.CreditInput{CustomerRef: "x", Delta: 0, Type: loyalty.TransactionEarn})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Credit(ctx, loyalty.CreditInput{CustomerRef: "x", Delta: 5, Type: "UNKNOWN"})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.Credit(ctx, loyalty.CreditInput{Delta: 5, Type: loyalty.TransactionEarn})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func ptr(v id.ID) *id.ID { return &v }
