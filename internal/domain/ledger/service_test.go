package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmapos/internal/core/apperror"
	"farmapos/internal/core/id"
	"farmapos/internal/core/types"
	"farmapos/internal/domain/catalog/product"
	"farmapos/internal/domain/ledger"
	"farmapos/internal/domain/memstore"
)

func newFixture(t *testing.T) (*ledger.Service, *memstore.DB, *product.Product) {
	t.Helper()
	db := memstore.New()
	txm := memstore.NewTxManager(db)
	products := memstore.NewProductRepo(db)
	movements := memstore.NewMovementRepo(db)

	p := product.NewProduct("Paracetamol 500mg", types.MustMoney("12.50"))
	require.NoError(t, products.Create(context.Background(), p))

	return ledger.NewService(products, movements, txm), db, p
}

func TestApply_InIncreasesStock(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	result, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID:     p.ID,
		Type:          ledger.MovementIn,
		Quantity:      40,
		ReferenceType: ledger.ReferenceAdjustment,
		Actor:         "pharmacist",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PreviousStock)
	assert.Equal(t, int64(40), result.NewStock)
}

func TestApply_OutDecreasesStock(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementIn, Quantity: 40,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.NoError(t, err)

	result, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementOut, Quantity: 15,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), result.PreviousStock)
	assert.Equal(t, int64(25), result.NewStock)
}

func TestApply_AdjustmentSetsAbsoluteStock(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementIn, Quantity: 100,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.NoError(t, err)

	// Adjustment is an absolute target, not a delta.
	result, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementAdjustment, Quantity: 37,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
		Notes: "cycle count",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.PreviousStock)
	assert.Equal(t, int64(37), result.NewStock)

	// Adjustment to zero is allowed.
	result, err = svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementAdjustment, Quantity: 0,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.NewStock)
}

func TestApply_OutBelowZeroFails(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementIn, Quantity: 10,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, ledger.ApplyInput{
		ProductID: p.ID, Type: ledger.MovementOut, Quantity: 11,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Paracetamol 500mg", appErr.Details["product"])

	// Stock and history are untouched by the failed movement.
	history, err := svc.History(ctx, p.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(10), history[0].NewStock)
}

func TestApply_ValidatesInput(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input ledger.ApplyInput
	}{
		{"unknown type", ledger.ApplyInput{ProductID: p.ID, Type: "TRANSFER", Quantity: 1}},
		{"zero quantity in", ledger.ApplyInput{ProductID: p.ID, Type: ledger.MovementIn, Quantity: 0}},
		{"negative quantity out", ledger.ApplyInput{ProductID: p.ID, Type: ledger.MovementOut, Quantity: -5}},
		{"negative adjustment", ledger.ApplyInput{ProductID: p.ID, Type: ledger.MovementAdjustment, Quantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, tc.input)
			assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
		})
	}
}

func TestApply_UnknownProduct(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Apply(context.Background(), ledger.ApplyInput{
		ProductID: id.New(), Type: ledger.MovementIn, Quantity: 1,
		ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist",
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestApply_HistoryInvariant(t *testing.T) {
	svc, _, p := newFixture(t)
	ctx := context.Background()

	steps := []ledger.ApplyInput{
		{ProductID: p.ID, Type: ledger.MovementAdjustment, Quantity: 50, ReferenceType: ledger.ReferenceInitialStock, Actor: "seed"},
		{ProductID: p.ID, Type: ledger.MovementOut, Quantity: 8, ReferenceType: ledger.ReferenceSale, Actor: "cashier"},
		{ProductID: p.ID, Type: ledger.MovementIn, Quantity: 20, ReferenceType: ledger.ReferenceAdjustment, Actor: "pharmacist"},
		{ProductID: p.ID, Type: ledger.MovementOut, Quantity: 30, ReferenceType: ledger.ReferenceSale, Actor: "cashier"},
	}
	for _, in := range steps {
		_, err := svc.Apply(ctx, in)
		require.NoError(t, err)
	}

	// Every entry links previous to new by its own quantity, and
	// consecutive entries chain.
	history, err := svc.History(ctx, p.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, len(steps))
	for i, m := range history {
		switch m.Type {
		case ledger.MovementIn:
			assert.Equal(t, m.PreviousStock+m.Quantity, m.NewStock)
		case ledger.MovementOut:
			assert.Equal(t, m.PreviousStock-m.Quantity, m.NewStock)
		case ledger.MovementAdjustment:
			assert.Equal(t, m.Quantity, m.NewStock)
		}
		if i > 0 {
			assert.Equal(t, m.NewStock, history[i-1].PreviousStock)
		}
	}
	assert.Equal(t, int64(32), history[0].NewStock)
}
