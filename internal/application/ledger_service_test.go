package application

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/order-platform/internal/domain"
)

func TestLedger_Balance(t *testing.T) {
	f := newFixture(domain.ReturnPolicyAny)
	ctx := context.Background()

	wallet, err := f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, wallet.Exists)
	assert.Zero(t, wallet.Amount)

	require.NoError(t, f.ledger.Credit(ctx, "user-1", 120))
	require.NoError(t, f.ledger.Debit(ctx, "user-1", 20))

	wallet, err = f.ledger.GetBalance(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, wallet.Exists)
	assert.Equal(t, 100.0, wallet.Amount)

	err = f.ledger.Debit(ctx, "user-1", 100.5)
	assert.True(t, errors.Is(err, domain.ErrInsufficientBalance))
	assert.Equal(t, 100.0, f.store.wallets["user-1"])
}

func TestLedger_RejectsNonPositiveInputs(t *testing.T) {
	f := newFixture(domain.ReturnPolicyAny)
	f.seedCheckout(0)
	ctx := context.Background()

	assert.ErrorIs(t, f.ledger.Credit(ctx, "user-1", 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, f.ledger.Debit(ctx, "user-1", -5), domain.ErrInvalidAmount)
	assert.ErrorIs(t, f.ledger.Restock(ctx, "P1", 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.ledger.Restock(ctx, "missing", 1), domain.ErrProductNotFound)
}

func TestLedger_GetStock(t *testing.T) {
	f := newFixture(domain.ReturnPolicyAny)
	f.seedCheckout(0)

	stock, err := f.ledger.GetStock(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 8, stock.Stock)

	_, err = f.ledger.GetStock(context.Background(), "missing")
	requireStatus(t, err, http.StatusNotFound)
}
