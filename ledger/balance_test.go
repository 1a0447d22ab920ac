package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"courtside/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBalanceManager(t *testing.T) (*BalanceManager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewBalanceManager(store, zap.NewNop()), store
}

func TestBalanceDefaultsOnFirstRead(t *testing.T) {
	m, store := newTestBalanceManager(t)
	ctx := context.Background()

	balance, err := m.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingCredits, balance)

	// The default is persisted, not recomputed per call.
	credits, found, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, DefaultStartingCredits, credits)

	// Re-reading is stable.
	balance, err = m.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingCredits, balance)
}

func TestBalanceRequiresIdentity(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	_, err := m.Balance(ctx, "")
	assert.ErrorIs(t, err, ErrNoIdentity)
	_, err = m.AddCredits(ctx, "", 10)
	assert.ErrorIs(t, err, ErrNoIdentity)
	_, err = m.DeductCredits(ctx, "", 10)
	assert.ErrorIs(t, err, ErrNoIdentity)
	_, err = m.Transactions(ctx, "")
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestAddCredits(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	balance, err := m.AddCredits(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingCredits+50, balance)

	_, err = m.AddCredits(ctx, "u1", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = m.AddCredits(ctx, "u1", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	balance, err = m.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 150, balance)
}

func TestDeductCredits(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	balance, err := m.DeductCredits(ctx, "u1", 30)
	require.NoError(t, err)
	assert.Equal(t, 70, balance)

	_, err = m.DeductCredits(ctx, "u1", -1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDeductCreditsInsufficient(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	_, err := m.DeductCredits(ctx, "u1", DefaultStartingCredits+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var ib *InsufficientBalanceError
	require.True(t, errors.As(err, &ib))
	assert.Equal(t, "u1", ib.UserID)
	assert.Equal(t, DefaultStartingCredits, ib.Available)
	assert.Equal(t, DefaultStartingCredits+1, ib.Requested)

	// No partial deduction.
	balance, err := m.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingCredits, balance)

	txns, err := m.Transactions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestDeductExactBalance(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	balance, err := m.DeductCredits(ctx, "u1", DefaultStartingCredits)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = m.DeductCredits(ctx, "u1", 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransactionsNewestFirstWithSnapshots(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	_, err := m.AddCredits(ctx, "u1", 40)
	require.NoError(t, err)
	_, err = m.DeductCredits(ctx, "u1", 25)
	require.NoError(t, err)
	_, err = m.AddCredits(ctx, "u1", 10)
	require.NoError(t, err)

	txns, err := m.Transactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, models.TxAdd, txns[0].Type)
	assert.Equal(t, 10, txns[0].Amount)
	assert.Equal(t, 125, txns[0].Balance)

	assert.Equal(t, models.TxDeduct, txns[1].Type)
	assert.Equal(t, 25, txns[1].Amount)
	assert.Equal(t, 115, txns[1].Balance)

	assert.Equal(t, models.TxAdd, txns[2].Type)
	assert.Equal(t, 40, txns[2].Amount)
	assert.Equal(t, 140, txns[2].Balance)

	for i := 1; i < len(txns); i++ {
		assert.False(t, txns[i].Timestamp.After(txns[i-1].Timestamp))
	}
	for _, tx := range txns {
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, "u1", tx.UserID)
	}
}

func TestTransactionsScopedToUser(t *testing.T) {
	m, _ := newTestBalanceManager(t)
	ctx := context.Background()

	_, err := m.AddCredits(ctx, "u1", 10)
	require.NoError(t, err)
	_, err = m.AddCredits(ctx, "u2", 20)
	require.NoError(t, err)

	txns, err := m.Transactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 10, txns[0].Amount)
}
