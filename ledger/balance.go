package ledger

import (
	"context"
	"sort"
	"time"

	"courtside/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStartingCredits is persisted on the first balance read of a user
// with no balance record.
const DefaultStartingCredits = 100

// BalanceManager owns per-user credit balances. Every mutation appends an
// immutable CreditTransaction carrying the resulting balance snapshot.
//
// Reads go to the store, not a local cache, so concurrent writers are seen
// eventually; the read-modify-write itself is not isolated. Callers wanting
// single-writer discipline serialize per user (the wallet handlers hold a
// Redis lock around mutations).
type BalanceManager struct {
	store    WalletStore
	log      *zap.Logger
	starting int
	now      func() time.Time
}

func NewBalanceManager(store WalletStore, log *zap.Logger) *BalanceManager {
	return &BalanceManager{
		store:    store,
		log:      log,
		starting: DefaultStartingCredits,
		now:      time.Now,
	}
}

// Balance returns the user's current balance, initializing it to the
// starting default on first read. The initialization write is idempotent:
// the default is constant, so a concurrent first-read racing this one
// settles on the same value.
func (m *BalanceManager) Balance(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrNoIdentity
	}

	credits, found, err := m.store.Balance(ctx, userID)
	if err != nil {
		return 0, &PersistenceError{Op: "read balance", Err: err}
	}
	if found {
		return credits, nil
	}

	if err := m.store.SetBalance(ctx, userID, m.starting); err != nil {
		return 0, &PersistenceError{Op: "init balance", Err: err}
	}
	return m.starting, nil
}

// AddCredits credits the user and appends the ledger entry.
func (m *BalanceManager) AddCredits(ctx context.Context, userID string, amount int) (int, error) {
	if userID == "" {
		return 0, ErrNoIdentity
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	current, err := m.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	newBalance := current + amount
	if err := m.store.SetBalance(ctx, userID, newBalance); err != nil {
		return 0, &PersistenceError{Op: "write balance", Err: err}
	}
	if err := m.appendTx(ctx, userID, amount, models.TxAdd, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// DeductCredits debits the user, failing without any partial deduction when
// the balance is short. Negative balances are never persisted.
func (m *BalanceManager) DeductCredits(ctx context.Context, userID string, amount int) (int, error) {
	if userID == "" {
		return 0, ErrNoIdentity
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	current, err := m.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if current < amount {
		return 0, &InsufficientBalanceError{UserID: userID, Available: current, Requested: amount}
	}

	newBalance := current - amount
	if err := m.store.SetBalance(ctx, userID, newBalance); err != nil {
		return 0, &PersistenceError{Op: "write balance", Err: err}
	}
	if err := m.appendTx(ctx, userID, amount, models.TxDeduct, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Transactions returns the user's ledger entries, newest first. Sorting is
// applied after retrieval so the result is ordered regardless of store
// capabilities.
func (m *BalanceManager) Transactions(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}
	txns, err := m.store.CreditTransactions(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list transactions", Err: err}
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Timestamp.After(txns[j].Timestamp)
	})
	return txns, nil
}

func (m *BalanceManager) appendTx(ctx context.Context, userID string, amount int, kind string, balance int) error {
	tx := models.CreditTransaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Type:      kind,
		Timestamp: m.now(),
		Balance:   balance,
	}
	if err := m.store.AppendCreditTransaction(ctx, tx); err != nil {
		m.log.Error("credit transaction append failed",
			zap.String("userId", userID), zap.String("type", kind), zap.Error(err))
		return &PersistenceError{Op: "append transaction", Err: err}
	}
	return nil
}
