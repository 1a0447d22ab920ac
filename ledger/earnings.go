package ledger

import (
	"context"
	"sort"
	"time"

	"courtside/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EarningsManager owns per-coach accrued earnings. Unlike the wallet,
// accrual is a side accounting effect of class completion: persistence
// failures here are logged and swallowed so they can never block or roll
// back the workflow that triggered them.
type EarningsManager struct {
	store EarningsStore
	log   *zap.Logger
	now   func() time.Time
}

func NewEarningsManager(store EarningsStore, log *zap.Logger) *EarningsManager {
	return &EarningsManager{store: store, log: log, now: time.Now}
}

// Earnings returns the coach's cumulative total, initializing it to zero on
// first read.
func (m *EarningsManager) Earnings(ctx context.Context, coachID string) (int, error) {
	if coachID == "" {
		return 0, ErrNoIdentity
	}

	e, found, err := m.store.Earnings(ctx, coachID)
	if err != nil {
		return 0, &PersistenceError{Op: "read earnings", Err: err}
	}
	if found {
		return e.TotalEarnings, nil
	}

	init := models.CoachEarnings{CoachID: coachID, TotalEarnings: 0, LastUpdated: m.now()}
	if err := m.store.SetEarnings(ctx, init); err != nil {
		return 0, &PersistenceError{Op: "init earnings", Err: err}
	}
	return 0, nil
}

// AddEarnings accrues credits for a coach and appends the earning
// transaction. It never returns an error: any failure is logged and
// dropped. Zero-amount accruals still write the transaction record.
func (m *EarningsManager) AddEarnings(ctx context.Context, a Accrual) {
	if a.CoachID == "" || a.Amount < 0 {
		m.log.Warn("dropping invalid accrual",
			zap.String("coachId", a.CoachID), zap.Int("amount", a.Amount))
		return
	}

	e, _, err := m.store.Earnings(ctx, a.CoachID)
	if err != nil {
		m.log.Error("earnings read failed, accrual dropped",
			zap.String("coachId", a.CoachID), zap.Error(err))
		return
	}

	e.CoachID = a.CoachID
	e.TotalEarnings += a.Amount
	e.LastUpdated = m.now()
	if err := m.store.SetEarnings(ctx, e); err != nil {
		m.log.Error("earnings write failed",
			zap.String("coachId", a.CoachID), zap.Int("amount", a.Amount), zap.Error(err))
	}

	tx := models.EarningTransaction{
		ID:        uuid.NewString(),
		CoachID:   a.CoachID,
		Amount:    a.Amount,
		StudentID: a.StudentID,
		ClassID:   a.ClassID,
		ClassTime: a.ClassTime,
		Timestamp: m.now(),
	}
	if err := m.store.AppendEarningTransaction(ctx, tx); err != nil {
		m.log.Error("earning transaction append failed",
			zap.String("coachId", a.CoachID), zap.Error(err))
	}
}

// Accrue implements Accruer.
func (m *EarningsManager) Accrue(ctx context.Context, a Accrual) {
	m.AddEarnings(ctx, a)
}

// Transactions returns the coach's earning history, newest first. Records
// the store could not decode are already skipped at the store layer.
func (m *EarningsManager) Transactions(ctx context.Context, coachID string) ([]models.EarningTransaction, error) {
	if coachID == "" {
		return nil, ErrNoIdentity
	}
	txns, err := m.store.EarningTransactions(ctx, coachID)
	if err != nil {
		return nil, &PersistenceError{Op: "list earning transactions", Err: err}
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Timestamp.After(txns[j].Timestamp)
	})
	return txns, nil
}
