package ledger

import (
	"context"
	"time"

	"courtside/models"
)

// WalletStore is the document-store surface the BalanceManager needs.
// Balance returns found=false when the user has no persisted balance yet;
// SetBalance upserts.
type WalletStore interface {
	Balance(ctx context.Context, userID string) (credits int, found bool, err error)
	SetBalance(ctx context.Context, userID string, credits int) error
	AppendCreditTransaction(ctx context.Context, tx models.CreditTransaction) error
	CreditTransactions(ctx context.Context, userID string) ([]models.CreditTransaction, error)
}

// EarningsStore backs the EarningsManager.
type EarningsStore interface {
	Earnings(ctx context.Context, coachID string) (e models.CoachEarnings, found bool, err error)
	SetEarnings(ctx context.Context, e models.CoachEarnings) error
	AppendEarningTransaction(ctx context.Context, tx models.EarningTransaction) error
	EarningTransactions(ctx context.Context, coachID string) ([]models.EarningTransaction, error)
}

// ClassStore backs the ClassRegistry. UpdateClass applies only the given
// fields; ClassesBetween returns slots whose date falls in [from, to).
type ClassStore interface {
	InsertClass(ctx context.Context, class models.ClassSlot) error
	Class(ctx context.Context, id string) (c models.ClassSlot, found bool, err error)
	UpdateClass(ctx context.Context, id string, fields map[string]any) error
	DeleteClass(ctx context.Context, id string) error
	ClassesBetween(ctx context.Context, from, to time.Time) ([]models.ClassSlot, error)
	InsertBooking(ctx context.Context, b models.Booking) error
}

// ProfileDirectory is the external profile collaborator: display names for
// slot creation and roles for authorization.
type ProfileDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
	Role(ctx context.Context, userID string) (string, error)
}

// Accrual is one earnings credit for a coach. Student/class references are
// optional context carried onto the earning transaction.
type Accrual struct {
	CoachID   string `json:"coachId"`
	Amount    int    `json:"amount"`
	StudentID string `json:"studentId,omitempty"`
	ClassID   string `json:"classId,omitempty"`
	ClassTime string `json:"classTime,omitempty"`
}

// Accruer accepts earnings accruals. Implementations must never block the
// caller on failure: accrual is best-effort bookkeeping. The EarningsManager
// implements it directly; mq.AccrualPublisher dispatches through Redis.
type Accruer interface {
	Accrue(ctx context.Context, a Accrual)
}

// Notifier observes class mutations. The watch hub implements it to push
// change events to subscribed clients.
type Notifier interface {
	ClassChanged(action string, class models.ClassSlot)
}

// DirectoryMap is a fixed ProfileDirectory, used by tests.
type DirectoryMap map[string]models.User

func (d DirectoryMap) DisplayName(_ context.Context, userID string) (string, error) {
	return d[userID].DisplayName(), nil
}

func (d DirectoryMap) Role(_ context.Context, userID string) (string, error) {
	u, ok := d[userID]
	if !ok {
		return models.RoleUnknown, nil
	}
	return u.Role, nil
}
