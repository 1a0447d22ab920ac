package ledger

import (
	"context"
	"sync"
	"time"

	"courtside/models"
)

// MemoryStore is an in-memory implementation of WalletStore, EarningsStore
// and ClassStore. It backs the test suites and local development without a
// MongoDB instance.
type MemoryStore struct {
	mu         sync.Mutex
	balances   map[string]int
	creditTxs  []models.CreditTransaction
	earnings   map[string]models.CoachEarnings
	earningTxs []models.EarningTransaction
	classes    map[string]models.ClassSlot
	bookings   []models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string]int),
		earnings: make(map[string]models.CoachEarnings),
		classes:  make(map[string]models.ClassSlot),
	}
}

// ---------- WalletStore ----------

func (s *MemoryStore) Balance(_ context.Context, userID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credits, found := s.balances[userID]
	return credits, found, nil
}

func (s *MemoryStore) SetBalance(_ context.Context, userID string, credits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = credits
	return nil
}

func (s *MemoryStore) AppendCreditTransaction(_ context.Context, tx models.CreditTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creditTxs = append(s.creditTxs, tx)
	return nil
}

func (s *MemoryStore) CreditTransactions(_ context.Context, userID string) ([]models.CreditTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CreditTransaction
	for _, tx := range s.creditTxs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ---------- EarningsStore ----------

func (s *MemoryStore) Earnings(_ context.Context, coachID string) (models.CoachEarnings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, found := s.earnings[coachID]
	return e, found, nil
}

func (s *MemoryStore) SetEarnings(_ context.Context, e models.CoachEarnings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.earnings[e.CoachID] = e
	return nil
}

func (s *MemoryStore) AppendEarningTransaction(_ context.Context, tx models.EarningTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.earningTxs = append(s.earningTxs, tx)
	return nil
}

func (s *MemoryStore) EarningTransactions(_ context.Context, coachID string) ([]models.EarningTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EarningTransaction
	for _, tx := range s.earningTxs {
		if tx.CoachID == coachID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// ---------- ClassStore ----------

func (s *MemoryStore) InsertClass(_ context.Context, class models.ClassSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[class.ID] = class
	return nil
}

func (s *MemoryStore) Class(_ context.Context, id string) (models.ClassSlot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.classes[id]
	return c, found, nil
}

func (s *MemoryStore) UpdateClass(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.classes[id]
	if !found {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "instructorName":
			c.InstructorName = v.(string)
		case "classTime":
			c.ClassTime = v.(string)
		case "date":
			c.Date = v.(time.Time)
		case "startTime":
			c.StartTime = v.(time.Time)
		case "endTime":
			c.EndTime = v.(time.Time)
		case "studentId":
			c.StudentID = v.(string)
		case "creditCost":
			c.CreditCost = v.(int)
		case "isAvailable":
			c.IsAvailable = v.(bool)
		case "isFinished":
			c.IsFinished = v.(bool)
		}
	}
	s.classes[id] = c
	return nil
}

func (s *MemoryStore) DeleteClass(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, id)
	return nil
}

func (s *MemoryStore) ClassesBetween(_ context.Context, from, to time.Time) ([]models.ClassSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ClassSlot
	for _, c := range s.classes {
		if !c.Date.Before(from) && c.Date.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) InsertBooking(_ context.Context, b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
	return nil
}

// Bookings returns a copy of all booking records, for assertions.
func (s *MemoryStore) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}
