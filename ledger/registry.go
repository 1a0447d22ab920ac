package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"courtside/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClassRegistry owns the lifecycle of bookable class slots and orchestrates
// the wallet and earnings managers during booking and completion.
//
// A small pending overlay keeps freshly written slots visible to list reads
// before the backing store's own read path reflects them; once a store read
// returns a slot by id, the overlay copy is dropped.
type ClassRegistry struct {
	store    ClassStore
	wallet   *BalanceManager
	accrue   Accruer
	profiles ProfileDirectory
	gate     *RoleGate
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	notify   Notifier

	mu      sync.Mutex
	pending map[string]models.ClassSlot
}

func NewClassRegistry(store ClassStore, wallet *BalanceManager, accrue Accruer, profiles ProfileDirectory, log *zap.Logger) *ClassRegistry {
	return &ClassRegistry{
		store:    store,
		wallet:   wallet,
		accrue:   accrue,
		profiles: profiles,
		gate:     NewRoleGate(profiles, log),
		log:      log,
		loc:      time.UTC,
		now:      time.Now,
		pending:  make(map[string]models.ClassSlot),
	}
}

// SetNotifier attaches a change-feed observer. Optional.
func (r *ClassRegistry) SetNotifier(n Notifier) { r.notify = n }

// SetLocation fixes the reference timezone for calendar-day matching.
// Defaults to UTC.
func (r *ClassRegistry) SetLocation(loc *time.Location) { r.loc = loc }

type CreateClassParams struct {
	InstructorName string // optional; resolved from the creator's profile when empty
	Date           time.Time
	StartTime      time.Time
	EndTime        time.Time
	CreditCost     int
	CreatedBy      string
}

// Create registers a new Available slot. The supplied start/end instants are
// normalized onto the calendar date: date components from Date, time-of-day
// from StartTime/EndTime, so inconsistent UI inputs cannot produce a slot
// whose timestamps disagree with its date.
func (r *ClassRegistry) Create(ctx context.Context, p CreateClassParams) (models.ClassSlot, error) {
	if p.CreatedBy == "" {
		return models.ClassSlot{}, ErrNoIdentity
	}
	if p.CreditCost < 0 {
		return models.ClassSlot{}, ErrInvalidAmount
	}

	start := r.onDate(p.Date, p.StartTime)
	end := r.onDate(p.Date, p.EndTime)

	class := models.ClassSlot{
		ID:             uuid.NewString(),
		InstructorName: r.instructorName(ctx, p.InstructorName, p.CreatedBy),
		ClassTime:      timeLabel(start, end),
		Date:           r.startOfDay(p.Date),
		StartTime:      start,
		EndTime:        end,
		CreditCost:     p.CreditCost,
		IsAvailable:    true,
		CreatedBy:      p.CreatedBy,
	}

	if err := r.store.InsertClass(ctx, class); err != nil {
		return models.ClassSlot{}, &PersistenceError{Op: "insert class", Err: err}
	}

	r.mu.Lock()
	r.pending[class.ID] = class
	r.mu.Unlock()

	r.changed("created", class)
	return class, nil
}

// Book reserves the slot for the student and debits the credit cost.
// If the debit fails the reservation is rolled back, so an insufficient
// balance never leaves a slot held by a student who did not pay.
// Zero-cost classes skip the wallet entirely.
func (r *ClassRegistry) Book(ctx context.Context, classID, studentID string) (models.ClassSlot, error) {
	if studentID == "" {
		return models.ClassSlot{}, ErrNoIdentity
	}

	class, err := r.class(ctx, classID)
	if err != nil {
		return models.ClassSlot{}, err
	}
	if !class.IsAvailable {
		return models.ClassSlot{}, &NotAvailableError{ClassID: classID, Status: class.Status()}
	}

	fields := map[string]any{"isAvailable": false, "studentId": studentID}
	if err := r.store.UpdateClass(ctx, classID, fields); err != nil {
		return models.ClassSlot{}, &PersistenceError{Op: "reserve class", Err: err}
	}
	class.IsAvailable = false
	class.StudentID = studentID
	r.overlay(class)

	if class.CreditCost > 0 {
		if _, err := r.wallet.DeductCredits(ctx, studentID, class.CreditCost); err != nil {
			r.release(ctx, class)
			return models.ClassSlot{}, err
		}
	}

	booking := models.Booking{
		ID:             uuid.NewString(),
		CoachID:        class.CreatedBy,
		StudentID:      studentID,
		ClassID:        class.ID,
		ClassTime:      class.ClassTime,
		Cost:           class.CreditCost,
		BookedAt:       r.now(),
		Date:           class.Date,
		InstructorName: class.InstructorName,
		CreatedBy:      class.CreatedBy,
		Status:         "confirmed",
	}
	if err := r.store.InsertBooking(ctx, booking); err != nil {
		// The slot is reserved and paid; the denormalized record is
		// display data and must not unwind the booking.
		r.log.Error("booking record write failed",
			zap.String("classId", class.ID), zap.String("studentId", studentID), zap.Error(err))
	}

	r.changed("booked", class)
	return class, nil
}

// release undoes a reservation after a failed debit. Best effort: a failed
// rollback is logged and the reservation stands, surfaced by the original
// deduction error.
func (r *ClassRegistry) release(ctx context.Context, class models.ClassSlot) {
	fields := map[string]any{"isAvailable": true, "studentId": ""}
	if err := r.store.UpdateClass(ctx, class.ID, fields); err != nil {
		r.log.Error("reservation rollback failed", zap.String("classId", class.ID), zap.Error(err))
		return
	}
	class.IsAvailable = true
	class.StudentID = ""
	r.overlay(class)
}

// MarkFinished transitions a Booked slot to Finished and accrues the credit
// cost to the creator. Finished is terminal. Only the creator or a Coach may
// finish a slot. Accrual is dispatched best-effort and cannot fail the call.
func (r *ClassRegistry) MarkFinished(ctx context.Context, classID, actingID string) (models.ClassSlot, error) {
	if actingID == "" {
		return models.ClassSlot{}, ErrNoIdentity
	}

	class, err := r.class(ctx, classID)
	if err != nil {
		return models.ClassSlot{}, err
	}
	if !r.mayManage(ctx, class, actingID) {
		return models.ClassSlot{}, &AuthorizationError{UserID: actingID, Op: "finish class " + classID}
	}
	if class.IsFinished {
		return models.ClassSlot{}, &InvalidStateError{ClassID: classID, Status: class.Status(), Op: "finish"}
	}
	if class.IsAvailable {
		return models.ClassSlot{}, &InvalidStateError{ClassID: classID, Status: class.Status(), Op: "finish"}
	}

	if err := r.store.UpdateClass(ctx, classID, map[string]any{"isFinished": true}); err != nil {
		return models.ClassSlot{}, &PersistenceError{Op: "finish class", Err: err}
	}
	class.IsFinished = true
	r.overlay(class)

	r.accrue.Accrue(ctx, Accrual{
		CoachID:   class.CreatedBy,
		Amount:    class.CreditCost,
		StudentID: class.StudentID,
		ClassID:   class.ID,
		ClassTime: class.ClassTime,
	})

	r.changed("finished", class)
	return class, nil
}

// UpdateClassFields carries the optional edits; nil means "leave as is".
type UpdateClassFields struct {
	InstructorName *string
	Date           *time.Time
	StartTime      *time.Time
	EndTime        *time.Time
	CreditCost     *int
}

func (f UpdateClassFields) empty() bool {
	return f.InstructorName == nil && f.Date == nil && f.StartTime == nil &&
		f.EndTime == nil && f.CreditCost == nil
}

// Update edits the provided fields only, recomputing the time label when the
// schedule changes. A call with no fields is a no-op returning the slot
// unchanged. Creator or Coach only.
func (r *ClassRegistry) Update(ctx context.Context, classID, actingID string, f UpdateClassFields) (models.ClassSlot, error) {
	if actingID == "" {
		return models.ClassSlot{}, ErrNoIdentity
	}

	class, err := r.class(ctx, classID)
	if err != nil {
		return models.ClassSlot{}, err
	}
	if f.empty() {
		return class, nil
	}
	if !r.mayManage(ctx, class, actingID) {
		return models.ClassSlot{}, &AuthorizationError{UserID: actingID, Op: "edit class " + classID}
	}

	fields := map[string]any{}
	if f.InstructorName != nil {
		class.InstructorName = *f.InstructorName
		fields["instructorName"] = class.InstructorName
	}
	if f.CreditCost != nil {
		if *f.CreditCost < 0 {
			return models.ClassSlot{}, ErrInvalidAmount
		}
		class.CreditCost = *f.CreditCost
		fields["creditCost"] = class.CreditCost
	}

	if f.Date != nil || f.StartTime != nil || f.EndTime != nil {
		date := class.Date
		if f.Date != nil {
			date = *f.Date
		}
		start := class.StartTime
		if f.StartTime != nil {
			start = *f.StartTime
		}
		end := class.EndTime
		if f.EndTime != nil {
			end = *f.EndTime
		}

		class.Date = r.startOfDay(date)
		class.StartTime = r.onDate(date, start)
		class.EndTime = r.onDate(date, end)
		fields["date"] = class.Date
		fields["startTime"] = class.StartTime
		fields["endTime"] = class.EndTime

		if f.StartTime != nil || f.EndTime != nil {
			class.ClassTime = timeLabel(class.StartTime, class.EndTime)
			fields["classTime"] = class.ClassTime
		}
	}

	if err := r.store.UpdateClass(ctx, classID, fields); err != nil {
		return models.ClassSlot{}, &PersistenceError{Op: "update class", Err: err}
	}
	r.overlay(class)

	r.changed("updated", class)
	return class, nil
}

// Delete hard-removes the slot in any state. Creator or Coach only.
func (r *ClassRegistry) Delete(ctx context.Context, classID, actingID string) error {
	if actingID == "" {
		return ErrNoIdentity
	}

	class, err := r.class(ctx, classID)
	if err != nil {
		return err
	}
	if !r.mayManage(ctx, class, actingID) {
		return &AuthorizationError{UserID: actingID, Op: "delete class " + classID}
	}

	if err := r.store.DeleteClass(ctx, classID); err != nil {
		return &PersistenceError{Op: "delete class", Err: err}
	}

	r.mu.Lock()
	delete(r.pending, classID)
	r.mu.Unlock()

	r.changed("deleted", class)
	return nil
}

// ListForDate returns all slots on the given calendar day in the registry's
// reference timezone, pending overlay consulted first, de-duplicated by id
// and ordered by start time.
func (r *ClassRegistry) ListForDate(ctx context.Context, date time.Time) ([]models.ClassSlot, error) {
	from := r.startOfDay(date)
	to := from.AddDate(0, 0, 1)

	stored, err := r.store.ClassesBetween(ctx, from, to)
	if err != nil {
		return nil, &PersistenceError{Op: "list classes", Err: err}
	}

	seen := make(map[string]bool, len(stored))
	classes := make([]models.ClassSlot, 0, len(stored))

	r.mu.Lock()
	for _, c := range stored {
		// Persisted now; the overlay copy has served its purpose.
		delete(r.pending, c.ID)
	}
	for _, c := range r.pending {
		if !c.Date.Before(from) && c.Date.Before(to) {
			classes = append(classes, c)
			seen[c.ID] = true
		}
	}
	r.mu.Unlock()

	for _, c := range stored {
		if !seen[c.ID] {
			classes = append(classes, c)
			seen[c.ID] = true
		}
	}

	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].StartTime.Before(classes[j].StartTime)
	})
	return classes, nil
}

// ListAvailableForDate is ListForDate filtered to bookable slots.
func (r *ClassRegistry) ListAvailableForDate(ctx context.Context, date time.Time) ([]models.ClassSlot, error) {
	all, err := r.ListForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	available := all[:0:0]
	for _, c := range all {
		if c.IsAvailable {
			available = append(available, c)
		}
	}
	return available, nil
}

// Get returns a single slot by id.
func (r *ClassRegistry) Get(ctx context.Context, classID string) (models.ClassSlot, error) {
	return r.class(ctx, classID)
}

// ---------- internals ----------

func (r *ClassRegistry) class(ctx context.Context, id string) (models.ClassSlot, error) {
	r.mu.Lock()
	if c, ok := r.pending[id]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	c, found, err := r.store.Class(ctx, id)
	if err != nil {
		return models.ClassSlot{}, &PersistenceError{Op: "read class", Err: err}
	}
	if !found {
		return models.ClassSlot{}, ErrClassNotFound
	}
	return c, nil
}

// overlay refreshes the pending copy if one is still tracked, so reads that
// race the store stay coherent with the latest mutation.
func (r *ClassRegistry) overlay(class models.ClassSlot) {
	r.mu.Lock()
	if _, ok := r.pending[class.ID]; ok {
		r.pending[class.ID] = class
	}
	r.mu.Unlock()
}

func (r *ClassRegistry) mayManage(ctx context.Context, class models.ClassSlot, actingID string) bool {
	return actingID == class.CreatedBy || r.gate.HasCoachRole(ctx, actingID)
}

// instructorName resolves the display name: explicit argument, then profile
// lookup, then a generic fallback. Best effort only.
func (r *ClassRegistry) instructorName(ctx context.Context, explicit, createdBy string) string {
	if explicit != "" {
		return explicit
	}
	if name, err := r.profiles.DisplayName(ctx, createdBy); err == nil && name != "" {
		return name
	}
	return "Coach"
}

func (r *ClassRegistry) startOfDay(t time.Time) time.Time {
	y, mo, d := t.In(r.loc).Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, r.loc)
}

// onDate keeps the clock from t and the calendar day from date.
func (r *ClassRegistry) onDate(date, t time.Time) time.Time {
	y, mo, d := date.In(r.loc).Date()
	clock := t.In(r.loc)
	return time.Date(y, mo, d, clock.Hour(), clock.Minute(), clock.Second(), 0, r.loc)
}

func timeLabel(start, end time.Time) string {
	return start.Format("3:04 PM") + " - " + end.Format("3:04 PM")
}

func (r *ClassRegistry) changed(action string, class models.ClassSlot) {
	if r.notify != nil {
		r.notify.ClassChanged(action, class)
	}
}
