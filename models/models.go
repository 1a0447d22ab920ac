package models

import "time"

// Roles carried on user profiles and JWT claims.
const (
	RoleStudent = "Student"
	RoleCoach   = "Coach"
	RoleManager = "Manager"
	RoleUnknown = "Unknown"
)

type User struct {
	UserID          string    `json:"userId" bson:"userId"`
	Email           string    `json:"email" bson:"email"`
	PasswordHash    string    `json:"-" bson:"passwordHash"`
	FirstName       string    `json:"firstName" bson:"firstName"`
	LastName        string    `json:"lastName" bson:"lastName"`
	Role            string    `json:"role" bson:"role"`
	Credits         int       `json:"credits" bson:"credits"`
	PhoneNumber     string    `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	ProfileImageURL string    `json:"profileImageURL,omitempty" bson:"profileImageURL,omitempty"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DisplayName is the "First Last" label shown on class slots.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return ""
}

// ClassSlot lifecycle: Available -> Booked -> Finished (terminal).
// isFinished implies !isAvailable; an available slot has no student attached.
type ClassSlot struct {
	ID             string    `json:"id" bson:"id"`
	InstructorName string    `json:"instructorName" bson:"instructorName"`
	ClassTime      string    `json:"classTime" bson:"classTime"`
	Date           time.Time `json:"date" bson:"date"`
	StartTime      time.Time `json:"startTime" bson:"startTime"`
	EndTime        time.Time `json:"endTime" bson:"endTime"`
	StudentID      string    `json:"studentId,omitempty" bson:"studentId,omitempty"`
	CreditCost     int       `json:"creditCost" bson:"creditCost"`
	IsAvailable    bool      `json:"isAvailable" bson:"isAvailable"`
	IsFinished     bool      `json:"isFinished" bson:"isFinished"`
	CreatedBy      string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
}

const (
	ClassStatusAvailable = "Available"
	ClassStatusBooked    = "Booked"
	ClassStatusCompleted = "Completed"
)

// Status derives the display status from the two flags.
func (c ClassSlot) Status() string {
	if c.IsFinished {
		return ClassStatusCompleted
	}
	if c.IsAvailable {
		return ClassStatusAvailable
	}
	return ClassStatusBooked
}

// Credit transaction kinds.
const (
	TxAdd    = "add"
	TxDeduct = "deduct"
)

// CreditTransaction is an immutable ledger entry; Balance is the
// post-operation snapshot.
type CreditTransaction struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Amount    int       `json:"amount" bson:"amount"`
	Type      string    `json:"type" bson:"type"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Balance   int       `json:"balance" bson:"balance"`
}

// CoachEarnings is the cumulative accrual document per coach.
type CoachEarnings struct {
	CoachID       string    `json:"coachId" bson:"coachId"`
	TotalEarnings int       `json:"totalEarnings" bson:"totalEarnings"`
	LastUpdated   time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

type EarningTransaction struct {
	ID        string    `json:"id" bson:"id"`
	CoachID   string    `json:"coachId" bson:"coachId"`
	Amount    int       `json:"amount" bson:"amount"`
	StudentID string    `json:"studentId,omitempty" bson:"studentId,omitempty"`
	ClassID   string    `json:"classId,omitempty" bson:"classId,omitempty"`
	ClassTime string    `json:"classTime,omitempty" bson:"classTime,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Booking is the denormalized record written when a student books a slot.
type Booking struct {
	ID             string    `json:"id" bson:"id"`
	CoachID        string    `json:"coachId" bson:"coachId"`
	StudentID      string    `json:"studentId" bson:"studentId"`
	ClassID        string    `json:"classId" bson:"classId"`
	ClassTime      string    `json:"classTime" bson:"classTime"`
	Cost           int       `json:"cost" bson:"cost"`
	BookedAt       time.Time `json:"bookedAt" bson:"bookedAt"`
	Date           time.Time `json:"date" bson:"date"`
	InstructorName string    `json:"instructorName" bson:"instructorName"`
	CreatedBy      string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Status         string    `json:"status" bson:"status"`
}
