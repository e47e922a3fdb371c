package models

import "time"

// SessionStatus is the lifecycle state of a booked session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionUpcoming  SessionStatus = "upcoming"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// ActiveSessionStatuses hold their slot: at most one session per slot may be in one of them.
var ActiveSessionStatuses = []SessionStatus{SessionPending, SessionUpcoming}

// Active reports whether the status holds the slot.
func (s SessionStatus) Active() bool {
	return s == SessionPending || s == SessionUpcoming
}

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionUpcoming, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// DefaultSessionDuration is the length of a session in minutes.
const DefaultSessionDuration = 50

// Session is the durable record of a booking.
// Specialist name, photo, specialty and price are captured at booking time and never refreshed.
type Session struct {
	ID               string        `bson:"id" json:"id"`
	SpecialistID     string        `bson:"specialistId" json:"specialistId"`
	UserID           string        `bson:"userId" json:"-"`
	SpecialistName   string        `bson:"specialistName" json:"specialistName"`
	SpecialistPhoto  string        `bson:"specialistPhoto" json:"specialistPhoto"`
	Specialty        string        `bson:"specialty" json:"specialty"`
	Date             string        `bson:"date" json:"date"` // YYYY-MM-DD
	Time             string        `bson:"time" json:"time"` // HH:MM
	Duration         int           `bson:"duration" json:"duration"`
	Price            int           `bson:"price" json:"price"`
	Status           SessionStatus `bson:"status" json:"status"`
	MeetingLink      string        `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	PreparationNotes string        `bson:"preparationNotes,omitempty" json:"preparationNotes,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// SlotKey identifies the unit of booking exclusivity.
func SlotKey(specialistID, date, clock string) string {
	return specialistID + "|" + date + "|" + clock
}

// SlotKey returns the session's slot key.
func (s *Session) SlotKey() string {
	return SlotKey(s.SpecialistID, s.Date, s.Time)
}
