package models

import "time"

// BookingRequest is the immutable input of one booking run.
type BookingRequest struct {
	SessionID    string `json:"session_id"`
	SpecialistID string `json:"specialist_id"`
	UserID       string `json:"user_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// SessionSnapshot is what later booking steps need to know about the created session.
type SessionSnapshot struct {
	SessionID      string `json:"session_id"`
	SpecialistName string `json:"specialist_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

// BookingOutcome is the single result of a booking run.
// MeetingLink is set iff Success; Error and ErrorKind are set iff not.
type BookingOutcome struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"session_id"`
	MeetingLink string `json:"meeting_link,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// RunRecord is the journaled progress of a booking run.
type RunRecord struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	SpecialistID string    `json:"specialist_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	State        string    `json:"state"`
	Steps        []string  `json:"steps"` // states reached, in order
	MeetingLink  string    `json:"meeting_link,omitempty"`
	Error        string    `json:"error,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}
