package models

// ConfirmationPayload is the body of a confirmation-send task.
type ConfirmationPayload struct {
	UserID  string          `json:"user_id"`
	Session SessionSnapshot `json:"session"`
}

// ReminderPayload is the body of a reminder-send task.
type ReminderPayload struct {
	ReminderID string          `json:"reminder_id"`
	UserID     string          `json:"user_id"`
	Session    SessionSnapshot `json:"session"`
	FireDate   string          `json:"fire_date"` // RFC 3339
	Title      string          `json:"title"`
	Body       string          `json:"body"`
}
