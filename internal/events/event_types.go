package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventPasswordResetCompleted EventType = "password_reset_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Email     string      `json:"email"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID           string `json:"user_id"`
	FirstName        string `json:"first_name"`
	VerificationCode string `json:"verification_code"`
}

// PasswordResetCompletedPayload payload.
type PasswordResetCompletedPayload struct {
	UserID string `json:"user_id"`
}
