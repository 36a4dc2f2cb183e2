package domain

import "time"

// PasswordResetToken binds a pending reset token to an email address.
// Rows are deleted once consumed; expiry is enforced at validation time.
type PasswordResetToken struct {
	ID        string
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
