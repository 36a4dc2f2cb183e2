package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// UserRole differentiates regular accounts from administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User is the domain model for registered accounts.
type User struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            *string
	PasswordHash     string
	AccountBalance   float64
	Status           UserStatus
	Role             UserRole
	Description      *string
	VerificationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
