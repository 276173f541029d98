package types

import "time"

// Role is the authorization level of a user within the payment ledger.
type Role string

const (
	// RoleAdmin has full access, including user management and payment deletion.
	RoleAdmin Role = "ADMIN"

	// RoleFinanceManager can create and update payments.
	RoleFinanceManager Role = "FINANCE_MANAGER"

	// RoleViewer has read-only access to payments.
	RoleViewer Role = "VIEWER"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFinanceManager, RoleViewer:
		return true
	default:
		return false
	}
}

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across accounts and
	// serves as the login identifier and token subject.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
