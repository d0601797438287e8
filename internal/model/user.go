package model

import (
	"database/sql"
	"time"
)

// Role is the account type stored in users.role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

// Status is the lifecycle state stored in users.status.  Vendors start
// pending and move to active or rejected through the approval workflow;
// admins toggle active and suspended.
type Status string

const (
	StatusActive    Status = "active"
	StatusPending   Status = "pending"
	StatusSuspended Status = "suspended"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusSuspended, StatusRejected:
		return true
	}
	return false
}

// User represents a row of the `users` table.
type User struct {
	ID                  uint64         // users.id
	FullName            string         // users.full_name
	Email               string         // users.email (stored lower-cased)
	PasswordHash        string         // users.password_hash (bcrypt)
	Role                Role           // users.role
	Status              Status         // users.status
	ShopName            sql.NullString // users.shop_name, declared by vendors at registration
	Phone               sql.NullString // users.phone
	WhatsApp            sql.NullString // users.whatsapp_number
	FailedLoginAttempts int            // users.failed_login_attempts
	LastFailedLogin     sql.NullTime   // users.last_failed_login
	LastLoginAt         sql.NullTime   // users.last_login_at
	RememberToken       sql.NullString // users.remember_token
	ApprovedBy          sql.NullInt64  // users.approved_by
	CreatedAt           time.Time      // users.created_at
}

// IsActiveVendor reports whether the user may manage listings.
func (u User) IsActiveVendor() bool { return u.Role == RoleVendor && u.Status == StatusActive }
