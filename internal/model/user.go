package model

import "time"

// Roles carried in access tokens.  ADMIN is the elevated venue role that
// may bypass ownership checks.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Accounts are created by the identity service; this module only
// reads them to resolve owners and project emails.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique email address.
//  Role      – CUSTOMER or ADMIN.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	Role      string    // users.role
	IsActive  bool      // users.is_active
	CreatedAt time.Time // users.created_at
}
