package domain

import "time"

// Role is the closed set of caller roles. Adding a role forces every switch
// over this type to be revisited, the ticket access policy in particular.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}

// User is the identity record for every caller: admins, agents and customers.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// Identity is the subset of User carried inside issued credentials.
type Identity struct {
	ID    int64
	Name  string
	Email string
	Role  Role
}
