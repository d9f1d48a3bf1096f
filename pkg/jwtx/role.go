package jwtx

// Role is the authorization role carried in a verified session token.
type Role string

const (
	// RoleNone is the unauthenticated role.
	RoleNone     Role = ""
	RoleAdmin    Role = "ROLE_ADMIN"
	RoleCustomer Role = "ROLE_CUSTOMER"
	RoleEmployee Role = "ROLE_EMPLOYEE"
)

// Known reports whether r is one of the roles the portal understands.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleEmployee:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
