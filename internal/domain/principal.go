package domain

// Role differentiates user vs admin tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the verified identity derived from a request token. It
// is rebuilt from the token on every request and never persisted. A
// RoleUser principal carries the stored user id and email; a RoleAdmin
// principal carries only the admin email, since the admin has no
// underlying user record.
type Principal struct {
	Role   Role
	UserID string
	Email  string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsUser reports whether the principal is an authenticated end-user.
func (p Principal) IsUser() bool {
	return p.Role == RoleUser
}
