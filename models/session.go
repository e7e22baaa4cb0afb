package models

import "time"

// UserRole is the access level granted at login.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

// Session is the per-user login state carried by every authenticated request.
type Session struct {
	ID            string    `json:"id"`
	Role          UserRole  `json:"role"`
	Authenticated bool      `json:"authenticated"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Authenticated && s.Role == RoleAdmin
}
