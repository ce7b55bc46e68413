package models

import (
	"encoding/json"
	"time"
)

// Recognized user roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// NormalizeRole returns RoleAdmin only for an explicit "admin" request.
func NormalizeRole(role string) string {
	if role == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// RequestedRole reads the role a client asked for. Any JSON value other than
// a string yields "", which NormalizeRole treats as a plain user.
func RequestedRole(raw json.RawMessage) string {
	var role string
	if err := json.Unmarshal(raw, &role); err != nil {
		return ""
	}
	return role
}

// User represents a user in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns the view of the user that is safe to hand to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// PublicUser is the identity carried in tokens and returned by the API.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user holds the admin role.
func (u PublicUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}
