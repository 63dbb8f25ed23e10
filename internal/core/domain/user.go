package domain

import (
	"strings"
	"time"
)

// NameMaxLength is the longest display name a credential may carry.
const NameMaxLength = 30

// User models a registered credential.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	Name          string    `json:"name,omitempty"`
	PasswordHash  string    `json:"-"`
	SecurityStamp string    `json:"-"`
	Roles         RoleSet   `json:"roles,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeUsername returns the lookup key for username. Usernames that
// differ only in case name the same credential.
func NormalizeUsername(username string) string {
	return strings.ToUpper(username)
}
