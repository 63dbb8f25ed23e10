package domain

import "time"

// TokenLifetime is the fixed validity window of an issued token.
const TokenLifetime = 3 * time.Hour

// Claims is the identity carried by a bearer token. Tokens are never stored
// server side; a token is valid purely by signature and expiry.
type Claims struct {
	Subject   string
	Username  string
	Roles     RoleSet
	ID        string // jti
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
