package domain

import "time"

// AuditKind classifies an audit trail entry.
type AuditKind string

const (
	AuditLoginSucceeded        AuditKind = "login_succeeded"
	AuditLoginFailed           AuditKind = "login_failed"
	AuditRegistrationSucceeded AuditKind = "registration_succeeded"
	AuditRegistrationFailed    AuditKind = "registration_failed"
	// AuditTokenRejected is a failed authentication: the bearer token did not validate.
	AuditTokenRejected AuditKind = "token_rejected"
	// AuditAccessForbidden is a failed authorization: a valid subject lacked role or ownership.
	AuditAccessForbidden AuditKind = "access_forbidden"
)

// AuditEntry records a security relevant outcome.
type AuditEntry struct {
	Kind       AuditKind
	Username   string
	Subject    string
	Reason     string
	Path       string
	OccurredAt time.Time
}

// ShardKey returns the value used to keep a single actor's entries in order.
func (a AuditEntry) ShardKey() string {
	if a.Subject != "" {
		return a.Subject
	}
	return a.Username
}
