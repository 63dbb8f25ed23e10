// Package authz decides whether a subject may perform an operation. The
// decision is a pure function of the token's claims and the owner recorded on
// the target resource; it never consults a store.
package authz

import (
	"fmt"

	"github.com/eventplanner/event-api/internal/core/domain"
)

const (
	ReasonUnauthenticated = "authentication required"
	ReasonNotAdminOrOwner = "not admin or owner"
	ReasonNotOwner        = "not owner"
)

// Subject is the request-scoped identity derived from a validated token.
type Subject struct {
	UserID   string
	Username string
	Roles    domain.RoleSet
}

// SubjectFromClaims builds the authorization subject for a validated token.
func SubjectFromClaims(c *domain.Claims) *Subject {
	if c == nil {
		return nil
	}
	return &Subject{
		UserID:   c.Subject,
		Username: c.Username,
		Roles:    domain.NewRoleSet(c.Roles...),
	}
}

// Requirement describes what an operation demands of its caller.
type Requirement struct {
	// Public operations admit anonymous callers.
	Public bool
	// Role, when set, is sufficient on its own to allow the operation.
	Role string
	// OwnerID, when set, allows the subject whose id equals it.
	OwnerID string
}

// Decision is the verdict of Authorize. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Err returns nil for an allowed decision and a wrapped domain.ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrForbidden, d.Reason)
}

// Authorize combines role membership and resource ownership. A nil subject
// is anonymous.
func Authorize(subject *Subject, req Requirement) Decision {
	if subject == nil {
		if req.Public {
			return allow()
		}
		return deny(ReasonUnauthenticated)
	}

	hasRole := req.Role != "" && subject.Roles.Has(req.Role)
	isOwner := req.OwnerID != "" && subject.UserID == req.OwnerID

	switch {
	case req.Role != "" && req.OwnerID != "":
		if hasRole || isOwner {
			return allow()
		}
		return deny(ReasonNotAdminOrOwner)
	case req.Role != "":
		if hasRole {
			return allow()
		}
		return deny("missing role " + req.Role)
	case req.OwnerID != "":
		if isOwner {
			return allow()
		}
		return deny(ReasonNotOwner)
	default:
		return allow()
	}
}
