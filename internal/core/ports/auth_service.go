package ports

import (
	"context"

	"github.com/eventplanner/event-api/internal/core/domain"
)

// RegistrationInput carries the fields a client supplies when registering.
type RegistrationInput struct {
	Username string
	Password string
	Email    string
	Name     string
}

// AuthResult is the uniform outcome of Register and Login. On a successful
// login Message holds the signed token. Failure is nil on success and one of
// the domain sentinels otherwise.
type AuthResult struct {
	Success bool
	Message string
	Failure error
}

// AuthService registers users and issues tokens. Credential failures are
// reported in AuthResult; the error return is reserved for store outages.
type AuthService interface {
	Register(ctx context.Context, in RegistrationInput, role string) (AuthResult, error)
	Login(ctx context.Context, username, password string) (AuthResult, error)
}

// TokenIssuer signs and validates bearer tokens.
type TokenIssuer interface {
	Issue(claims domain.Claims) (string, error)
	TokenValidator
}

// TokenValidator validates a bearer token. Every failure is domain.ErrInvalidToken.
type TokenValidator interface {
	Validate(token string) (*domain.Claims, error)
}
