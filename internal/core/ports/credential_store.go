package ports

import (
	"context"

	"github.com/eventplanner/event-api/internal/core/domain"
)

// CredentialStore is the durable record of users and roles. Password hashing
// is the store's concern: callers hand over plaintext once at creation and
// ask the store to verify afterwards.
type CredentialStore interface {
	// FindByUsername matches on domain.NormalizeUsername and returns
	// domain.ErrUserNotFound when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByIDs returns the users that exist among ids; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	// CreateWithPassword hashes password and inserts the user. A username
	// collision, ignoring case and including one lost in a concurrent race,
	// yields domain.ErrDuplicateUser.
	CreateWithPassword(ctx context.Context, user *domain.User, password string) (*domain.User, error)
	CheckPassword(ctx context.Context, user *domain.User, password string) (bool, error)
	GetRoles(ctx context.Context, userID string) (domain.RoleSet, error)
	RoleExists(ctx context.Context, name string) (bool, error)
	// CreateRole is idempotent: creating an existing role is not an error.
	CreateRole(ctx context.Context, name string) error
	AddToRole(ctx context.Context, userID, role string) error
	// Delete removes the user. Deleting an unknown user is not an error.
	Delete(ctx context.Context, userID string) error
}

// PasswordHasher hashes and verifies passwords for a CredentialStore.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}
