package ports

import (
	"context"

	"github.com/eventplanner/event-api/internal/core/domain"
)

// EventRepository persists events and their attendee registrations.
type EventRepository interface {
	// Create returns domain.ErrDuplicateEventName on a name collision.
	Create(ctx context.Context, e *domain.Event) error
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context) ([]*domain.Event, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id string) error

	AddRegistration(ctx context.Context, r *domain.EventRegistration) error
	ListRegistrations(ctx context.Context, eventID string) ([]*domain.EventRegistration, error)
}

// IdempotencyStore remembers which event a client-supplied key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (string, bool, error)
	Remember(ctx context.Context, scope, key, eventID string) error
}
