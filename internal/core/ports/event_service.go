package ports

import (
	"context"
	"time"

	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
)

// EventInput carries the mutable fields of an event.
type EventInput struct {
	Name        string
	Description string
	Date        time.Time
	Location    string
}

// CreateEventResult is returned after creating an event.
type CreateEventResult struct {
	Event *domain.Event
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// Attendee is a registration joined with the registrant's credential.
type Attendee struct {
	EventID   string
	UserID    string
	UserName  string
	Name      string
	EventName string
}

// EventService defines the event use cases. Mutations take the caller's
// subject so ownership can be checked against the stored host.
type EventService interface {
	List(ctx context.Context) ([]*domain.Event, error)
	Get(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, subject *authz.Subject, in EventInput, idempotencyKey string) (*CreateEventResult, error)
	Update(ctx context.Context, subject *authz.Subject, id string, in EventInput) (*domain.Event, error)
	Delete(ctx context.Context, subject *authz.Subject, id string) error
	RegisterAttendee(ctx context.Context, eventID, userID string) error
	ListAttendees(ctx context.Context, eventID string) ([]Attendee, error)
}
