package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

const unknownName = "Unknown"

type EventService struct {
	repo  ports.EventRepository
	users ports.CredentialStore
	idem  ports.IdempotencyStore
	audit ports.AuditSink
	log   zerolog.Logger
}

func NewEventService(
	repo ports.EventRepository,
	users ports.CredentialStore,
	idem ports.IdempotencyStore,
	audit ports.AuditSink,
	log zerolog.Logger,
) *EventService {
	return &EventService{repo: repo, users: users, idem: idem, audit: audit, log: log}
}

func (s *EventService) List(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, unavailable("list events", err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, unavailable("find event", err)
	}
	return e, nil
}

// Create stores a new event hosted by subject. When idempotencyKey was seen
// before for the same subject, the earlier event is returned untouched.
func (s *EventService) Create(ctx context.Context, subject *authz.Subject, in ports.EventInput, idempotencyKey string) (*ports.CreateEventResult, error) {
	if err := authz.Authorize(subject, authz.Requirement{}).Err(); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		id, found, err := s.idem.Lookup(ctx, subject.UserID, idempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("idempotency lookup failed, creating anyway")
		} else if found {
			existing, err := s.Get(ctx, id)
			if err == nil {
				s.log.Info().Str("idempotency_key", idempotencyKey).Str("event_id", id).Msg("idempotent replay")
				return &ports.CreateEventResult{Event: existing, AlreadyExisted: true}, nil
			}
			if !errors.Is(err, domain.ErrEventNotFound) {
				return nil, err
			}
		}
	}

	exists, err := s.repo.NameExists(ctx, in.Name)
	if err != nil {
		return nil, unavailable("check event name", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEventName
	}

	now := time.Now().UTC()
	e := &domain.Event{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Date:         in.Date,
		Location:     in.Location,
		HostUserID:   subject.UserID,
		HostUserName: subject.Username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		if errors.Is(err, domain.ErrDuplicateEventName) {
			return nil, err
		}
		s.log.Error().Err(err).Msg("failed to create event")
		return nil, unavailable("create event", err)
	}

	if idempotencyKey != "" {
		if err := s.idem.Remember(ctx, subject.UserID, idempotencyKey, e.ID); err != nil {
			s.log.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.log.Info().Str("event_id", e.ID).Str("host_user_id", e.HostUserID).Msg("event created")
	return &ports.CreateEventResult{Event: e}, nil
}

// Update is allowed for admins and for the event's host.
func (s *EventService) Update(ctx context.Context, subject *authz.Subject, id string, in ports.EventInput) (*domain.Event, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeMutation(subject, e, "update"); err != nil {
		return nil, err
	}

	if in.Name != e.Name {
		exists, err := s.repo.NameExists(ctx, in.Name)
		if err != nil {
			return nil, unavailable("check event name", err)
		}
		if exists {
			return nil, domain.ErrDuplicateEventName
		}
	}

	e.Name = in.Name
	e.Description = in.Description
	e.Date = in.Date
	e.Location = in.Location
	e.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, e); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) || errors.Is(err, domain.ErrDuplicateEventName) {
			return nil, err
		}
		return nil, unavailable("update event", err)
	}

	s.log.Info().Str("event_id", e.ID).Str("user_id", subject.UserID).Msg("event updated")
	return e, nil
}

// Delete is allowed for admins and for the event's host.
func (s *EventService) Delete(ctx context.Context, subject *authz.Subject, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(subject, e, "delete"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return err
		}
		return unavailable("delete event", err)
	}

	s.log.Info().Str("event_id", id).Str("user_id", subject.UserID).Msg("event deleted")
	return nil
}

func (s *EventService) RegisterAttendee(ctx context.Context, eventID, userID string) error {
	if _, err := s.Get(ctx, eventID); err != nil {
		return err
	}

	reg := &domain.EventRegistration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.repo.AddRegistration(ctx, reg); err != nil {
		return unavailable("add registration", err)
	}

	s.log.Info().Str("event_id", eventID).Str("user_id", userID).Msg("attendee registered")
	return nil
}

// ListAttendees joins the event's registrations with the registrants'
// credentials. Missing users or events are reported as "Unknown".
func (s *EventService) ListAttendees(ctx context.Context, eventID string) ([]ports.Attendee, error) {
	regs, err := s.repo.ListRegistrations(ctx, eventID)
	if err != nil {
		return nil, unavailable("list registrations", err)
	}

	eventName := unknownName
	if e, err := s.Get(ctx, eventID); err == nil {
		eventName = e.Name
	} else if !errors.Is(err, domain.ErrEventNotFound) {
		return nil, err
	}

	ids := make([]string, 0, len(regs))
	seen := make(map[string]struct{}, len(regs))
	for _, r := range regs {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	byID := make(map[string]*domain.User, len(ids))
	if len(ids) > 0 {
		users, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, unavailable("find attendees", err)
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	attendees := make([]ports.Attendee, 0, len(regs))
	for _, r := range regs {
		a := ports.Attendee{
			EventID:   r.EventID,
			UserID:    r.UserID,
			UserName:  unknownName,
			Name:      unknownName,
			EventName: eventName,
		}
		if u, ok := byID[r.UserID]; ok {
			a.UserName = u.Username
			if u.Name != "" {
				a.Name = u.Name
			}
		}
		attendees = append(attendees, a)
	}
	return attendees, nil
}

func (s *EventService) authorizeMutation(subject *authz.Subject, e *domain.Event, action string) error {
	d := authz.Authorize(subject, authz.Requirement{Role: domain.RoleAdmin, OwnerID: e.OwnerID()})
	if d.Allowed {
		return nil
	}

	entry := domain.AuditEntry{
		Kind:       domain.AuditAccessForbidden,
		Reason:     d.Reason,
		Path:       action + " event " + e.ID,
		OccurredAt: time.Now().UTC(),
	}
	if subject != nil {
		entry.Subject = subject.UserID
		entry.Username = subject.Username
	}
	s.log.Warn().
		Str("subject", entry.Subject).
		Str("event_id", e.ID).
		Str("action", action).
		Str("reason", d.Reason).
		Msg("access forbidden")
	s.audit.Record(entry)

	return d.Err()
}
