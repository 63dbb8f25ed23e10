package handler

import (
	"time"

	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

// --- Request → Service input ---

func toEventInput(req eventRequest) ports.EventInput {
	return ports.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date.UTC(),
		Location:    req.Location,
	}
}

// --- Domain → Response ---

func toEventResponse(e *domain.Event) eventResponse {
	self := "/api/Events/" + e.ID
	return eventResponse{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		Date:         e.Date.UTC().Format(time.RFC3339),
		Location:     e.Location,
		HostUserID:   e.HostUserID,
		HostUserName: e.HostUserName,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.UTC().Format(time.RFC3339),
		Links: eventLinks{
			Self:      self,
			Attendees: self + "/attendees",
		},
	}
}

func toEventResponses(events []*domain.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

func toAttendeeResponses(attendees []ports.Attendee) []attendeeResponse {
	out := make([]attendeeResponse, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, attendeeResponse{
			EventID:   a.EventID,
			EventName: a.EventName,
			UserID:    a.UserID,
			UserName:  a.UserName,
			Name:      a.Name,
		})
	}
	return out
}
