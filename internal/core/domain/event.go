package domain

import "time"

// EventNameMaxLength bounds the length of an event name.
const EventNameMaxLength = 50

// Event is a planned gathering. HostUserID records its owner.
type Event struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Description  string    `json:"description" bson:"description"`
	Date         time.Time `json:"date" bson:"date"`
	Location     string    `json:"location" bson:"location"`
	HostUserID   string    `json:"host_user_id" bson:"host_user_id"`
	HostUserName string    `json:"host_user_name" bson:"host_user_name"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// OwnerID returns the id of the user who hosts the event.
func (e *Event) OwnerID() string {
	return e.HostUserID
}

// EventRegistration links an attendee to an event.
type EventRegistration struct {
	ID           string    `json:"id" bson:"_id"`
	EventID      string    `json:"event_id" bson:"event_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	RegisteredAt time.Time `json:"registered_at" bson:"registered_at"`
}
