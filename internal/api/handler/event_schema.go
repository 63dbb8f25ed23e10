package handler

import "time"

type eventRequest struct {
	Name        string    `json:"name"        validate:"required,max=50"`
	Description string    `json:"description" validate:"max=500"`
	Date        time.Time `json:"date"        validate:"required"`
	Location    string    `json:"location"    validate:"required,max=100"`
}

type eventLinks struct {
	Self      string `json:"self"`
	Attendees string `json:"attendees"`
}

type eventResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Date         string     `json:"date"`
	Location     string     `json:"location"`
	HostUserID   string     `json:"host_user_id"`
	HostUserName string     `json:"host_user_name"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
	Links        eventLinks `json:"_links"`
}

type attendeeResponse struct {
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Name      string `json:"name"`
}
