package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventplanner/event-api/internal/api/metrics"
	"github.com/eventplanner/event-api/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// EventHandler handles HTTP requests for event operations.
type EventHandler struct {
	service ports.EventService
}

func NewEventHandler(service ports.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// List handles GET /api/Events.
//
// @Summary      List events
// @Tags         events
// @Produce      json
// @Success      200  {array}   eventResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/Events [get]
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

// Get handles GET /api/Events/:eventId.
//
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path      string  true  "Event ID"
// @Success      200      {object}  eventResponse
// @Failure      401      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /api/Events/{eventId} [get]
func (h *EventHandler) Get(c echo.Context) error {
	e, err := h.service.Get(c.Request().Context(), c.Param("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Create handles POST /api/Events. The caller becomes the event's host. A
// repeated Idempotency-Key returns the original event with 200.
//
// @Summary      Create an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string        false  "Idempotency key"
// @Param        body             body      eventRequest  true   "Event details"
// @Success      201              {object}  eventResponse
// @Success      200              {object}  eventResponse  "Idempotent replay"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /api/Events [post]
func (h *EventHandler) Create(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	res, err := h.service.Create(c.Request().Context(), subject, toEventInput(req), key)
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		metrics.EventsCreatedTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, toEventResponse(res.Event))
	}
	metrics.EventsCreatedTotal.WithLabelValues("created").Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/api/Events/"+res.Event.ID)
	return c.JSON(http.StatusCreated, toEventResponse(res.Event))
}

// Update handles PUT /api/Events/:eventId. Admins and the event's host only.
//
// @Summary      Update an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path      string        true  "Event ID"
// @Param        body     body      eventRequest  true  "Event details"
// @Success      200      {object}  eventResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/Events/{eventId} [put]
func (h *EventHandler) Update(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	e, err := h.service.Update(c.Request().Context(), subject, c.Param("eventId"), toEventInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Delete handles DELETE /api/Events/:eventId. Admins and the event's host only.
//
// @Summary      Delete an event
// @Tags         events
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/Events/{eventId} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), subject, c.Param("eventId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RegisterAttendee handles POST /api/Events/:eventId/registerEvent. When the
// userId query parameter is absent the caller registers themselves.
//
// @Summary      Register an attendee
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path      string  true   "Event ID"
// @Param        userId   query     string  false  "User ID, defaults to the caller"
// @Success      200      {object}  messageResponse
// @Failure      401      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /api/Events/{eventId}/registerEvent [post]
func (h *EventHandler) RegisterAttendee(c echo.Context) error {
	subject, err := ctxSubject(c)
	if err != nil {
		return err
	}

	userID := strings.TrimSpace(c.QueryParam("userId"))
	if userID == "" {
		userID = subject.UserID
	}

	if err := h.service.RegisterAttendee(c.Request().Context(), c.Param("eventId"), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Registered for event"})
}

// ListAttendees handles GET /api/Events/:eventId/attendees.
//
// @Summary      List attendees
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path      string  true  "Event ID"
// @Success      200      {array}   attendeeResponse
// @Failure      401      {object}  errorResponse
// @Router       /api/Events/{eventId}/attendees [get]
func (h *EventHandler) ListAttendees(c echo.Context) error {
	attendees, err := h.service.ListAttendees(c.Request().Context(), c.Param("eventId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAttendeeResponses(attendees))
}
