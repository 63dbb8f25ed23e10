package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/api/middleware"
	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
	"github.com/eventplanner/event-api/internal/core/service"
)

type stubEventService struct {
	ports.EventService
	createFn   func(ctx context.Context, s *authz.Subject, in ports.EventInput, key string) (*ports.CreateEventResult, error)
	deleteFn   func(ctx context.Context, s *authz.Subject, id string) error
	registerFn func(ctx context.Context, eventID, userID string) error
}

func (s *stubEventService) Create(ctx context.Context, subject *authz.Subject, in ports.EventInput, key string) (*ports.CreateEventResult, error) {
	return s.createFn(ctx, subject, in, key)
}

func (s *stubEventService) Delete(ctx context.Context, subject *authz.Subject, id string) error {
	return s.deleteFn(ctx, subject, id)
}

func (s *stubEventService) RegisterAttendee(ctx context.Context, eventID, userID string) error {
	return s.registerFn(ctx, eventID, userID)
}

type nopAudit struct{}

func (nopAudit) Record(domain.AuditEntry) {}

const eventBody = `{"name":"Launch","description":"party","date":"2026-12-01T18:00:00Z","location":"Hall A"}`

// authedRequest runs the request through the real Auth middleware with a
// token for subject "user-1".
func authedRequest(t *testing.T, h echo.HandlerFunc, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	issuer, err := service.NewTokenIssuer(service.TokenIssuerConfig{
		Secret:   "handler-test-secret-0123456789abcdef",
		Issuer:   "event-api",
		Audience: "event-planner-clients",
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("token issuer: %v", err)
	}
	token, err := issuer.Issue(domain.Claims{Subject: "user-1", Username: "alice", Roles: []string{domain.RoleUser}})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e := newTestEcho()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("eventId")
	c.SetParamValues("evt-1")

	if err := middleware.Auth(issuer, nopAudit{}, zerolog.Nop())(h)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestEventHandler_Create_SetsHostFromToken(t *testing.T) {
	stub := &stubEventService{
		createFn: func(ctx context.Context, s *authz.Subject, in ports.EventInput, key string) (*ports.CreateEventResult, error) {
			if s.UserID != "user-1" || in.Name != "Launch" || key != "" {
				t.Fatalf("unexpected args: %+v %+v %q", s, in, key)
			}
			if !in.Date.Equal(time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected date: %v", in.Date)
			}
			return &ports.CreateEventResult{Event: &domain.Event{ID: "evt-1", Name: in.Name, HostUserID: s.UserID}}, nil
		},
	}
	handler := NewEventHandler(stub)

	rec := authedRequest(t, handler.Create, http.MethodPost, "/api/Events", eventBody, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/api/Events/evt-1" {
		t.Fatalf("unexpected location %q", loc)
	}
	var resp eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.HostUserID != "user-1" || resp.Links.Attendees != "/api/Events/evt-1/attendees" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestEventHandler_Create_IdempotentReplay(t *testing.T) {
	stub := &stubEventService{
		createFn: func(ctx context.Context, s *authz.Subject, in ports.EventInput, key string) (*ports.CreateEventResult, error) {
			if key != "abc-123" {
				t.Fatalf("expected idempotency key, got %q", key)
			}
			return &ports.CreateEventResult{Event: &domain.Event{ID: "evt-1"}, AlreadyExisted: true}, nil
		},
	}
	handler := NewEventHandler(stub)

	rec := authedRequest(t, handler.Create, http.MethodPost, "/api/Events", eventBody,
		map[string]string{headerIdempotencyKey: "abc-123"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestEventHandler_Create_ValidationError(t *testing.T) {
	handler := NewEventHandler(&stubEventService{})

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/api/Events", strings.NewReader(`{"name":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("subject", &authz.Subject{UserID: "user-1"})

	err := handler.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestEventHandler_Create_WithoutSubject(t *testing.T) {
	handler := NewEventHandler(&stubEventService{})

	e := newTestEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/Events", strings.NewReader(eventBody)), httptest.NewRecorder())

	err := handler.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestEventHandler_Delete_PropagatesForbidden(t *testing.T) {
	stub := &stubEventService{
		deleteFn: func(ctx context.Context, s *authz.Subject, id string) error {
			if id != "evt-1" {
				t.Fatalf("unexpected id %q", id)
			}
			return authz.Decision{Reason: authz.ReasonNotAdminOrOwner}.Err()
		},
	}
	handler := NewEventHandler(stub)

	e := newTestEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/Events/evt-1", nil), httptest.NewRecorder())
	c.SetParamNames("eventId")
	c.SetParamValues("evt-1")
	c.Set("subject", &authz.Subject{UserID: "user-2"})

	if err := handler.Delete(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEventHandler_RegisterAttendee_DefaultsToCaller(t *testing.T) {
	var got string
	stub := &stubEventService{
		registerFn: func(ctx context.Context, eventID, userID string) error {
			got = userID
			return nil
		},
	}
	handler := NewEventHandler(stub)

	rec := authedRequest(t, handler.RegisterAttendee, http.MethodPost, "/api/Events/evt-1/registerEvent", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "user-1" {
		t.Fatalf("expected caller id, got %q", got)
	}

	rec = authedRequest(t, handler.RegisterAttendee, http.MethodPost, "/api/Events/evt-1/registerEvent?userId=user-9", "", nil)
	if rec.Code != http.StatusOK || got != "user-9" {
		t.Fatalf("expected user-9, got %q (%d)", got, rec.Code)
	}
}
