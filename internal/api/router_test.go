package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/api/handler"
	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
	"github.com/eventplanner/event-api/internal/core/service"
)

const routerSecret = "router-test-secret-0123456789abcdef"

type fakeAuthService struct{}

func (fakeAuthService) Register(context.Context, ports.RegistrationInput, string) (ports.AuthResult, error) {
	return ports.AuthResult{Success: true}, nil
}

func (fakeAuthService) Login(context.Context, string, string) (ports.AuthResult, error) {
	return ports.AuthResult{Message: "Invalid username", Failure: domain.ErrInvalidUsername}, nil
}

type fakeEventService struct {
	ports.EventService
}

func (fakeEventService) List(context.Context) ([]*domain.Event, error) {
	return []*domain.Event{}, nil
}

func (fakeEventService) Delete(_ context.Context, s *authz.Subject, _ string) error {
	return authz.Authorize(s, authz.Requirement{Role: domain.RoleAdmin, OwnerID: "host-1"}).Err()
}

type discardAudit struct{}

func (discardAudit) Record(domain.AuditEntry) {}

var (
	routerOnce sync.Once
	testRouter *echo.Echo
	tokens     *service.TokenIssuer
)

// router builds the Echo instance once; echoprometheus registers its
// collectors globally.
func router() *echo.Echo {
	routerOnce.Do(func() {
		var err error
		tokens, err = service.NewTokenIssuer(service.TokenIssuerConfig{
			Secret:   routerSecret,
			Issuer:   "event-api",
			Audience: "event-planner-clients",
		}, zerolog.Nop())
		if err != nil {
			panic(err)
		}
		testRouter = NewRouter(Deps{
			AuthService:   fakeAuthService{},
			EventService:  fakeEventService{},
			Tokens:        tokens,
			Audit:         discardAudit{},
			Health:        map[string]handler.Pinger{},
			AuthRateLimit: 1000,
			Log:           zerolog.Nop(),
		})
	})
	return testRouter
}

func bearer(t *testing.T, subject string, roles ...string) string {
	t.Helper()
	tok, err := tokens.Issue(domain.Claims{Subject: subject, Username: subject, Roles: roles})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func serve(method, target, body, auth string) *httptest.ResponseRecorder {
	e := router()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	for _, target := range []string{"/api/Events", "/health"} {
		if rec := serve(http.MethodGet, target, "", ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	router()
	rec := serve(http.MethodPost, "/api/Events", `{}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = serve(http.MethodPost, "/api/Events", `{}`, "Bearer garbage")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestRouter_AdminRegistrationRequiresAdmin(t *testing.T) {
	router()
	body := `{"username":"root2","password":"pw1234"}`

	if rec := serve(http.MethodPost, "/api/Authentication/registration-admin", body, bearer(t, "user-1", domain.RoleUser)); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := serve(http.MethodPost, "/api/Authentication/registration-admin", body, bearer(t, "admin-1", domain.RoleAdmin)); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRouter_OwnershipGateOnDelete(t *testing.T) {
	router()
	cases := []struct {
		name string
		auth string
		code int
	}{
		{"host", bearer(t, "host-1", domain.RoleUser), http.StatusNoContent},
		{"admin", bearer(t, "admin-1", domain.RoleAdmin), http.StatusNoContent},
		{"stranger", bearer(t, "user-2", domain.RoleUser), http.StatusForbidden},
	}
	for _, tc := range cases {
		if rec := serve(http.MethodDelete, "/api/Events/evt-1", "", tc.auth); rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, rec.Code)
		}
	}
}

func TestRouter_LoginFailureIsBadRequest(t *testing.T) {
	rec := serve(http.MethodPost, "/api/Authentication/login", `{"username":"ghost","password":"pw1234"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
