package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/service"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

type stubAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *stubAudit) Record(e domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func newIssuer() *service.TokenIssuer {
	ti, err := service.NewTokenIssuer(service.TokenIssuerConfig{
		Secret:   testSecret,
		Issuer:   "event-api",
		Audience: "event-planner-clients",
	}, zerolog.Nop())
	if err != nil {
		panic(err)
	}
	return ti
}

func signedToken(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := newIssuer().Issue(domain.Claims{Subject: "user-1", Username: "alice", Roles: roles})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	c, rec := newContext("Bearer " + signedToken(t, domain.RoleUser))

	called := false
	mw := Auth(newIssuer(), &stubAudit{}, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		called = true
		subject := SubjectFrom(c)
		if subject == nil || subject.UserID != "user-1" || subject.Username != "alice" {
			t.Fatalf("subject not set: %+v", subject)
		}
		if !subject.Roles.Has(domain.RoleUser) {
			t.Fatalf("roles not set: %v", subject.Roles)
		}
		if ClaimsFrom(c) == nil {
			t.Fatalf("claims not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	c, rec := newContext("")

	mw := Auth(newIssuer(), &stubAudit{}, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		c.Echo().HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	c, rec := newContext("Token abc")

	mw := Auth(newIssuer(), &stubAudit{}, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		c.Echo().HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidTokenIsAudited(t *testing.T) {
	audit := &stubAudit{}
	c, _ := newContext("Bearer not-a-token")

	mw := Auth(newIssuer(), audit, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if len(audit.entries) != 1 || audit.entries[0].Kind != domain.AuditTokenRejected {
		t.Fatalf("expected one token_rejected entry, got %+v", audit.entries)
	}
}

func TestAuthMiddleware_ForeignSecret(t *testing.T) {
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"iss": "event-api",
		"aud": "event-planner-clients",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := foreign.SignedString([]byte("someone-elses-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	c, _ := newContext("Bearer " + signed)

	mw := Auth(newIssuer(), &stubAudit{}, zerolog.Nop())
	err = mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequireRole_Allows(t *testing.T) {
	c, rec := newContext("")
	c.Set(ctxSubject, &authz.Subject{UserID: "admin-1", Roles: domain.NewRoleSet(domain.RoleAdmin)})

	called := false
	handler := RequireRole(domain.RoleAdmin, &stubAudit{}, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	audit := &stubAudit{}
	c, _ := newContext("")
	c.Set(ctxSubject, &authz.Subject{UserID: "user-1", Roles: domain.NewRoleSet(domain.RoleUser)})

	handler := RequireRole(domain.RoleAdmin, audit, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(audit.entries) != 1 || audit.entries[0].Kind != domain.AuditAccessForbidden {
		t.Fatalf("expected one access_forbidden entry, got %+v", audit.entries)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	c, rec := newContext("")

	handler := RequireRole(domain.RoleAdmin, &stubAudit{}, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		c.Echo().HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
