package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventplanner/event-api/internal/api/middleware"
	"github.com/eventplanner/event-api/internal/core/authz"
)

// ctxSubject extracts the subject injected by the Auth middleware. A missing
// subject means the route was wired without Auth; reject with 401.
func ctxSubject(c echo.Context) (*authz.Subject, error) {
	subject := middleware.SubjectFrom(c)
	if subject == nil || subject.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return subject, nil
}
