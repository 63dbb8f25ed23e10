package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/api/metrics"
	"github.com/eventplanner/event-api/internal/core/authz"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

const (
	ctxClaims  = "claims"
	ctxSubject = "subject"
)

// Auth validates the bearer token and injects the claims and the derived
// authorization subject into the context. Every token failure surfaces as
// domain.ErrInvalidToken.
func Auth(validator ports.TokenValidator, audit ports.AuditSink, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("malformed_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("invalid_token").Inc()
				log.Info().
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Str("remote_ip", c.RealIP()).
					Msg("token rejected")
				audit.Record(domain.AuditEntry{
					Kind:       domain.AuditTokenRejected,
					Path:       c.Request().Method + " " + c.Path(),
					Reason:     "invalid token from " + c.RealIP(),
					OccurredAt: time.Now().UTC(),
				})
				return domain.ErrInvalidToken
			}

			c.Set(ctxClaims, claims)
			c.Set(ctxSubject, authz.SubjectFromClaims(claims))
			return next(c)
		}
	}
}

// RequireRole admits only subjects holding role. It must run after Auth.
func RequireRole(role string, audit ports.AuditSink, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := SubjectFrom(c)
			d := authz.Authorize(subject, authz.Requirement{Role: role})
			if d.Allowed {
				return next(c)
			}
			if subject == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			log.Warn().
				Str("user_id", subject.UserID).
				Str("path", c.Path()).
				Str("reason", d.Reason).
				Msg("access forbidden")
			audit.Record(domain.AuditEntry{
				Kind:       domain.AuditAccessForbidden,
				Username:   subject.Username,
				Subject:    subject.UserID,
				Reason:     d.Reason,
				Path:       c.Request().Method + " " + c.Path(),
				OccurredAt: time.Now().UTC(),
			})
			return d.Err()
		}
	}
}

// SubjectFrom returns the subject injected by Auth, or nil.
func SubjectFrom(c echo.Context) *authz.Subject {
	s, _ := c.Get(ctxSubject).(*authz.Subject)
	return s
}

// ClaimsFrom returns the validated claims injected by Auth, or nil.
func ClaimsFrom(c echo.Context) *domain.Claims {
	cl, _ := c.Get(ctxClaims).(*domain.Claims)
	return cl
}
