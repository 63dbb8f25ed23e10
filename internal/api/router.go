package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/eventplanner/event-api/docs" // Swagger docs
	"github.com/eventplanner/event-api/internal/api/handler"
	"github.com/eventplanner/event-api/internal/api/middleware"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	AuthService  ports.AuthService
	EventService ports.EventService
	Tokens       ports.TokenValidator
	Audit        ports.AuditSink
	// Health lists the dependencies checked by /health/ready.
	Health map[string]handler.Pinger
	// AuthRateLimit is the per-client request rate allowed on the
	// authentication routes.
	AuthRateLimit float64
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("eventplanner"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	eventHandler := handler.NewEventHandler(d.EventService)
	healthHandler := handler.NewHealthHandler(d.Health)

	requireAuth := middleware.Auth(d.Tokens, d.Audit, d.Log)
	requireAdmin := middleware.RequireRole(domain.RoleAdmin, d.Audit, d.Log)

	// --- Authentication routes (rate limited per client IP) ---
	authLimiter := echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
	auth := e.Group("/api/Authentication", authLimiter)
	auth.POST("/login", authHandler.Login)
	auth.POST("/registration", authHandler.Register)
	auth.POST("/registration-admin", authHandler.RegisterAdmin, requireAuth, requireAdmin)

	// --- Event routes ---
	e.GET("/api/Events", eventHandler.List)
	events := e.Group("/api/Events", requireAuth)
	events.POST("", eventHandler.Create)
	events.GET("/:eventId", eventHandler.Get)
	events.PUT("/:eventId", eventHandler.Update)
	events.DELETE("/:eventId", eventHandler.Delete)
	events.POST("/:eventId/registerEvent", eventHandler.RegisterAttendee)
	events.GET("/:eventId/attendees", eventHandler.ListAttendees)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one structured line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
