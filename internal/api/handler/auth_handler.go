package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventplanner/event-api/internal/api/metrics"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

// AuthHandler exposes registration and login. Credential failures are 400
// responses carrying the service's message; only store outages reach the
// error handler.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a bearer token valid for three hours.
//
// @Summary      Login
// @Tags         authentication
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  messageResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/Authentication/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	res, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues(loginResult(res)).Inc()

	if !res.Success {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: res.Message})
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: res.Message})
}

// Register creates a user holding the User role.
//
// @Summary      Register a user
// @Tags         authentication
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  messageResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/Authentication/registration [post]
func (h *AuthHandler) Register(c echo.Context) error {
	return h.register(c, domain.RoleUser)
}

// RegisterAdmin creates a user holding the Admin role. Admin only.
//
// @Summary      Register an administrator
// @Tags         authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Administrator registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/Authentication/registration-admin [post]
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	return h.register(c, domain.RoleAdmin)
}

func (h *AuthHandler) register(c echo.Context, role string) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(role, "rejected").Inc()
		return c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
	}

	res, err := h.authService.Register(c.Request().Context(), toRegistrationInput(req), role)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(role, "error").Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(role, registrationResult(res)).Inc()

	if !res.Success {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: res.Message})
	}
	return c.JSON(http.StatusCreated, registerResponse{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
	})
}

func toRegistrationInput(req registerRequest) ports.RegistrationInput {
	return ports.RegistrationInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Name:     req.Name,
	}
}

func loginResult(res ports.AuthResult) string {
	switch {
	case res.Success:
		return "success"
	case errors.Is(res.Failure, domain.ErrInvalidUsername):
		return "invalid_username"
	default:
		return "invalid_password"
	}
}

func registrationResult(res ports.AuthResult) string {
	switch {
	case res.Success:
		return "created"
	case errors.Is(res.Failure, domain.ErrDuplicateUser):
		return "duplicate"
	default:
		return "rejected"
	}
}
