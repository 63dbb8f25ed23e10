package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
)

const (
	msgUserExists      = "User already exists"
	msgUserCreated     = "User created successfully!"
	msgCreationFailed  = "User creation failed!"
	msgInvalidUsername = "Invalid username"
	msgInvalidPassword = "Invalid password"

	minPasswordLength = 6
	// bcrypt rejects longer passwords.
	maxPasswordBytes = 72
)

// AuthService implements registration and login.
type AuthService struct {
	store  ports.CredentialStore
	tokens ports.TokenIssuer
	audit  ports.AuditSink
	log    zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, tokens ports.TokenIssuer, audit ports.AuditSink, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, audit: audit, log: log}
}

// Register creates a credential and assigns it role, creating the role first
// when it does not exist yet. The existence check is not atomic; a concurrent
// duplicate is caught by the store's uniqueness constraint and reported the
// same way.
func (s *AuthService) Register(ctx context.Context, in ports.RegistrationInput, role string) (ports.AuthResult, error) {
	if role == "" {
		role = domain.RoleUser
	}

	_, err := s.store.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		return s.registrationFailed(in.Username, domain.ErrDuplicateUser, msgUserExists), nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return ports.AuthResult{}, unavailable("find user", err)
	}

	if reason := validateRegistration(in); reason != "" {
		return s.registrationFailed(in.Username, domain.ErrUserCreation, msgCreationFailed+" "+reason), nil
	}

	now := time.Now().UTC()
	created, err := s.store.CreateWithPassword(ctx, &domain.User{
		Username:      in.Username,
		Email:         in.Email,
		Name:          in.Name,
		SecurityStamp: uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, in.Password)
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return s.registrationFailed(in.Username, domain.ErrDuplicateUser, msgUserExists), nil
	case errors.Is(err, domain.ErrUserCreation):
		reason := strings.TrimPrefix(err.Error(), domain.ErrUserCreation.Error()+": ")
		return s.registrationFailed(in.Username, domain.ErrUserCreation, msgCreationFailed+" "+reason), nil
	case err != nil:
		return ports.AuthResult{}, unavailable("create user", err)
	}

	if err := s.ensureRole(ctx, role); err != nil {
		s.discard(ctx, created)
		return ports.AuthResult{}, err
	}
	if err := s.store.AddToRole(ctx, created.ID, role); err != nil {
		s.discard(ctx, created)
		return ports.AuthResult{}, unavailable("add user to role", err)
	}

	s.log.Info().Str("username", created.Username).Str("user_id", created.ID).Str("role", role).Msg("user registered")
	s.audit.Record(domain.AuditEntry{
		Kind:       domain.AuditRegistrationSucceeded,
		Username:   created.Username,
		Subject:    created.ID,
		Reason:     role,
		OccurredAt: now,
	})

	return ports.AuthResult{Success: true, Message: msgUserCreated}, nil
}

// Login verifies the password and, on success, returns a signed token in
// AuthResult.Message. It does not write to the store.
func (s *AuthService) Login(ctx context.Context, username, password string) (ports.AuthResult, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return s.loginFailed(username, domain.ErrInvalidUsername, msgInvalidUsername), nil
	}
	if err != nil {
		return ports.AuthResult{}, unavailable("find user", err)
	}

	ok, err := s.store.CheckPassword(ctx, user, password)
	if err != nil {
		return ports.AuthResult{}, unavailable("check password", err)
	}
	if !ok {
		return s.loginFailed(username, domain.ErrInvalidPassword, msgInvalidPassword), nil
	}

	roles, err := s.store.GetRoles(ctx, user.ID)
	if err != nil {
		return ports.AuthResult{}, unavailable("get roles", err)
	}

	token, err := s.tokens.Issue(domain.Claims{
		Subject:  user.ID,
		Username: user.Username,
		Roles:    roles,
		ID:       uuid.NewString(),
	})
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("username", user.Username).Str("user_id", user.ID).Msg("login succeeded")
	s.audit.Record(domain.AuditEntry{
		Kind:       domain.AuditLoginSucceeded,
		Username:   user.Username,
		Subject:    user.ID,
		OccurredAt: time.Now().UTC(),
	})

	return ports.AuthResult{Success: true, Message: token}, nil
}

// discard removes a user whose role assignment failed so that no roleless
// credential is left behind and the username can be registered again.
func (s *AuthService) discard(ctx context.Context, user *domain.User) {
	if err := s.store.Delete(context.WithoutCancel(ctx), user.ID); err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Str("user_id", user.ID).Msg("failed to remove user after role assignment error")
	}
}

func (s *AuthService) ensureRole(ctx context.Context, role string) error {
	exists, err := s.store.RoleExists(ctx, role)
	if err != nil {
		return unavailable("role exists", err)
	}
	if exists {
		return nil
	}
	if err := s.store.CreateRole(ctx, role); err != nil {
		return unavailable("create role", err)
	}
	s.log.Info().Str("role", role).Msg("role created")
	return nil
}

func (s *AuthService) registrationFailed(username string, cause error, msg string) ports.AuthResult {
	s.log.Warn().Str("username", username).Str("reason", cause.Error()).Msg("registration rejected")
	s.audit.Record(domain.AuditEntry{
		Kind:       domain.AuditRegistrationFailed,
		Username:   username,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
	return ports.AuthResult{Message: msg, Failure: cause}
}

func (s *AuthService) loginFailed(username string, cause error, msg string) ports.AuthResult {
	s.log.Warn().Str("username", username).Str("reason", cause.Error()).Msg("login rejected")
	s.audit.Record(domain.AuditEntry{
		Kind:       domain.AuditLoginFailed,
		Username:   username,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	})
	return ports.AuthResult{Message: msg, Failure: cause}
}

// validateRegistration returns a human readable reason when the input cannot
// become a credential, or "" when it can.
func validateRegistration(in ports.RegistrationInput) string {
	switch {
	case in.Username == "":
		return "username is required"
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	case len(in.Password) > maxPasswordBytes:
		return fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes)
	case utf8.RuneCountInString(in.Name) > domain.NameMaxLength:
		return fmt.Sprintf("name must be at most %d characters", domain.NameMaxLength)
	}
	return ""
}

// unavailable marks err as a store outage unless it already is one.
func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
