package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/core/domain"
)

// TokenIssuerConfig holds the shared secret and the expected iss/aud values.
type TokenIssuerConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// TokenIssuer signs and validates HS256 bearer tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
	log      zerolog.Logger
}

// tokenClaims is the wire form of domain.Claims. Roles marshal as a "role" array.
type tokenClaims struct {
	jwt.RegisteredClaims
	Name  string           `json:"name,omitempty"`
	Roles jwt.ClaimStrings `json:"role,omitempty"`
}

// ErrIssuerConfig is returned by NewTokenIssuer when the secret, issuer or
// audience is missing.
var ErrIssuerConfig = errors.New("token issuer: secret, issuer and audience are required")

// NewTokenIssuer refuses a config that would sign or accept tokens without
// an issuer or audience.
func NewTokenIssuer(cfg TokenIssuerConfig, log zerolog.Logger) (*TokenIssuer, error) {
	if cfg.Secret == "" || cfg.Issuer == "" || cfg.Audience == "" {
		return nil, ErrIssuerConfig
	}
	return &TokenIssuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
		log:      log,
	}, nil
}

// Issue signs claims. Issuer, audience, iat and exp are always set by the
// issuer; a jti is generated when the caller did not supply one.
func (t *TokenIssuer) Issue(c domain.Claims) (string, error) {
	now := t.now().UTC().Truncate(time.Second)

	jti := c.ID
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   c.Subject,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(domain.TokenLifetime)),
			ID:        jti,
		},
		Name:  c.Username,
		Roles: jwt.ClaimStrings(c.Roles),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Validate checks signature, issuer, audience and expiry with no clock skew.
// Whatever fails, the caller only sees domain.ErrInvalidToken.
func (t *TokenIssuer) Validate(token string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
	}

	var claims tokenClaims
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err == nil && claims.Subject == "" {
		err = jwt.ErrTokenRequiredClaimMissing
	}
	if err != nil || !parsed.Valid {
		t.log.Debug().Err(err).Str("reason", rejectionReason(err)).Msg("token validation failed")
		return nil, domain.ErrInvalidToken
	}

	out := &domain.Claims{
		Subject:  claims.Subject,
		Username: claims.Name,
		Roles:    domain.RoleSet(claims.Roles),
		ID:       claims.ID,
		Issuer:   claims.Issuer,
		Audience: []string(claims.Audience),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// rejectionReason names the failed check for internal logs only.
func rejectionReason(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "issuer"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing_claim"
	default:
		return "invalid"
	}
}
