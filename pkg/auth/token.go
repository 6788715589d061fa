package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/pkg/config"
)

// clockSkew tolerates small drift between the identity service and this one.
const clockSkew = 30 * time.Second

var (
	signingMethod = jwt.SigningMethodHS256

	errSecretRequired = errors.New("jwt secret is required")
	errIssuerRequired = errors.New("jwt issuer is required")
	errTTLRequired    = errors.New("jwt expiration minutes must be positive")
)

func signingKey(cfg config.JWTConfig) ([]byte, error) {
	if cfg.Secret == "" {
		return nil, errSecretRequired
	}
	return []byte(cfg.Secret), nil
}

// validate checks the DairyMart specific claims that jwt does not know about.
func (c *AccessTokenClaims) validate() error {
	if c.UserID == uuid.Nil {
		return errors.New("user id is required")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid role %q", c.Role)
	}
	return nil
}

// MintAccessToken signs an HS256 token valid for cfg.ExpirationMinutes from now.
// Production tokens come from the identity service; this is used by tests and
// local tooling.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return "", err
	}
	switch {
	case cfg.Issuer == "":
		return "", errIssuerRequired
	case cfg.ExpirationMinutes <= 0:
		return "", errTTLRequired
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}
	if err := claims.validate(); err != nil {
		return "", err
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then the typed claims.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
		return nil, err
	}
	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("token claims: %w", err)
	}
	return claims, nil
}
