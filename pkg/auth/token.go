package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
)

const (
	// tokenAudience scopes access tokens to the register terminals and admin panel.
	tokenAudience = "pdv"
	// clockSkew tolerates terminals whose clocks drift a little from the API.
	clockSkew = 30 * time.Second
)

var (
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers every other rejection: signature, issuer, audience, shape.
	ErrTokenInvalid = errors.New("access token invalid")

	signingMethod = jwt.SigningMethodHS256
)

// MintAccessToken signs an HS256 token for the operator session in payload.
// A blank JTI gets a fresh uuid so every login is revocable on its own.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := errors.Join(checkSigningConfig(cfg), checkPayload(payload)); err != nil {
		return "", err
	}

	sessionID := strings.TrimSpace(payload.JTI)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	claims := AccessTokenClaims{
		OperatorID: payload.OperatorID,
		Name:       strings.TrimSpace(payload.Name),
		Role:       payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    cfg.Issuer,
			Subject:   payload.OperatorID.String(),
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL(cfg))),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies tokenString and returns its claims. Failures wrap
// ErrTokenExpired or ErrTokenInvalid.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)

	claims := &AccessTokenClaims{}
	_, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	// the subject is what sessions are keyed on; a mismatch means a forged body
	if claims.OperatorID == uuid.Nil || claims.Subject != claims.OperatorID.String() {
		return nil, fmt.Errorf("%w: subject does not match operator", ErrTokenInvalid)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}
	return claims, nil
}

// TTL is how long minted access tokens live.
func TTL(cfg config.JWTConfig) time.Duration {
	return time.Duration(cfg.ExpirationMinutes) * time.Minute
}

func checkSigningConfig(cfg config.JWTConfig) error {
	var errs []error
	if cfg.Secret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if cfg.Issuer == "" {
		errs = append(errs, errors.New("jwt issuer is required"))
	}
	if cfg.ExpirationMinutes <= 0 {
		errs = append(errs, errors.New("jwt expiration must be positive"))
	}
	return errors.Join(errs...)
}

func checkPayload(p AccessTokenPayload) error {
	var errs []error
	if p.OperatorID == uuid.Nil {
		errs = append(errs, errors.New("operator id is required"))
	}
	if !p.Role.IsValid() {
		errs = append(errs, fmt.Errorf("invalid operator role %q", p.Role))
	}
	return errors.Join(errs...)
}
