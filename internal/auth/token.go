package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued session token stays valid.
// Tokens are not renewed; the admin has to sign in again after expiry.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService issues and validates signed session tokens (JWT, HS256).
// Validity is determined entirely by signature and expiry, nothing is
// kept server-side and there is no revocation.
type TokenService struct {
	key []byte
	ttl time.Duration
	// ability to inject the clock for deterministic expiry tests
	NowFunc func() time.Time
}

func NewTokenService(key []byte, ttl time.Duration) (*TokenService, error) {
	if len(key) == 0 {
		return nil, errors.New("empty token signing key")
	}
	return &TokenService{
		key:     key,
		ttl:     ttl,
		NowFunc: time.Now,
	}, nil
}

// Issue creates a signed token for the given subject (admin email),
// expiring at now + ttl.
func (ts *TokenService) Issue(subject string) (string, error) {
	now := ts.NowFunc()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
	})

	signed, err := token.SignedString(ts.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Validate verifies the token signature and expiry and returns the
// embedded subject. Any failure kind collapses into ErrTokenInvalid.
func (ts *TokenService) Validate(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(*jwt.Token) (any, error) {
			return ts.key, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.NowFunc),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}

	return claims.Subject, nil
}
