// Package auth issues and validates the short-lived session tokens handed
// out on login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("auth: empty signing key")

// now is a seam for tests.
var now = time.Now

// TokenIssuer signs HS256 tokens carrying sub, iat and exp. It is created
// once at startup and is safe for concurrent use.
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenIssuer(secretKey []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secretKey) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secretKey))
	copy(key, secretKey)
	return &TokenIssuer{secretKey: key, ttl: ttl}, nil
}

// Issue returns a signed token for subject and its expiry time.
func (i *TokenIssuer) Issue(subject string) (string, time.Time, error) {
	issuedAt := now()
	expiresAt := issuedAt.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks the signature and expiry of token and returns its
// subject. Every failure is reported as common.ErrTokenInvalid.
func (i *TokenIssuer) Validate(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil || !parsed.Valid {
		return "", common.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", common.ErrTokenInvalid
	}
	return claims.Subject, nil
}
