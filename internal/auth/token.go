package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/payledger/apiserver/types"
)

var (
	// ErrInvalidToken is returned when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("expired token")
)

// Claims are the JWT claims carried by payledger tokens. The subject is the
// user's email; Role is the user's role at issue time.
type Claims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and validates signed, time-bounded tokens. Tokens are
// stateless; nothing is stored server-side.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs an issuer with the provided secret and token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token embedding the identity and role claim.
func (i *TokenIssuer) Issue(email string, role types.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate verifies signature and expiry and returns the embedded identity
// and role. It returns ErrExpiredToken for a token past its expiry and
// ErrInvalidToken for any other failure.
func (i *TokenIssuer) Validate(tokenString string) (string, types.Role, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrExpiredToken
		}
		return "", "", ErrInvalidToken
	}
	if !token.Valid {
		return "", "", ErrInvalidToken
	}

	email := strings.TrimSpace(claims.Subject)
	if email == "" || !claims.Role.Valid() {
		return "", "", ErrInvalidToken
	}
	return email, claims.Role, nil
}
