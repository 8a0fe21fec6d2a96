package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
)

// LocalIssuer issues and validates HS256 tokens signed with a shared
// secret. Used for local development and for the WebSocket path's
// `/ws/unauthenticated` fallback is handled by callers, not here.
type LocalIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewLocalIssuer builds an issuer/validator pair over a shared secret.
func NewLocalIssuer(secret string, ttl time.Duration) *LocalIssuer {
	return &LocalIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token for userID.
func (l *LocalIssuer) Issue(userID, email, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(l.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(l.secret)
}

// Validate implements draft.TokenValidator.
func (l *LocalIssuer) Validate(token string) (draft.UserClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	})
	if err != nil {
		return draft.UserClaims{}, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return draft.UserClaims{}, fmt.Errorf("token is invalid")
	}
	if claims.Subject == "" {
		return draft.UserClaims{}, fmt.Errorf("token is missing a subject claim")
	}

	var email *string
	if claims.Email != "" {
		e := claims.Email
		email = &e
	}
	return draft.UserClaims{UserID: claims.Subject, Name: claims.Name, Email: email}, nil
}
