package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the shape every validator in this package produces. The
// subject (sub) is always the pool domain's user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
