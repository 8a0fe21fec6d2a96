package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"

	"github.com/jcorriveau23/backend-pool-nhl/internal/draft"
)

// jwksResponse mirrors the standard JWKS document shape.
type jwksResponse struct {
	Keys []jsonWebKey `json:"keys"`
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSValidator authenticates tokens issued by an external identity
// provider by fetching its JWKS document and verifying RS256 signatures
// against the matching key. The fetch is wrapped in a circuit breaker so a
// degraded identity provider fails fast instead of stalling every socket
// authentication attempt.
type JWKSValidator struct {
	jwksURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey
}

// NewJWKSValidator builds a validator that fetches keys from jwksURL.
func NewJWKSValidator(jwksURL string) *JWKSValidator {
	settings := gobreaker.Settings{
		Name:        "jwks-fetch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &JWKSValidator{
		jwksURL:    jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		keys:       map[string]*rsa.PublicKey{},
	}
}

// Validate implements draft.TokenValidator.
func (v *JWKSValidator) Validate(token string) (draft.UserClaims, error) {
	unverified, _, err := new(jwt.Parser).ParseUnverified(token, &Claims{})
	if err != nil {
		return draft.UserClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	kid, ok := unverified.Header["kid"].(string)
	if !ok {
		return draft.UserClaims{}, fmt.Errorf("token header is missing kid")
	}

	key, err := v.publicKey(kid)
	if err != nil {
		return draft.UserClaims{}, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
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

func (v *JWKSValidator) publicKey(kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	result, err := v.breaker.Execute(func() (interface{}, error) {
		return v.fetchKeys()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	keys := result.(map[string]*rsa.PublicKey)
	v.mu.Lock()
	for k, pk := range keys {
		v.keys[k] = pk
	}
	v.mu.Unlock()

	key, ok = keys[kid]
	if !ok {
		return nil, fmt.Errorf("no key found for kid %q", kid)
	}
	return key, nil
}

func (v *JWKSValidator) fetchKeys() (map[string]*rsa.PublicKey, error) {
	resp, err := v.httpClient.Get(v.jwksURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request returned status %d", resp.StatusCode)
	}

	var doc jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		key, err := rsaPublicKeyFromJWK(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = key
	}
	return keys, nil
}

// rsaPublicKeyFromJWK decodes the base64url-encoded modulus (n) and
// exponent (e) per RFC 7518 §6.3.1 into a usable *rsa.PublicKey.
func rsaPublicKeyFromJWK(jwk jsonWebKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus encoding: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent encoding: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
