package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIssuerRoundTrips(t *testing.T) {
	issuer := NewLocalIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("user-1", "user@example.com", "User One")
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "User One", claims.Name)
	require.NotNil(t, claims.Email)
	assert.Equal(t, "user@example.com", *claims.Email)
}

func TestLocalIssuerRejectsExpiredToken(t *testing.T) {
	issuer := NewLocalIssuer("test-secret", -time.Hour)
	token, err := issuer.Issue("user-1", "", "")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.Error(t, err)
}

func TestLocalIssuerRejectsWrongSecret(t *testing.T) {
	issuer := NewLocalIssuer("secret-a", time.Hour)
	token, err := issuer.Issue("user-1", "", "")
	require.NoError(t, err)

	other := NewLocalIssuer("secret-b", time.Hour)
	_, err = other.Validate(token)
	assert.Error(t, err)
}
