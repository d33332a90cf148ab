package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "openadmit", time.Hour)

	token, err := issuer.Issue("user-1", 42, "manager")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, int64(42), claims.TenantID)
	assert.Equal(t, "manager", claims.Role)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "openadmit", time.Hour)
	other := NewTokenIssuer("other-secret", "openadmit", time.Hour)

	token, err := issuer.Issue("user-1", 42, "student")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "openadmit", -time.Minute)

	token, err := issuer.Issue("user-1", 42, "student")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "openadmit", time.Hour)
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(65536, 3, 4, 16, 32)

	hash, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret-password")

	ok, err := hasher.Verify("s3cret-password", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
