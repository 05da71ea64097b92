package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAuthenticateRoundTrip(t *testing.T) {
	v := NewVerifier("unit-test-secret", time.Hour)

	tok, err := v.Issue(Identity{ID: 42, Username: "alice"})
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	id, err := v.Authenticate(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.ID)
	assert.Equal(t, "alice", id.Username)
}

func TestAuthenticateMissingToken(t *testing.T) {
	v := NewVerifier("unit-test-secret", time.Hour)

	for _, raw := range []string{"", "   "} {
		_, err := v.Authenticate(raw)
		assert.ErrorIs(t, err, ErrMissingToken)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	v := NewVerifier("unit-test-secret", time.Hour)

	_, err := v.Authenticate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	issuer := NewVerifier("secret-one", time.Hour)
	verifier := NewVerifier("secret-two", time.Hour)

	tok, err := issuer.Issue(Identity{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = verifier.Authenticate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	v := NewVerifier("unit-test-secret", -time.Minute)

	tok, err := v.Issue(Identity{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = v.Authenticate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
