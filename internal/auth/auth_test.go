package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndResolve(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	token, err := a.IssueToken("user-42", time.Hour)
	require.NoError(t, err)

	id, err := a.ResolveCallerIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestResolveLegacyClaims(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	for _, key := range []string{"user_id", "id"} {
		t.Run(key, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				key:   "legacy",
				"exp": time.Now().Add(time.Hour).Unix(),
			}).SignedString([]byte("secret"))
			require.NoError(t, err)

			id, err := a.ResolveCallerIdentity(token)
			require.NoError(t, err)
			assert.Equal(t, "legacy", id)
		})
	}
}

func TestResolveRejects(t *testing.T) {
	a := NewJWTAuthenticator("secret")

	expired, err := a.IssueToken("user", -time.Minute)
	require.NoError(t, err)

	wrongKey, err := NewJWTAuthenticator("other").IssueToken("user", time.Hour)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user"}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":      "",
		"garbage":    "not-a-token",
		"expired":    expired,
		"wrong key":  wrongKey,
		"no expiry":  noExp,
		"no subject": noSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.ResolveCallerIdentity(token)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestBearerCredential(t *testing.T) {
	token, err := BearerCredential("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "abc.def", "Basic abc", "Bearer a b"} {
		_, err := BearerCredential(header)
		assert.ErrorIs(t, err, ErrUnauthorized, header)
	}
}
