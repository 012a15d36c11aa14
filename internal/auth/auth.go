package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any missing, malformed or rejected
// credential.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves a bearer credential to the caller's user id.
type Authenticator interface {
	ResolveCallerIdentity(credential string) (string, error)
}

// JWTAuthenticator validates HS256 tokens signed with a shared secret.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) ResolveCallerIdentity(credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("empty token: %w", ErrUnauthorized)
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %v: %w", err, ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims: %w", ErrUnauthorized)
	}

	// Newer tokens carry "sub"; older ones "user_id" or "id".
	for _, key := range []string{"sub", "user_id", "id"} {
		if id, ok := claims[key].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("token missing user identifier: %w", ErrUnauthorized)
}

// IssueToken signs a token for userID valid for ttl. Used by the token
// command for development logins.
func (a *JWTAuthenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// BearerCredential extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerCredential(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header required: %w", ErrUnauthorized)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization format, use 'Bearer <token>': %w", ErrUnauthorized)
	}
	return parts[1], nil
}
