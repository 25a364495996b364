package admin

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var (
	// ErrNotConfigured means no admin secret is set on the server.
	ErrNotConfigured = errors.New("admin portal is not configured")
	// ErrUnauthorized covers every credential failure with one message so
	// nothing about the expected secret leaks.
	ErrUnauthorized = errors.New("unauthorized")
)

// SecretEquals compares a presented token against the configured secret in
// constant time. Empty values on either side never match.
func SecretEquals(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(token)) == 1
}

// AuthorizeBearer validates an Authorization header value against the
// configured secret. It returns the accepted token on success.
func AuthorizeBearer(secret, header string) (string, error) {
	if secret == "" {
		return "", ErrNotConfigured
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", ErrUnauthorized
	}

	if !SecretEquals(secret, token) {
		return "", ErrUnauthorized
	}

	return token, nil
}
