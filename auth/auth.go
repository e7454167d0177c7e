// Package auth handles bearer-token authentication for the chat API. It
// defines the validator interface the transports call before streaming
// begins, a static shared-token validator for small deployments, and a
// JWKS-backed JWT validator for deployments with an identity provider.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Sentinel errors transports map to their unauthorized responses.
var (
	// ErrMissingToken means the request carried no bearer token at all.
	ErrMissingToken = errors.New("auth: missing bearer token")

	// ErrInvalidToken means a token was presented but rejected.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Token extraction defaults.
const (
	DefaultTokenHeader = "Authorization"
	DefaultTokenPrefix = "Bearer "
)

// Principal is the authenticated caller after successful token validation.
type Principal interface {
	// GetClaims returns the claims carried by the token. For JWTs this is a
	// jwt.MapClaims; for static tokens a small map with the subject.
	GetClaims() interface{}
	// GetSubject returns a unique identifier for the principal.
	GetSubject() string
}

// TokenValidator validates an access token and produces the Principal it
// represents.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (Principal, error)
}

// ExtractToken pulls the bearer token from the request's Authorization
// header. It returns ErrMissingToken when the header is absent and
// ErrInvalidToken when the header does not use the Bearer scheme or carries
// an empty token.
func ExtractToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(DefaultTokenHeader))
	if raw == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(raw, DefaultTokenPrefix) {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(raw, DefaultTokenPrefix))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

type principalKeyType struct{}

var principalKey = principalKeyType{}

// ContextWithPrincipal returns a new context with the Principal embedded.
// Transports call this after validation so handlers and the loop can log or
// authorize per caller.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFromContext retrieves the Principal from the context, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}
