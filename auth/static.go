package auth

import (
	"context"
	"crypto/subtle"
)

// StaticTokenValidator validates against a fixed token-to-subject map from
// configuration. It suits single-tenant deployments that want the API gated
// without standing up an identity provider.
type StaticTokenValidator struct {
	tokens map[string]string
}

// NewStaticTokenValidator creates a validator over a map of token value to
// subject name.
func NewStaticTokenValidator(tokens map[string]string) *StaticTokenValidator {
	copied := make(map[string]string, len(tokens))
	for token, subject := range tokens {
		copied[token] = subject
	}
	return &StaticTokenValidator{tokens: copied}
}

// staticPrincipal implements Principal for shared-token callers.
type staticPrincipal struct {
	subject string
}

func (p *staticPrincipal) GetClaims() interface{} {
	return map[string]interface{}{"sub": p.subject}
}

func (p *staticPrincipal) GetSubject() string {
	return p.subject
}

// ValidateToken implements TokenValidator. Comparison is constant-time per
// candidate so token values do not leak through timing.
func (v *StaticTokenValidator) ValidateToken(ctx context.Context, tokenString string) (Principal, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	for candidate, subject := range v.tokens {
		if len(candidate) == len(tokenString) &&
			subtle.ConstantTimeCompare([]byte(candidate), []byte(tokenString)) == 1 {
			return &staticPrincipal{subject: subject}, nil
		}
	}
	return nil, ErrInvalidToken
}

var _ TokenValidator = (*StaticTokenValidator)(nil)
