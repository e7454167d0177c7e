package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSConfig holds configuration for the JWKS-based validator.
type JWKSConfig struct {
	// JWKSURL is the URL of the JSON Web Key Set endpoint. Required.
	JWKSURL string
	// ExpectedIssuer is the required value for the 'iss' claim. Optional.
	ExpectedIssuer string
	// ExpectedAudience is the required value for the 'aud' claim. Optional.
	ExpectedAudience string
	// ClockSkew is the acceptable drift when validating 'exp' and 'nbf'.
	ClockSkew time.Duration
	// RefreshInterval is how often the key set is refreshed. Defaults to
	// one hour.
	RefreshInterval time.Duration
}

// JWKSTokenValidator validates JWT bearer tokens against a cached JWKS
// endpoint.
type JWKSTokenValidator struct {
	config     JWKSConfig
	jwkCache   *jwk.Cache
	httpClient *http.Client
}

// NewJWKSTokenValidator creates a validator and performs the initial key
// fetch, so a misconfigured endpoint fails at startup rather than on the
// first request.
func NewJWKSTokenValidator(config JWKSConfig, client *http.Client) (*JWKSTokenValidator, error) {
	if config.JWKSURL == "" {
		return nil, fmt.Errorf("auth: JWKSURL is required")
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 1 * time.Hour
	}
	if client == nil {
		client = http.DefaultClient
	}

	cache := jwk.NewCache(context.Background())
	if err := cache.Register(config.JWKSURL, jwk.WithMinRefreshInterval(config.RefreshInterval), jwk.WithHTTPClient(client)); err != nil {
		return nil, fmt.Errorf("auth: registering JWKS URL %s: %w", config.JWKSURL, err)
	}
	if _, err := cache.Refresh(context.Background(), config.JWKSURL); err != nil {
		return nil, fmt.Errorf("auth: initial JWKS fetch from %s: %w", config.JWKSURL, err)
	}

	return &JWKSTokenValidator{
		config:     config,
		jwkCache:   cache,
		httpClient: client,
	}, nil
}

// jwtPrincipal implements Principal for JWT claims.
type jwtPrincipal struct {
	claims jwt.MapClaims
}

func (p *jwtPrincipal) GetClaims() interface{} {
	return p.claims
}

func (p *jwtPrincipal) GetSubject() string {
	sub, _ := p.claims.GetSubject()
	return sub
}

// ValidateToken implements TokenValidator. All rejection paths wrap
// ErrInvalidToken so transports can branch without inspecting strings.
func (v *JWKSTokenValidator) ValidateToken(ctx context.Context, tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token failed validation", ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims format", ErrInvalidToken)
	}

	// Signature and lifetime are checked by Parse; issuer and audience are
	// deployment configuration, enforced here.
	var opts []jwt.ParserOption
	if v.config.ExpectedIssuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.ExpectedIssuer))
	}
	if v.config.ExpectedAudience != "" {
		opts = append(opts, jwt.WithAudience(v.config.ExpectedAudience))
	}
	if v.config.ClockSkew > 0 {
		opts = append(opts, jwt.WithLeeway(v.config.ClockSkew))
	}
	if err := jwt.NewValidator(opts...).Validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &jwtPrincipal{claims: claims}, nil
}

// keyFunc resolves the signing key for a token from the cached JWKS by its
// 'kid' header, refreshing the cache once on a miss to pick up rotated keys.
func (v *JWKSTokenValidator) keyFunc(token *jwt.Token) (interface{}, error) {
	keySet, err := v.jwkCache.Get(context.Background(), v.config.JWKSURL)
	if err != nil {
		return nil, fmt.Errorf("fetching JWK set: %w", err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token header missing 'kid'")
	}

	key, found := keySet.LookupKeyID(kid)
	if !found {
		if _, err := v.jwkCache.Refresh(context.Background(), v.config.JWKSURL); err != nil {
			return nil, fmt.Errorf("key %q not in JWKS and refresh failed: %w", kid, err)
		}
		keySet, err = v.jwkCache.Get(context.Background(), v.config.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("fetching JWK set after refresh: %w", err)
		}
		key, found = keySet.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("key %q not found in JWKS", kid)
		}
	}

	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return nil, fmt.Errorf("extracting key material for %q: %w", kid, err)
	}
	return rawKey, nil
}

var _ TokenValidator = (*JWKSTokenValidator)(nil)
