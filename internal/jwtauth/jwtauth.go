package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// DefaultAllowedAlgs is used when ValidationParameters.AllowedAlgs is empty.
var DefaultAllowedAlgs = []string{"RS256"}

// ErrUnauthorized indicates that the access token failed validation (e.g.,
// signature, issuer, audience, exp/nbf).
var ErrUnauthorized = errors.New("jwtauth: unauthorized")

// ErrNoSigningKeys is returned when validation is attempted without keys.
var ErrNoSigningKeys = errors.New("jwtauth: no signing keys")

// keyfuncCacheSize bounds the number of parsed key sets kept around. Entries
// are keyed by the key set's JSON encoding, so a key set decoded again from
// the document cache or refetched unchanged reuses its keyfunc.
const keyfuncCacheSize = 32

// Validator implements pipeline.TokenValidator for JWT access tokens. It is
// safe for concurrent use.
type Validator struct {
	keyfuncs *lru.Cache[string, keyfunc.Keyfunc]
	now      func() time.Time
}

var _ pipeline.TokenValidator = (*Validator)(nil)

// New returns a Validator.
func New() *Validator {
	c, err := lru.New[string, keyfunc.Keyfunc](keyfuncCacheSize)
	if err != nil {
		panic(err)
	}
	return &Validator{keyfuncs: c, now: time.Now}
}

func (v *Validator) keyfunc(keys *protocol.KeySet, allowed []string) (jwt.Keyfunc, error) {
	raw, err := keys.JSON()
	if err != nil {
		return nil, fmt.Errorf("encode jwks: %w", err)
	}
	kf, ok := v.keyfuncs.Get(string(raw))
	if !ok {
		kf, err = keyfunc.NewJWKSetJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("jwks init failed: %w", err)
		}
		v.keyfuncs.Add(string(raw), kf)
	}

	return func(t *jwt.Token) (any, error) {
		// Enforce allowed algs
		alg := t.Method.Alg()
		for _, a := range allowed {
			if alg == a {
				return kf.Keyfunc(t)
			}
		}
		return nil, fmt.Errorf("disallowed alg: %s", alg)
	}, nil
}

// Validate verifies tok against params and returns the principal it carries.
func (v *Validator) Validate(ctx context.Context, tok string, params pipeline.ValidationParameters) (*protocol.Principal, error) {
	if tok == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	if params.Keys.Len() == 0 {
		return nil, ErrNoSigningKeys
	}
	allowed := params.AllowedAlgs
	if len(allowed) == 0 {
		allowed = DefaultAllowedAlgs
	}

	kf, err := v.keyfunc(params.Keys, allowed)
	if err != nil {
		return nil, err
	}

	// A single audience is checked by the parser; several are matched
	// against the aud claim once the token is verified.
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(allowed),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(params.Leeway),
		jwt.WithTimeFunc(v.now),
	}
	if params.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(params.Issuer))
	}
	if len(params.Audiences) == 1 {
		opts = append(opts, jwt.WithAudience(params.Audiences[0]))
	}

	parsed, err := jwt.NewParser(opts...).Parse(tok, kf)
	if err != nil {
		return nil, fmt.Errorf("%w: token parse/verify failed: %v", ErrUnauthorized, err)
	}

	// Header checks (RFC 9068 typ)
	if len(params.ValidTypes) > 0 {
		typ, _ := parsed.Header["typ"].(string)
		if !contains(params.ValidTypes, typ) {
			return nil, fmt.Errorf("%w: invalid typ %q", ErrUnauthorized, typ)
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	if len(params.Audiences) > 1 && !audIntersects(claims["aud"], params.Audiences) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrUnauthorized)
	}
	// iat is optional, but a token issued in the future is refused.
	if iatf, ok := claims["iat"].(float64); ok {
		iat := time.Unix(int64(iatf), 0)
		if iat.After(v.now().Add(params.Leeway).Add(5 * time.Minute)) {
			return nil, fmt.Errorf("%w: iat too far in future", ErrUnauthorized)
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrUnauthorized)
	}

	return protocol.NewPrincipal(claims), nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func audIntersects(aud any, wants []string) bool {
	wantSet := map[string]struct{}{}
	for _, w := range wants {
		wantSet[w] = struct{}{}
	}
	switch v := aud.(type) {
	case string:
		_, ok := wantSet[v]
		return ok
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				if _, ok2 := wantSet[s]; ok2 {
					return true
				}
			}
		}
	case []string:
		for _, s := range v {
			if _, ok := wantSet[s]; ok {
				return true
			}
		}
	}
	return false
}
