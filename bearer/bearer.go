// Package bearer protects HTTP handlers with RFC 6750 bearer tokens validated
// by a validation.Service, and serves RFC 9728 protected resource metadata.
package bearer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	validation "github.com/ggoodman/oidc-validation-go"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

const (
	authorizationHeader   = "Authorization"
	wwwAuthenticateHeader = "WWW-Authenticate"
)

// Authenticator validates access tokens. *validation.Service implements it.
type Authenticator interface {
	ValidateAccessToken(ctx context.Context, token string) (*protocol.Principal, error)
}

var _ Authenticator = (*validation.Service)(nil)

type principalKey struct{}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*protocol.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*protocol.Principal)
	return p, ok
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *protocol.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Option configures the middleware.
type Option func(*Middleware)

// WithRealm sets the realm advertised in challenges. If empty (default), the
// realm attribute is omitted.
func WithRealm(realm string) Option {
	return func(m *Middleware) { m.realm = strings.TrimSpace(realm) }
}

// WithResourceMetadataURL advertises the RFC 9728 metadata document in
// challenges.
func WithResourceMetadataURL(u string) Option {
	return func(m *Middleware) { m.resourceMetadata = u }
}

// WithLogger sets the logger. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.log = l
		}
	}
}

// Middleware authenticates requests before handing them to the next handler.
type Middleware struct {
	auth             Authenticator
	realm            string
	resourceMetadata string
	log              *slog.Logger
}

// New returns a Middleware validating tokens with a.
func New(a Authenticator, opts ...Option) *Middleware {
	m := &Middleware{auth: a, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap returns next guarded by the middleware. The validated principal is
// available to next through PrincipalFromContext.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (*protocol.Principal, bool) {
	ctx := r.Context()
	header := r.Header.Get(authorizationHeader)

	if header == "" {
		// RFC 6750 §3.1: no error code when the request carries no credentials.
		m.log.InfoContext(ctx, "auth.check.missing")
		m.challenge(w, http.StatusUnauthorized, nil)
		return nil, false
	}

	scheme, tok, found := strings.Cut(header, " ")
	tok = strings.TrimSpace(tok)
	if !found || !strings.EqualFold(scheme, "Bearer") {
		m.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", "malformed bearer authorization header"))
		m.challenge(w, http.StatusBadRequest, map[string]string{
			"error":             protocol.ErrorInvalidRequest,
			"error_description": "malformed bearer authorization header",
		})
		return nil, false
	}
	if tok == "" {
		m.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", "empty bearer token"))
		m.challenge(w, http.StatusBadRequest, map[string]string{
			"error":             protocol.ErrorInvalidRequest,
			"error_description": "empty bearer token",
		})
		return nil, false
	}

	p, err := m.auth.ValidateAccessToken(ctx, tok)
	if err == nil {
		return p, true
	}

	var verr *validation.Error
	switch {
	case errors.As(err, &verr) && verr.Code == protocol.ErrorServerError:
		m.log.WarnContext(ctx, "auth.check.unavailable", slog.String("err", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
	case errors.As(err, &verr):
		m.log.InfoContext(ctx, "auth.check.fail", slog.String("err", err.Error()))
		m.challenge(w, statusFor(verr.Code), map[string]string{
			"error":             verr.Code,
			"error_description": verr.Description,
			"error_uri":         verr.URI,
		})
	case errors.Is(err, validation.ErrInputInvalid):
		m.log.InfoContext(ctx, "auth.check.invalid", slog.String("err", err.Error()))
		m.challenge(w, http.StatusBadRequest, map[string]string{"error": protocol.ErrorInvalidRequest})
	default:
		m.log.ErrorContext(ctx, "auth.check.err", slog.String("err", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
	return nil, false
}

func statusFor(code string) int {
	switch code {
	case protocol.ErrorInsufficientScope:
		return http.StatusForbidden
	case protocol.ErrorInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

func (m *Middleware) challenge(w http.ResponseWriter, status int, params map[string]string) {
	w.Header().Add(wwwAuthenticateHeader, BuildChallenge(m.realm, m.resourceMetadata, params))
	w.WriteHeader(status)
}

// BuildChallenge builds a Bearer challenge header value:
//
//	Bearer realm="<realm>", resource_metadata="<url>", error="...", error_description="..."
//
// Empty attributes are omitted. Known parameters come first in a fixed order,
// the rest follow alphabetically.
func BuildChallenge(realm, resourceMetadata string, params map[string]string) string {
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	var pieces []string
	add := func(k, v string) {
		if v != "" {
			pieces = append(pieces, fmt.Sprintf(`%s="%s"`, k, esc.Replace(v)))
		}
	}

	add("realm", realm)
	add("resource_metadata", resourceMetadata)
	known := []string{"error", "error_description", "error_uri", "scope"}
	for _, k := range known {
		add(k, params[k])
	}
	var rest []string
	for k := range params {
		if !contains(known, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		add(k, params[k])
	}

	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
