package validation

import (
	"log/slog"
	"time"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
	"github.com/ggoodman/oidc-validation-go/storage"
)

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	opts     pipeline.Options
	registry *pipeline.Registry
	factory  pipeline.Factory
	closers  []func() error
}

// WithIssuer sets the expected issuer of access tokens. Unless
// WithMetadataAddress is used, discovery reads
// <issuer>/.well-known/openid-configuration.
func WithIssuer(issuer string) Option {
	return func(c *serviceConfig) { c.opts.Issuer = issuer }
}

// WithMetadataAddress overrides the discovery document address.
func WithMetadataAddress(address string) Option {
	return func(c *serviceConfig) { c.opts.MetadataAddress = address }
}

// WithAudiences sets the accepted "aud" values. The first entry should be the
// production audience; others are accepted too.
func WithAudiences(auds ...string) Option {
	return func(c *serviceConfig) { c.opts.Audiences = append([]string(nil), auds...) }
}

// WithClientCredentials authenticates introspection requests.
func WithClientCredentials(clientID, clientSecret string) Option {
	return func(c *serviceConfig) {
		c.opts.ClientID = clientID
		c.opts.ClientSecret = clientSecret
	}
}

// WithIntrospectionFallback makes ValidateAccessToken introspect opaque
// tokens at address.
func WithIntrospectionFallback(address string) Option {
	return func(c *serviceConfig) { c.opts.IntrospectionURL = address }
}

// WithAllowedAlgs restricts allowed JWS algorithms. "none" is never allowed.
// Defaults to ["RS256"].
func WithAllowedAlgs(algs ...string) Option {
	return func(c *serviceConfig) { c.opts.AllowedAlgs = append([]string(nil), algs...) }
}

// WithLeeway sets clock skew tolerance for time-based claims.
func WithLeeway(d time.Duration) Option {
	return func(c *serviceConfig) { c.opts.Leeway = d }
}

// WithRequiredScopes requires all of the provided scopes to be present in the
// space-delimited "scope" claim.
func WithRequiredScopes(scopes ...string) Option {
	return func(c *serviceConfig) {
		c.opts.RequiredScopes = append([]string(nil), scopes...)
		c.opts.ScopeModeAny = false
	}
}

// WithAnyRequiredScope requires at least one of the provided scopes to be present.
func WithAnyRequiredScope(scopes ...string) Option {
	return func(c *serviceConfig) {
		c.opts.RequiredScopes = append([]string(nil), scopes...)
		c.opts.ScopeModeAny = true
	}
}

// WithTypedTokens requires the RFC 9068 "at+jwt" typ header.
func WithTypedTokens() Option {
	return func(c *serviceConfig) { c.opts.RequireTypedTokens = true }
}

// WithSigningKeys pins the keys used for local validation, skipping
// discovery.
func WithSigningKeys(keys *protocol.KeySet) Option {
	return func(c *serviceConfig) { c.opts.SigningKeys = keys }
}

// WithInsecureHTTP allows plain http endpoints other than loopback ones.
func WithInsecureHTTP() Option {
	return func(c *serviceConfig) { c.opts.AllowInsecureHTTP = true }
}

// WithCache keeps discovery documents and key sets in s for ttl. A
// non-positive ttl keeps them until evicted.
func WithCache(s storage.Storage, ttl time.Duration) Option {
	return func(c *serviceConfig) {
		c.opts.Cache = s
		c.opts.CacheTTL = ttl
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t pipeline.Transport) Option {
	return func(c *serviceConfig) { c.opts.Transport = t }
}

// WithTokenValidator replaces the JWT validator used for local validation.
func WithTokenValidator(v pipeline.TokenValidator) Option {
	return func(c *serviceConfig) { c.opts.TokenValidator = v }
}

// WithRegistry replaces the default handler registry. The registry is sealed
// by the first operation.
func WithRegistry(r *pipeline.Registry) Option {
	return func(c *serviceConfig) { c.registry = r }
}

// WithFactory replaces the transaction factory.
func WithFactory(f pipeline.Factory) Option {
	return func(c *serviceConfig) { c.factory = f }
}

// WithLogger sets the logger used by the service. If not provided, logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *serviceConfig) { c.opts.Logger = l }
}
