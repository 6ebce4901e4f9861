package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ggoodman/oidc-validation-go/protocol"
	"github.com/ggoodman/oidc-validation-go/storage"
)

// Transport performs the network exchange for a prepared request. It must be
// safe for concurrent use and should honour ctx cancellation while the call
// is in flight. Retries, if any, belong here.
type Transport interface {
	Send(ctx context.Context, req *protocol.Request) (*protocol.RawResponse, error)
}

// TokenValidator cryptographically verifies a token and returns its principal.
type TokenValidator interface {
	Validate(ctx context.Context, token string, params ValidationParameters) (*protocol.Principal, error)
}

// ValidationParameters describe what a TokenValidator must enforce.
type ValidationParameters struct {
	Issuer      string
	Audiences   []string
	AllowedAlgs []string
	Leeway      time.Duration
	Keys        *protocol.KeySet
	// ValidTypes restricts the JOSE "typ" header. Empty disables the check.
	ValidTypes []string
}

// Client exposes the network operations to handlers that need to run a nested
// operation, such as resolving signing keys during local validation. Each
// call runs in its own transaction.
type Client interface {
	FetchConfiguration(ctx context.Context, address string) (*protocol.Configuration, error)
	FetchSigningKeys(ctx context.Context, address string) (*protocol.KeySet, error)
	IntrospectToken(ctx context.Context, address, token, tokenTypeHint string) (*protocol.Principal, error)
}

// Options is the configuration snapshot visible to filters and handlers
// through the transaction. It is shared between concurrent operations and
// must not be mutated once the owning service is constructed.
type Options struct {
	// Issuer is the expected "iss" of validated tokens and the base used to
	// derive MetadataAddress.
	Issuer string
	// MetadataAddress overrides the discovery document location.
	MetadataAddress string
	Audiences       []string

	ClientID         string
	ClientSecret     string
	IntrospectionURL string

	AllowedAlgs        []string
	Leeway             time.Duration
	RequireTypedTokens bool
	RequiredScopes     []string
	ScopeModeAny       bool

	// SigningKeys, when set, are used for local validation instead of
	// discovering them from the issuer.
	SigningKeys *protocol.KeySet

	AllowInsecureHTTP bool

	// CacheTTL bounds how long discovery documents stay in Cache.
	CacheTTL time.Duration

	Transport      Transport
	TokenValidator TokenValidator
	Cache          storage.Storage
	Client         Client
	Logger         *slog.Logger
}

// DefaultMetadataPath is appended to the issuer when no explicit metadata
// address is configured.
const DefaultMetadataPath = "/.well-known/openid-configuration"

// DiscoveryAddress returns the metadata address to use for local validation,
// or "" when neither an issuer nor an explicit address is configured.
func (o *Options) DiscoveryAddress() string {
	if o.MetadataAddress != "" {
		return o.MetadataAddress
	}
	if o.Issuer == "" {
		return ""
	}
	iss := o.Issuer
	for len(iss) > 0 && iss[len(iss)-1] == '/' {
		iss = iss[:len(iss)-1]
	}
	return iss + DefaultMetadataPath
}

// Log returns the configured logger or a discarding one.
func (o *Options) Log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
