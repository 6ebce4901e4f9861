// Package events defines the stage contexts dispatched by the validation
// operations. Each operation runs its own set of kinds:
//
//	configuration: Prepare/Apply ConfigurationRequest, Extract/Handle ConfigurationResponse
//	cryptography:  Prepare/Apply CryptographyRequest, Extract/Handle CryptographyResponse
//	introspection: Prepare/Apply IntrospectionRequest, Extract/Handle IntrospectionResponse
//	authentication: ProcessAuthentication
//
// Handlers that apply to the same stage of several operations can target the
// shared interfaces (PrepareRequest, ExtractResponse, HandleResponse) with a
// pipeline.HandlerFunc and be registered once per Kind.
package events

import (
	"net/url"

	"github.com/ggoodman/oidc-validation-go/pipeline"
)

const (
	KindPrepareConfigurationRequest  pipeline.Kind = "configuration.prepare"
	KindApplyConfigurationRequest    pipeline.Kind = "configuration.apply"
	KindExtractConfigurationResponse pipeline.Kind = "configuration.extract"
	KindHandleConfigurationResponse  pipeline.Kind = "configuration.handle"

	KindPrepareCryptographyRequest  pipeline.Kind = "cryptography.prepare"
	KindApplyCryptographyRequest    pipeline.Kind = "cryptography.apply"
	KindExtractCryptographyResponse pipeline.Kind = "cryptography.extract"
	KindHandleCryptographyResponse  pipeline.Kind = "cryptography.handle"

	KindPrepareIntrospectionRequest  pipeline.Kind = "introspection.prepare"
	KindApplyIntrospectionRequest    pipeline.Kind = "introspection.apply"
	KindExtractIntrospectionResponse pipeline.Kind = "introspection.extract"
	KindHandleIntrospectionResponse  pipeline.Kind = "introspection.handle"

	KindProcessAuthentication pipeline.Kind = "authentication.process"
)

// PrepareRequest is implemented by every Prepare stage context.
type PrepareRequest interface {
	pipeline.Event
	// TargetAddress is the address the caller asked for.
	TargetAddress() *url.URL
}

// ApplyRequest is implemented by every Apply stage context.
type ApplyRequest interface {
	pipeline.Event
	applyRequest()
}

// Document cache namespaces.
const (
	NamespaceConfiguration = "configuration"
	NamespaceKeySets       = "jwks"
)

// ExtractResponse is implemented by every Extract stage context.
type ExtractResponse interface {
	pipeline.Event
	// CacheNamespace is the document cache namespace for the response, or ""
	// when the response must never be cached.
	CacheNamespace() string
}

// HandleResponse is implemented by every Handle stage context.
type HandleResponse interface {
	pipeline.Event
	handleResponse()
}

// RequestTarget is embedded by Prepare contexts.
type RequestTarget struct {
	Address *url.URL
}

func (t *RequestTarget) TargetAddress() *url.URL { return t.Address }

// TokenDetails is embedded by contexts that carry the token being verified.
type TokenDetails struct {
	Token string
	// TokenTypeHint is the caller supplied hint, possibly empty.
	TokenTypeHint string
}
