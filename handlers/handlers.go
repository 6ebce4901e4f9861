// Package handlers contains the built-in handler descriptors that implement
// discovery, key retrieval, introspection and local token validation on top
// of the pipeline package.
//
// Defaults returns every built-in descriptor. Custom handlers are slotted in
// between them by Order; the Order constants below are spaced to leave room.
package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

// Prepare stage.
const (
	OrderAttachRequestAddress          = 1000
	OrderAttachIntrospectionParameters = 2000
)

// Apply stage.
const (
	OrderEnforceSecureAddress    = 1000
	OrderAttachClientCredentials = 2000
)

// Extract stage.
const (
	OrderAttachCachedResponse = 1000
	OrderSendRequest          = 2000
	OrderValidateStatus       = 3000
	OrderValidateContentType  = 4000
	OrderParseResponse        = 5000
	OrderCacheResponse        = 6000
)

// Handle stage.
const (
	OrderValidateErrorParameters       = 1000
	OrderExtractConfiguration          = 2000
	OrderExtractSigningKeys            = 2000
	OrderValidateActive                = 2000
	OrderValidateIntrospectionIssuer   = 3000
	OrderValidateTokenUsage            = 4000
	OrderExtractPrincipal              = 5000
	OrderValidateIntrospectionAudience = 6000
	OrderVerifyIntrospectedToken       = 7000
)

// Authenticate stage.
const (
	OrderValidateTokenPresence = 1000
	OrderResolveSigningKeys    = 2000
	OrderValidateToken         = 3000
	OrderIntrospectToken       = 4000
	OrderValidateScopes        = 5000
)

// Transaction property keys written by the built-in handlers.
const (
	// PropertyRawResponse holds the *protocol.RawResponse returned by the
	// transport during Extract.
	PropertyRawResponse = "validation.raw_response"
	// PropertyCacheHit is set to true when Extract was served from cache.
	PropertyCacheHit = "validation.cache_hit"
	// PropertyConfiguration holds the *protocol.Configuration discovered
	// while resolving signing keys.
	PropertyConfiguration = "validation.configuration"
	// PropertySigningKeys holds the *protocol.KeySet used for local
	// validation.
	PropertySigningKeys = "validation.signing_keys"
)

// ErrNoTransport is returned by the send handler when Options.Transport is nil.
var ErrNoTransport = errors.New("handlers: no transport configured")

// ID returns the descriptor ID of a built-in handler registered for kind.
func ID(kind pipeline.Kind, name string) string {
	return string(kind) + "/" + name
}

var (
	prepareKinds = []pipeline.Kind{
		events.KindPrepareConfigurationRequest,
		events.KindPrepareCryptographyRequest,
		events.KindPrepareIntrospectionRequest,
	}
	applyKinds = []pipeline.Kind{
		events.KindApplyConfigurationRequest,
		events.KindApplyCryptographyRequest,
		events.KindApplyIntrospectionRequest,
	}
	extractKinds = []pipeline.Kind{
		events.KindExtractConfigurationResponse,
		events.KindExtractCryptographyResponse,
		events.KindExtractIntrospectionResponse,
	}
	handleKinds = []pipeline.Kind{
		events.KindHandleConfigurationResponse,
		events.KindHandleCryptographyResponse,
		events.KindHandleIntrospectionResponse,
	}
)

// Defaults returns a fresh copy of the built-in descriptors.
func Defaults() []pipeline.Descriptor {
	var ds []pipeline.Descriptor
	each := func(kinds []pipeline.Kind, name string, order int, h pipeline.Handler, filters ...pipeline.Filter) {
		for _, k := range kinds {
			ds = append(ds, pipeline.Descriptor{ID: ID(k, name), Kind: k, Order: order, Filters: filters, Handler: h})
		}
	}
	one := func(k pipeline.Kind, name string, order int, h pipeline.Handler, filters ...pipeline.Filter) {
		each([]pipeline.Kind{k}, name, order, h, filters...)
	}

	each(prepareKinds, "attach-address", OrderAttachRequestAddress,
		pipeline.HandlerFunc[events.PrepareRequest](attachRequestAddress))
	one(events.KindPrepareIntrospectionRequest, "attach-parameters", OrderAttachIntrospectionParameters,
		pipeline.HandlerFunc[*events.PrepareIntrospectionRequest](attachIntrospectionParameters))

	each(applyKinds, "enforce-https", OrderEnforceSecureAddress,
		pipeline.HandlerFunc[events.ApplyRequest](enforceSecureAddress), RequireSecureAddress)
	one(events.KindApplyIntrospectionRequest, "client-credentials", OrderAttachClientCredentials,
		pipeline.HandlerFunc[*events.ApplyIntrospectionRequest](attachClientCredentials), RequireClientCredentials)

	each(extractKinds, "cache-lookup", OrderAttachCachedResponse,
		pipeline.HandlerFunc[events.ExtractResponse](attachCachedResponse), RequireDocumentCache)
	each(extractKinds, "send", OrderSendRequest,
		pipeline.HandlerFunc[events.ExtractResponse](sendRequest))
	each(extractKinds, "validate-status", OrderValidateStatus,
		pipeline.HandlerFunc[events.ExtractResponse](validateStatus))
	each(extractKinds, "validate-content-type", OrderValidateContentType,
		pipeline.HandlerFunc[events.ExtractResponse](validateContentType))
	each(extractKinds, "parse", OrderParseResponse,
		pipeline.HandlerFunc[events.ExtractResponse](parseResponse))
	each(extractKinds, "cache-store", OrderCacheResponse,
		pipeline.HandlerFunc[events.ExtractResponse](cacheResponse), RequireDocumentCache)

	each(handleKinds, "error-parameters", OrderValidateErrorParameters,
		pipeline.HandlerFunc[events.HandleResponse](validateErrorParameters))
	one(events.KindHandleConfigurationResponse, "extract-configuration", OrderExtractConfiguration,
		pipeline.HandlerFunc[*events.HandleConfigurationResponse](extractConfiguration))
	one(events.KindHandleCryptographyResponse, "extract-keys", OrderExtractSigningKeys,
		pipeline.HandlerFunc[*events.HandleCryptographyResponse](extractSigningKeys))
	one(events.KindHandleIntrospectionResponse, "validate-active", OrderValidateActive,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](validateActive))
	one(events.KindHandleIntrospectionResponse, "validate-issuer", OrderValidateIntrospectionIssuer,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](validateIntrospectionIssuer))
	one(events.KindHandleIntrospectionResponse, "validate-token-usage", OrderValidateTokenUsage,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](validateTokenUsage))
	one(events.KindHandleIntrospectionResponse, "extract-principal", OrderExtractPrincipal,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](extractPrincipal))
	one(events.KindHandleIntrospectionResponse, "validate-audience", OrderValidateIntrospectionAudience,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](validateIntrospectionAudience))
	one(events.KindHandleIntrospectionResponse, "verify-token", OrderVerifyIntrospectedToken,
		pipeline.HandlerFunc[*events.HandleIntrospectionResponse](verifyIntrospectedToken), RequireSigningKeysForIntrospection)

	one(events.KindProcessAuthentication, "token-presence", OrderValidateTokenPresence,
		pipeline.HandlerFunc[*events.ProcessAuthentication](validateTokenPresence))
	one(events.KindProcessAuthentication, "resolve-keys", OrderResolveSigningKeys,
		pipeline.HandlerFunc[*events.ProcessAuthentication](resolveSigningKeys), RequireLocalValidation)
	one(events.KindProcessAuthentication, "validate-token", OrderValidateToken,
		pipeline.HandlerFunc[*events.ProcessAuthentication](validateToken), RequireLocalValidation)
	one(events.KindProcessAuthentication, "introspect", OrderIntrospectToken,
		pipeline.HandlerFunc[*events.ProcessAuthentication](introspectToken), RequireIntrospectionFallback)
	one(events.KindProcessAuthentication, "validate-scopes", OrderValidateScopes,
		pipeline.HandlerFunc[*events.ProcessAuthentication](validateScopes), RequireScopes)

	return ds
}

// NewDefaultRegistry returns an unsealed registry holding Defaults. Callers
// may register additional descriptors before the first operation.
func NewDefaultRegistry() (*pipeline.Registry, error) {
	return pipeline.NewRegistry(Defaults()...)
}

// propagate turns the error of a nested operation into a rejection when it
// carries one. Any other error is returned so the dispatcher reports a fault.
func propagate(ctx context.Context, bc *pipeline.BaseContext, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var rej pipeline.Rejection
	if errors.As(err, &rej) {
		code, desc, uri := rej.Rejection()
		bc.Reject(code, desc, uri)
		return nil
	}
	return err
}

// looksLikeJWT reports whether token has the three dot separated segments of
// a JWS compact serialization.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

func sameIssuer(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

func validationParameters(opts *pipeline.Options, issuer string, keys *protocol.KeySet) pipeline.ValidationParameters {
	p := pipeline.ValidationParameters{
		Issuer:      issuer,
		Audiences:   opts.Audiences,
		AllowedAlgs: opts.AllowedAlgs,
		Leeway:      opts.Leeway,
		Keys:        keys,
	}
	if opts.RequireTypedTokens {
		p.ValidTypes = []string{"at+jwt", "application/at+jwt"}
	}
	return p
}
