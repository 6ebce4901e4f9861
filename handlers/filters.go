package handlers

import (
	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
)

var (
	// RequireClientCredentials is active when a client ID is configured.
	RequireClientCredentials pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		return ev.Context().Options().ClientID != ""
	})

	// RequireDocumentCache is active when a cache is configured and the
	// event's response may be cached.
	RequireDocumentCache pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		if ev.Context().Options().Cache == nil {
			return false
		}
		ex, ok := ev.(events.ExtractResponse)
		return ok && ex.CacheNamespace() != ""
	})

	// RequireSecureAddress is active unless plain HTTP has been allowed.
	RequireSecureAddress pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		return !ev.Context().Options().AllowInsecureHTTP
	})

	// RequireLocalValidation is active when a token validator is configured.
	RequireLocalValidation pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		return ev.Context().Options().TokenValidator != nil
	})

	// RequireIntrospectionFallback is active when tokens may be introspected
	// during local validation.
	RequireIntrospectionFallback pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		return introspectionFallbackAvailable(ev.Context().Options())
	})

	// RequireScopes is active when required scopes are configured.
	RequireScopes pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		return len(ev.Context().Options().RequiredScopes) > 0
	})

	// RequireSigningKeysForIntrospection is active when static signing keys
	// and a validator are available to double check introspected JWTs.
	RequireSigningKeysForIntrospection pipeline.Filter = pipeline.FilterFunc(func(ev pipeline.Event) bool {
		opts := ev.Context().Options()
		return opts.SigningKeys.Len() > 0 && opts.TokenValidator != nil
	})
)

func introspectionFallbackAvailable(opts *pipeline.Options) bool {
	return opts.IntrospectionURL != "" && opts.Client != nil
}
