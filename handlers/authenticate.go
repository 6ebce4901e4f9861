package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

func validateTokenPresence(_ context.Context, ev *events.ProcessAuthentication) error {
	if strings.TrimSpace(ev.Token) == "" {
		ev.Reject(protocol.ErrorInvalidRequest, "no token was provided", "")
	}
	return nil
}

// deferToIntrospection reports whether local validation should leave an
// opaque token to the introspection fallback.
func deferToIntrospection(ev *events.ProcessAuthentication) bool {
	return !looksLikeJWT(ev.Token) && introspectionFallbackAvailable(ev.Options())
}

func resolveSigningKeys(ctx context.Context, ev *events.ProcessAuthentication) error {
	if deferToIntrospection(ev) {
		return nil
	}
	opts := ev.Options()
	tx := ev.Transaction

	if opts.SigningKeys.Len() > 0 {
		tx.SetProperty(PropertySigningKeys, opts.SigningKeys)
		return nil
	}

	addr := opts.DiscoveryAddress()
	if addr == "" || opts.Client == nil {
		ev.Reject(protocol.ErrorServerError, "no signing keys or issuer are configured", "")
		return nil
	}

	cfg, err := opts.Client.FetchConfiguration(ctx, addr)
	if err != nil {
		return propagate(ctx, &ev.BaseContext, err)
	}
	if cfg.JWKSURI == "" {
		ev.Reject(protocol.ErrorServerError, "the configuration document does not specify a jwks_uri", "")
		return nil
	}
	tx.SetProperty(PropertyConfiguration, cfg)

	keys, err := opts.Client.FetchSigningKeys(ctx, cfg.JWKSURI)
	if err != nil {
		return propagate(ctx, &ev.BaseContext, err)
	}
	tx.SetProperty(PropertySigningKeys, keys)
	ev.Logger().DebugContext(ctx, "keys.resolved", slog.String("jwks_uri", cfg.JWKSURI), slog.Int("count", keys.Len()))
	return nil
}

func validateToken(ctx context.Context, ev *events.ProcessAuthentication) error {
	if deferToIntrospection(ev) {
		return nil
	}
	opts := ev.Options()
	tx := ev.Transaction

	issuer := opts.Issuer
	if cfg, ok := pipeline.Property[*protocol.Configuration](tx, PropertyConfiguration); ok && issuer == "" {
		issuer = cfg.Issuer
	}
	keys, _ := pipeline.Property[*protocol.KeySet](tx, PropertySigningKeys)

	p, err := opts.TokenValidator.Validate(ctx, ev.Token, validationParameters(opts, issuer, keys))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		ev.Reject(protocol.ErrorInvalidToken, err.Error(), "")
		return nil
	}
	ev.Principal = p
	return nil
}

func introspectToken(ctx context.Context, ev *events.ProcessAuthentication) error {
	if ev.Principal != nil {
		return nil
	}
	opts := ev.Options()
	p, err := opts.Client.IntrospectToken(ctx, opts.IntrospectionURL, ev.Token, protocol.TokenTypeAccessToken)
	if err != nil {
		return propagate(ctx, &ev.BaseContext, err)
	}
	ev.Principal = p
	return nil
}

func validateScopes(_ context.Context, ev *events.ProcessAuthentication) error {
	if ev.Principal == nil {
		return nil
	}
	opts := ev.Options()

	var missing []string
	for _, s := range opts.RequiredScopes {
		if ev.Principal.HasScope(s) {
			if opts.ScopeModeAny {
				return nil
			}
			continue
		}
		missing = append(missing, s)
	}
	if len(missing) == 0 {
		return nil
	}
	if opts.ScopeModeAny {
		ev.Reject(protocol.ErrorInsufficientScope, "the token carries none of the scopes: "+strings.Join(opts.RequiredScopes, " "), "")
		return nil
	}
	ev.Reject(protocol.ErrorInsufficientScope, "the token is missing required scopes: "+strings.Join(missing, " "), "")
	return nil
}
