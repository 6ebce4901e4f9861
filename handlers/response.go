package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	jose "github.com/go-jose/go-jose/v4"

	"github.com/ggoodman/oidc-validation-go/events"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

func validateErrorParameters(_ context.Context, ev events.HandleResponse) error {
	bc := ev.Context()
	if bc.Response == nil {
		bc.Reject(protocol.ErrorServerError, "no response was received from the remote endpoint", "")
		return nil
	}
	params := &bc.Response.Parameters
	if code := params.String(protocol.ParamError); code != "" {
		bc.Reject(code, params.String(protocol.ParamErrorDescription), params.String(protocol.ParamErrorURI))
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

func extractConfiguration(_ context.Context, ev *events.HandleConfigurationResponse) error {
	var cfg protocol.Configuration
	if err := ev.Response.Parameters.Decode(&cfg); err != nil {
		ev.Reject(protocol.ErrorServerError, "the configuration document is malformed: "+err.Error(), "")
		return nil
	}
	if cfg.Issuer == "" {
		ev.Reject(protocol.ErrorServerError, "the configuration document does not specify an issuer", "")
		return nil
	}

	endpoints := []struct{ name, value string }{
		{"issuer", cfg.Issuer},
		{"jwks_uri", cfg.JWKSURI},
		{"authorization_endpoint", cfg.AuthorizationEndpoint},
		{"token_endpoint", cfg.TokenEndpoint},
		{"introspection_endpoint", cfg.IntrospectionEndpoint},
		{"userinfo_endpoint", cfg.UserInfoEndpoint},
		{"device_authorization_endpoint", cfg.DeviceAuthorizationEndpoint},
		{"registration_endpoint", cfg.RegistrationEndpoint},
		{"end_session_endpoint", cfg.EndSessionEndpoint},
	}
	for _, e := range endpoints {
		if e.value != "" && !isAbsoluteURL(e.value) {
			ev.Reject(protocol.ErrorServerError,
				fmt.Sprintf("the configuration document contains an invalid %s: %q", e.name, e.value), "")
			return nil
		}
	}

	ev.Configuration = &cfg
	return nil
}

func extractSigningKeys(ctx context.Context, ev *events.HandleCryptographyResponse) error {
	v, _ := ev.Response.Parameters.Get(protocol.ParamKeys)
	entries, ok := v.([]any)
	if !ok {
		ev.Reject(protocol.ErrorServerError, "the key set document does not contain a keys array", "")
		return nil
	}

	log := ev.Logger()
	keys := make([]jose.JSONWebKey, 0, len(entries))
	for i, entry := range entries {
		b, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("re-encode key %d: %w", i, err)
		}
		var k jose.JSONWebKey
		if err := k.UnmarshalJSON(b); err != nil {
			log.DebugContext(ctx, "jwks.key.ignored", slog.Int("index", i), slog.String("err", err.Error()))
			continue
		}
		if k.Use == "enc" || !k.Valid() {
			log.DebugContext(ctx, "jwks.key.ignored", slog.Int("index", i), slog.String("kid", k.KeyID))
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		ev.Reject(protocol.ErrorServerError, "the key set document contains no usable signing keys", "")
		return nil
	}

	ev.KeySet = protocol.NewKeySet(keys...)
	return nil
}

func validateActive(_ context.Context, ev *events.HandleIntrospectionResponse) error {
	active, ok := ev.Response.Parameters.Bool(protocol.ParamActive)
	switch {
	case !ok:
		ev.Reject(protocol.ErrorServerError, "the introspection response does not contain a valid active flag", "")
	case !active:
		ev.Reject(protocol.ErrorInvalidToken, "the token is not active", "")
	}
	return nil
}

func validateIntrospectionIssuer(_ context.Context, ev *events.HandleIntrospectionResponse) error {
	want := ev.Options().Issuer
	got := ev.Response.Parameters.String(protocol.ParamIssuer)
	if want == "" || got == "" || sameIssuer(want, got) {
		return nil
	}
	ev.Reject(protocol.ErrorInvalidToken, fmt.Sprintf("the token was issued by %q, expected %q", got, want), "")
	return nil
}

func validateTokenUsage(_ context.Context, ev *events.HandleIntrospectionResponse) error {
	usage := ev.Response.Parameters.String(protocol.ParamTokenUsage)
	if usage == "" || ev.TokenTypeHint == "" || usage == ev.TokenTypeHint {
		return nil
	}
	ev.Reject(protocol.ErrorInvalidToken, fmt.Sprintf("the token is a %s, not a %s", usage, ev.TokenTypeHint), "")
	return nil
}

func extractPrincipal(_ context.Context, ev *events.HandleIntrospectionResponse) error {
	claims := ev.Response.Parameters.Map()
	delete(claims, protocol.ParamActive)

	p := protocol.NewPrincipal(claims)
	if !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt.Add(ev.Options().Leeway)) {
		ev.Reject(protocol.ErrorInvalidToken, "the token has expired", "")
		return nil
	}
	ev.Principal = p
	return nil
}

func validateIntrospectionAudience(_ context.Context, ev *events.HandleIntrospectionResponse) error {
	want := ev.Options().Audiences
	if len(want) == 0 || ev.Principal == nil || len(ev.Principal.Audiences) == 0 {
		return nil
	}
	if !ev.Principal.HasAudience(want...) {
		ev.Reject(protocol.ErrorInvalidToken, "the token is not intended for this audience", "")
	}
	return nil
}

func verifyIntrospectedToken(ctx context.Context, ev *events.HandleIntrospectionResponse) error {
	if !looksLikeJWT(ev.Token) {
		return nil
	}
	opts := ev.Options()
	params := validationParameters(opts, opts.Issuer, opts.SigningKeys)
	if _, err := opts.TokenValidator.Validate(ctx, ev.Token, params); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		ev.Reject(protocol.ErrorInvalidToken, err.Error(), "")
	}
	return nil
}
