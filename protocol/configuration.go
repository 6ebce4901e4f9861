package protocol

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Configuration is the authorization server metadata returned by an OpenID
// Connect discovery document (or RFC 8414 metadata endpoint).
type Configuration struct {
	Issuer                                     string   `json:"issuer"`
	JWKSURI                                    string   `json:"jwks_uri,omitempty"`
	AuthorizationEndpoint                      string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                              string   `json:"token_endpoint,omitempty"`
	IntrospectionEndpoint                      string   `json:"introspection_endpoint,omitempty"`
	UserInfoEndpoint                           string   `json:"userinfo_endpoint,omitempty"`
	DeviceAuthorizationEndpoint                string   `json:"device_authorization_endpoint,omitempty"`
	RegistrationEndpoint                       string   `json:"registration_endpoint,omitempty"`
	EndSessionEndpoint                         string   `json:"end_session_endpoint,omitempty"`
	ScopesSupported                            []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported                     []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported                        []string `json:"grant_types_supported,omitempty"`
	CodeChallengeMethodsSupported              []string `json:"code_challenge_methods_supported,omitempty"`
	IDTokenSigningAlgValuesSupported           []string `json:"id_token_signing_alg_values_supported,omitempty"`
	IntrospectionEndpointAuthMethodsSupported  []string `json:"introspection_endpoint_auth_methods_supported,omitempty"`
	TokenEndpointAuthMethodsSupported          []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	TokenEndpointAuthSigningAlgValuesSupported []string `json:"token_endpoint_auth_signing_alg_values_supported,omitempty"`
}

// ProviderConfig converts the metadata into a go-oidc provider config.
func (c *Configuration) ProviderConfig() oidc.ProviderConfig {
	return oidc.ProviderConfig{
		IssuerURL:     c.Issuer,
		AuthURL:       c.AuthorizationEndpoint,
		TokenURL:      c.TokenEndpoint,
		DeviceAuthURL: c.DeviceAuthorizationEndpoint,
		UserInfoURL:   c.UserInfoEndpoint,
		JWKSURL:       c.JWKSURI,
		Algorithms:    append([]string(nil), c.IDTokenSigningAlgValuesSupported...),
	}
}

// NewProvider builds an *oidc.Provider from already discovered metadata,
// skipping the second network round trip oidc.NewProvider would make.
func (c *Configuration) NewProvider(ctx context.Context) *oidc.Provider {
	pc := c.ProviderConfig()
	return pc.NewProvider(ctx)
}
